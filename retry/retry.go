package retry

import "time"

// Policy is a bounded attempt loop with a constant delay between failed
// attempts. Sleep is injectable so callers can be tested without real timers;
// nil means time.Sleep.
type Policy struct {
	Attempts int
	Backoff  time.Duration
	Sleep    func(time.Duration)
}

// Do runs fn up to p.Attempts times. check runs before every attempt and its
// error ends the loop immediately (used for the kill-switch). fn reports
// stop=true when the outcome is final, in which case its error (possibly nil)
// is returned as-is with no further attempts. A stop=false error is retried;
// exhausting all attempts returns the last such error. Backoff is applied
// between attempts, never after the last one.
func (p Policy) Do(check func() error, fn func(attempt int) (stop bool, err error)) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if check != nil {
			if err := check(); err != nil {
				return err
			}
		}

		stop, err := fn(attempt)
		if stop {
			return err
		}
		lastErr = err

		if attempt < p.Attempts {
			sleep(p.Backoff)
		}
	}
	return lastErr
}
