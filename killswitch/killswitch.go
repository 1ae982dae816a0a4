package killswitch

import (
	"errors"
	"log"
	"sync"
	"sync/atomic"
)

// ErrAborted is returned by Check once the emergency stop has been triggered.
var ErrAborted = errors.New("automation aborted by operator")

// Switch is the process-wide emergency stop. The flag only ever goes from
// false to true, so it is safe to read from any goroutine without locking.
type Switch struct {
	aborted atomic.Bool
	once    sync.Once
}

func New() *Switch {
	return &Switch{}
}

// Trigger sets the abort flag. Idempotent; the operator notice prints once.
func (s *Switch) Trigger() {
	s.once.Do(func() {
		s.aborted.Store(true)
		log.Printf("[ABORT] Emergency stop triggered")
	})
}

// Aborted reports whether the emergency stop has been triggered.
func (s *Switch) Aborted() bool {
	return s.aborted.Load()
}

// Check returns ErrAborted when the flag is set. Call it immediately before
// every blocking wait, network call, or UI action.
func (s *Switch) Check() error {
	if s.aborted.Load() {
		return ErrAborted
	}
	return nil
}
