package workflow

// State names a position in the run's lifecycle. Only the four terminal
// states escape Run; the rest are logged as the run moves through them.
type State int

const (
	StateIdle State = iota
	StateDetecting
	StateConfirming
	StateReady
	StateLaunching
	StatePasting
	StateSaving
	StateVerifying
	StateClosing

	// Terminal states.
	StateDone
	StateAborted
	StateDetectionFailed
	StateNoContent
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateDetecting:
		return "Detecting"
	case StateConfirming:
		return "ConfirmingDetection"
	case StateReady:
		return "Ready"
	case StateLaunching:
		return "Launching"
	case StatePasting:
		return "Pasting"
	case StateSaving:
		return "Saving"
	case StateVerifying:
		return "Verifying"
	case StateClosing:
		return "Closing"
	case StateDone:
		return "Done"
	case StateAborted:
		return "Aborted"
	case StateDetectionFailed:
		return "DetectionFailed"
	case StateNoContent:
		return "NoContent"
	}
	return "Unknown"
}

// Terminal reports whether the run ends in this state.
func (s State) Terminal() bool {
	switch s {
	case StateDone, StateAborted, StateDetectionFailed, StateNoContent:
		return true
	}
	return false
}
