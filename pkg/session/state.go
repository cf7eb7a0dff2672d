package session

// State is the lifecycle state of the sampling goroutine.
type State int32

const (
	// StateIdle is the state before the goroutine runs.
	StateIdle State = iota
	// StateWaitingForStart means the goroutine waits on the start gate.
	StateWaitingForStart
	// StateSampling means the tracker is running and being polled.
	StateSampling
	// StateStopped is terminal.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaitingForStart:
		return "waiting_for_start"
	case StateSampling:
		return "sampling"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
