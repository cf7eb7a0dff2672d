package session

import "sync"

// GateState is the resolution of a StartGate.
type GateState int

const (
	// GatePending means neither Start nor Abort has been called.
	GatePending GateState = iota
	// GateStarted means the gate opened for sampling.
	GateStarted
	// GateAborted means the session shut down before it started.
	GateAborted
)

func (s GateState) String() string {
	switch s {
	case GatePending:
		return "pending"
	case GateStarted:
		return "started"
	case GateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// StartGate is a one-shot signal resolved exactly once, either to started
// or to aborted. The first resolution wins.
type StartGate struct {
	mu    sync.Mutex
	state GateState
	done  chan struct{}
}

// NewStartGate creates a pending gate.
func NewStartGate() *StartGate {
	return &StartGate{done: make(chan struct{})}
}

// Start opens the gate. It reports whether this call resolved it.
func (g *StartGate) Start() bool {
	return g.resolve(GateStarted)
}

// Abort cancels the gate. It reports whether this call resolved it.
func (g *StartGate) Abort() bool {
	return g.resolve(GateAborted)
}

func (g *StartGate) resolve(to GateState) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != GatePending {
		return false
	}
	g.state = to
	close(g.done)
	return true
}

// State returns the current state without blocking.
func (g *StartGate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Wait blocks until the gate is resolved and returns the resolution.
func (g *StartGate) Wait() GateState {
	<-g.done
	return g.State()
}

// Done is closed once the gate is resolved.
func (g *StartGate) Done() <-chan struct{} {
	return g.done
}
