package headtracking

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-soundscape/pkg/space"
)

// Mock is a head tracker for testing and offline demos.
// It replays scripted samples, generates synthetic head motion, or
// returns samples pushed with Push.
type Mock struct {
	logger *slog.Logger

	mu        sync.Mutex
	started   bool
	stopped   bool
	startedAt time.Time
	script    []space.Orientation
	synthetic bool

	startErr   error
	blockStart bool

	stopCh   chan struct{}
	stopOnce sync.Once
	entered  chan struct{}
	enterOne sync.Once
	done     *doneSignal
	slot     latest

	// Stats
	starts atomic.Int64
	stops  atomic.Int64
	polls  atomic.Int64
}

// MockOption configures a Mock.
type MockOption func(*Mock)

// WithScript queues samples returned one per Poll after Start.
func WithScript(samples ...space.Orientation) MockOption {
	return func(m *Mock) {
		m.script = append(m.script, samples...)
	}
}

// WithSynthetic makes Poll return a slowly swaying head pose once the
// script is exhausted.
func WithSynthetic() MockOption {
	return func(m *Mock) {
		m.synthetic = true
	}
}

// WithStartError makes Start fail with err.
func WithStartError(err error) MockOption {
	return func(m *Mock) {
		m.startErr = err
	}
}

// WithBlockingStart makes Start block until Stop is called.
func WithBlockingStart() MockOption {
	return func(m *Mock) {
		m.blockStart = true
	}
}

// NewMock creates a new mock head tracker.
func NewMock(logger *slog.Logger, opts ...MockOption) *Mock {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Mock{
		logger:  logger,
		stopCh:  make(chan struct{}),
		entered: make(chan struct{}),
		done:    newDoneSignal(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Start begins motion updates.
func (m *Mock) Start() error {
	m.starts.Add(1)
	m.enterOne.Do(func() { close(m.entered) })

	if m.startErr != nil {
		return WrapError(m.Name(), m.startErr)
	}

	if m.blockStart {
		<-m.stopCh
		return WrapError(m.Name(), ErrStopped)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return WrapError(m.Name(), ErrStopped)
	}
	m.started = true
	m.startedAt = time.Now()

	m.logger.Info("mock head tracker started",
		"scripted", len(m.script),
		"synthetic", m.synthetic,
	)
	return nil
}

// Poll returns the next sample.
func (m *Mock) Poll() (space.Orientation, bool) {
	m.polls.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started || m.stopped || m.done.closed() {
		return space.Orientation{}, false
	}
	if o, ok := m.slot.take(); ok {
		return o, true
	}
	if len(m.script) > 0 {
		o := m.script[0]
		m.script = m.script[1:]
		return o, true
	}
	if m.synthetic {
		return syntheticPose(time.Since(m.startedAt).Seconds()), true
	}
	return space.Orientation{}, false
}

// Push queues o as the next sample, replacing any unread pushed sample.
func (m *Mock) Push(o space.Orientation) {
	m.slot.put(o)
}

// Stop ends motion updates and unblocks a blocked Start.
func (m *Mock) Stop() error {
	m.stops.Add(1)
	m.stopOnce.Do(func() {
		m.mu.Lock()
		m.stopped = true
		m.mu.Unlock()

		close(m.stopCh)
		m.done.close()
		m.logger.Info("mock head tracker stopped")
	})
	return nil
}

// Disconnect simulates the sensor going away without Stop.
func (m *Mock) Disconnect() {
	m.done.close()
}

// Done is closed on Stop or Disconnect.
func (m *Mock) Done() <-chan struct{} {
	return m.done.ch
}

// Name returns "mock".
func (m *Mock) Name() string {
	return "mock"
}

// Entered is closed once Start has been called.
func (m *Mock) Entered() <-chan struct{} {
	return m.entered
}

// Starts returns the number of Start calls.
func (m *Mock) Starts() int64 {
	return m.starts.Load()
}

// Stops returns the number of Stop calls.
func (m *Mock) Stops() int64 {
	return m.stops.Load()
}

// Polls returns the number of Poll calls.
func (m *Mock) Polls() int64 {
	return m.polls.Load()
}

// syntheticPose mirrors a listener looking around: a slow yaw sweep with
// small roll and pitch nods, angles in degrees.
func syntheticPose(elapsed float64) space.Orientation {
	roll := 10 * math.Sin(elapsed)
	pitch := 8 * math.Cos(elapsed*0.7)
	yaw := 45 * math.Sin(elapsed*0.3)
	return space.FromEuler(space.Radians(roll), space.Radians(pitch), space.Radians(yaw))
}
