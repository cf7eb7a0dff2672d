package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-soundscape/pkg/session"
	"github.com/teslashibe/go-soundscape/pkg/soundscape"
	"github.com/teslashibe/go-soundscape/pkg/spatial"
)

// Controller runs one pipeline with one head tracking session.
type Controller struct {
	pipeline Pipeline
	session  *session.Session
	listener spatial.Listener
	renderer spatial.Renderer
	logger   *slog.Logger

	started    atomic.Bool
	mu         sync.RWMutex
	soundscape *soundscape.Soundscape
	ready      chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithControllerLogger sets the controller logger.
func WithControllerLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewController binds pipeline and sess. The pipeline must report its
// readiness to sess. listener is the initial listener pose.
func NewController(pipeline Pipeline, sess *session.Session, listener spatial.Listener, renderer spatial.Renderer, opts ...ControllerOption) *Controller {
	c := &Controller{
		pipeline: pipeline,
		session:  sess,
		listener: listener,
		renderer: renderer,
		logger:   slog.Default(),
		ready:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run plays the pipeline, waits for the initial scene, and applies head
// orientation samples to the soundscape until ctx is done. If the sample
// stream ends first the scene stays rendered from the last pose.
// Run may be called once; later calls return ErrAlreadyRunning.
func (c *Controller) Run(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	if err := c.pipeline.Play(ctx); err != nil {
		return fmt.Errorf("play pipeline: %w", err)
	}

	if c.session.HeadTracking() {
		c.logger.Info("playing, head tracking is on", "session_id", c.session.ID())
	} else {
		c.logger.Info("playing, head tracking is off", "session_id", c.session.ID())
	}

	var scene spatial.Scene
	select {
	case s, ok := <-c.session.InitialScene():
		if !ok {
			return ErrSessionClosed
		}
		scene = s
	case <-ctx.Done():
		return nil
	}

	ss := soundscape.New(scene, c.listener, c.renderer, soundscape.WithLogger(c.logger))
	c.mu.Lock()
	c.soundscape = ss
	close(c.ready)
	c.mu.Unlock()

	c.logger.Info("soundscape ready", "sources", scene.Len())

	if err := ss.Apply(ctx, c.session.Samples()); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	}

	c.logger.Info("head tracking ended, keeping last pose")
	<-ctx.Done()
	return nil
}

// Ready is closed once the soundscape exists.
func (c *Controller) Ready() <-chan struct{} {
	return c.ready
}

// Soundscape returns the soundscape once the pipeline is ready.
func (c *Controller) Soundscape() (*soundscape.Soundscape, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.soundscape, c.soundscape != nil
}

// Session returns the head tracking session.
func (c *Controller) Session() *session.Session {
	return c.session
}

// Close ends the session and the pipeline. It is safe to call multiple
// times.
func (c *Controller) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = errors.Join(c.session.Close(), c.pipeline.Close())
	})
	return c.closeErr
}
