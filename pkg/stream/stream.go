// Package stream connects a media pipeline to a head tracking session.
//
// A pipeline reports two readiness signals through Events: that it is
// playing, and the initial scene found at its spatial renderer. The
// Controller waits for both (via the session), builds the soundscape from
// the initial scene and then applies head orientation samples to it.
package stream

import (
	"context"
	"errors"

	"github.com/teslashibe/go-soundscape/pkg/spatial"
)

// ErrSessionClosed is returned by Controller.Run when the session closes
// before the pipeline became ready.
var ErrSessionClosed = errors.New("stream: session closed before start")

// ErrAlreadyRunning is returned by Controller.Run after the first call.
var ErrAlreadyRunning = errors.New("stream: controller already running")

// ErrPipelineClosed is returned when playing a closed pipeline.
var ErrPipelineClosed = errors.New("stream: pipeline closed")

// Events receives pipeline readiness signals. *session.Session
// implements it.
type Events interface {
	PipelinePlaying()
	SceneCaptured(scene spatial.Scene)
}

// Pipeline is a media pipeline carrying spatialized audio.
type Pipeline interface {
	// Play starts the pipeline. Readiness is reported through Events.
	Play(ctx context.Context) error

	// Close tears the pipeline down. It is safe to call multiple times.
	Close() error
}
