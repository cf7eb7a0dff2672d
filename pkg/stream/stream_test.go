package stream

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pion/webrtc/v3"

	"github.com/teslashibe/go-soundscape/pkg/headtracking"
	"github.com/teslashibe/go-soundscape/pkg/render"
	"github.com/teslashibe/go-soundscape/pkg/session"
	"github.com/teslashibe/go-soundscape/pkg/space"
	"github.com/teslashibe/go-soundscape/pkg/spatial"
)

type recordingEvents struct {
	mu      sync.Mutex
	playing int
	scenes  []spatial.Scene
}

func (e *recordingEvents) PipelinePlaying() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playing++
}

func (e *recordingEvents) SceneCaptured(scene spatial.Scene) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scenes = append(e.scenes, scene)
}

func (e *recordingEvents) counts() (int, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing, len(e.scenes)
}

func demoScene() spatial.Scene {
	return spatial.NewScene(spatial.NewSource(space.Point3{-5, 0, 1}, spatial.WithDistanceGain(0.2)))
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSceneProbe_FiresOnce(t *testing.T) {
	events := &recordingEvents{}
	p := NewSceneProbe(events)

	if p.Fire(spatial.NewScene()) {
		t.Error("empty scene should not fire")
	}
	if !p.Active() {
		t.Error("probe should stay active after an empty scene")
	}
	if !p.Fire(demoScene()) {
		t.Error("first scene should fire")
	}
	if p.Fire(demoScene()) {
		t.Error("second scene should not fire")
	}
	if _, scenes := events.counts(); scenes != 1 {
		t.Errorf("captured scenes: got %d, want 1", scenes)
	}
}

func TestSceneProbe_FireObjects(t *testing.T) {
	events := &recordingEvents{}
	p := NewSceneProbe(events)

	if fired, err := p.FireObjects([]byte(`[]`)); fired || err != nil {
		t.Errorf("empty array: got fired=%v err=%v", fired, err)
	}
	if _, err := p.FireObjects([]byte(`{"x":1}`)); err == nil {
		t.Error("expected a decode error for a non-array payload")
	}

	fired, err := p.FireObjects([]byte(`[{"x":-5,"y":0,"z":1,"distance-gain":0.2}]`))
	if !fired || err != nil {
		t.Fatalf("got fired=%v err=%v", fired, err)
	}
	if !events.scenes[0].ApproxEqual(demoScene(), 1e-12) {
		t.Errorf("decoded scene: got %+v", events.scenes[0].SpatialObjects())
	}
}

func TestLocalPipeline(t *testing.T) {
	events := &recordingEvents{}
	p := NewLocalPipeline(demoScene(), events, nil)

	if err := p.Play(context.Background()); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if playing, scenes := events.counts(); playing != 1 || scenes != 1 {
		t.Errorf("events: playing=%d scenes=%d, want 1 and 1", playing, scenes)
	}

	p.Close()
	if err := p.Play(context.Background()); !errors.Is(err, ErrPipelineClosed) {
		t.Errorf("Play after Close: got %v, want ErrPipelineClosed", err)
	}
}

func TestLocalPipeline_EmptySceneWaitsForCapture(t *testing.T) {
	events := &recordingEvents{}
	p := NewLocalPipeline(spatial.NewScene(), events, nil)

	_ = p.Play(context.Background())
	if _, scenes := events.counts(); scenes != 0 {
		t.Fatal("empty preset should not be captured")
	}
	if !p.Capture(demoScene()) {
		t.Error("later capture should fire")
	}
}

func TestReceiver_Signals(t *testing.T) {
	events := &recordingEvents{}
	r, err := NewReceiver(ReceiverConfig{}, events, nil)
	if err != nil {
		t.Fatalf("NewReceiver failed: %v", err)
	}
	defer r.Close()

	r.handleConnectionState(webrtc.PeerConnectionStateConnecting)
	r.handleConnectionState(webrtc.PeerConnectionStateConnected)
	r.handleConnectionState(webrtc.PeerConnectionStateConnected)

	r.handleSpatialObjects([]byte(`not json`))
	r.handleSpatialObjects([]byte(`[]`))
	r.handleSpatialObjects([]byte(`[{"x":-5,"y":0,"z":1,"distance-gain":0.2}]`))
	r.handleSpatialObjects([]byte(`[{"x":1,"y":1,"z":1,"distance-gain":1}]`))

	playing, scenes := events.counts()
	if playing != 1 {
		t.Errorf("PipelinePlaying calls: got %d, want 1", playing)
	}
	if scenes != 1 {
		t.Errorf("SceneCaptured calls: got %d, want 1", scenes)
	}
}

func TestReceiver_HandleOffer(t *testing.T) {
	r, err := NewReceiver(ReceiverConfig{}, &recordingEvents{}, nil)
	if err != nil {
		t.Fatalf("NewReceiver failed: %v", err)
	}
	defer r.Close()

	offerer, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		t.Fatalf("offerer: %v", err)
	}
	defer offerer.Close()

	if _, err := offerer.CreateDataChannel(SpatialObjectsLabel, nil); err != nil {
		t.Fatalf("CreateDataChannel: %v", err)
	}
	offer, err := offerer.CreateOffer(nil)
	if err != nil {
		t.Fatalf("CreateOffer: %v", err)
	}
	if err := offerer.SetLocalDescription(offer); err != nil {
		t.Fatalf("SetLocalDescription: %v", err)
	}

	answer, err := r.HandleOffer(offer)
	if err != nil {
		t.Fatalf("HandleOffer failed: %v", err)
	}
	if answer.Type != webrtc.SDPTypeAnswer || answer.SDP == "" {
		t.Errorf("unexpected answer %v", answer.Type)
	}
}

func TestReceiver_HandleOfferRejectsGarbage(t *testing.T) {
	r, err := NewReceiver(ReceiverConfig{}, &recordingEvents{}, nil)
	if err != nil {
		t.Fatalf("NewReceiver failed: %v", err)
	}
	defer r.Close()

	_, err = r.HandleOffer(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "not sdp"})
	if err == nil {
		t.Error("expected an error for an invalid offer")
	}
}

func TestReceiver_CloseIdempotent(t *testing.T) {
	r, err := NewReceiver(ReceiverConfig{ICEServers: []string{"stun:127.0.0.1:3478"}}, &recordingEvents{}, nil)
	if err != nil {
		t.Fatalf("NewReceiver failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if err := r.Play(context.Background()); !errors.Is(err, ErrPipelineClosed) {
		t.Errorf("Play after Close: got %v, want ErrPipelineClosed", err)
	}
}

func TestController_AppliesHeadTracking(t *testing.T) {
	tracker := headtracking.NewMock(nil)
	sess := session.New(tracker, session.WithPollInterval(5*time.Millisecond))
	pipeline := NewLocalPipeline(demoScene(), sess, nil)
	rec := render.NewRecorder()
	listener := spatial.NewListener(space.Identity())

	c := NewController(pipeline, sess, listener, rec)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case <-c.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("controller never became ready")
	}
	if rec.Count() != 1 {
		t.Errorf("renders after ready: got %d, want 1", rec.Count())
	}

	turn := space.FromAxisAngle(space.AxisZ, 1.2)
	waitFor(t, "sampling", func() bool { return sess.State() == session.StateSampling })
	tracker.Push(turn)
	waitFor(t, "second render", func() bool { return rec.Count() == 2 })

	last, _ := rec.Last()
	want := spatial.NewListener(turn).PerceivedScene(demoScene())
	if !last.ApproxEqual(want, 1e-9) {
		t.Errorf("perceived: got %+v, want %+v", last.SpatialObjects(), want.SpatialObjects())
	}

	ss, ok := c.Soundscape()
	if !ok || ss.Renders() != 2 {
		t.Errorf("Soundscape: ok=%v renders=%d", ok, ss.Renders())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if err := c.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	_ = c.Close()
	if tracker.Stops() != 1 {
		t.Errorf("tracker Stops: got %d, want 1", tracker.Stops())
	}
}

func TestController_WithoutHeadTracking(t *testing.T) {
	sess := session.New(nil)
	pipeline := NewLocalPipeline(demoScene(), sess, nil)
	rec := render.NewRecorder()

	c := NewController(pipeline, sess, spatial.NewListener(space.Identity()), rec)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case <-c.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("controller never became ready")
	}
	waitFor(t, "session stop", func() bool { return sess.State() == session.StateStopped })

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned %v", err)
	}
	if rec.Count() != 1 {
		t.Errorf("static scene should render once, got %d", rec.Count())
	}
}

func TestController_RunTwice(t *testing.T) {
	sess := session.New(nil)
	pipeline := NewLocalPipeline(demoScene(), sess, nil)
	rec := render.NewRecorder()

	c := NewController(pipeline, sess, spatial.NewListener(space.Identity()), rec)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case <-c.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("controller never became ready")
	}

	if err := c.Run(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run: got %v, want ErrAlreadyRunning", err)
	}
	if rec.Count() != 1 {
		t.Errorf("second Run must not render, got %d renders", rec.Count())
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("first Run returned %v", err)
	}
}

type playedPipeline struct {
	Pipeline
	played chan struct{}
}

func (p *playedPipeline) Play(ctx context.Context) error {
	err := p.Pipeline.Play(ctx)
	close(p.played)
	return err
}

func TestController_CloseBeforeReady(t *testing.T) {
	tracker := headtracking.NewMock(nil)
	sess := session.New(tracker)
	// Playing is reported but the renderer never yields a scene.
	pipeline := &playedPipeline{
		Pipeline: NewLocalPipeline(spatial.NewScene(), sess, nil),
		played:   make(chan struct{}),
	}

	c := NewController(pipeline, sess, spatial.NewListener(space.Identity()), render.NewRecorder())

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	<-pipeline.played
	c.Close()

	select {
	case err := <-done:
		if !errors.Is(err, ErrSessionClosed) {
			t.Errorf("Run: got %v, want ErrSessionClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}
	if tracker.Starts() != 0 {
		t.Error("tracker must not start when the session closes first")
	}
}
