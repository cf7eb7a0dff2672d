package stream

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3"
)

// SpatialObjectsLabel is the data channel carrying the renderer's spatial
// objects as a JSON array.
const SpatialObjectsLabel = "spatial-objects"

// ReceiverConfig configures a WebRTC receiver.
type ReceiverConfig struct {
	// ICEServers are STUN/TURN URLs, e.g. "stun:stun.l.google.com:19302".
	ICEServers []string `yaml:"ice_servers" json:"ice_servers"`
}

// Receiver is a receive-only WebRTC peer carrying spatial audio. The
// connection reaching connected reports playing; the first message on the
// spatial-objects data channel reports the initial scene.
type Receiver struct {
	pc     *webrtc.PeerConnection
	events Events
	probe  *SceneProbe
	logger *slog.Logger

	playing   atomic.Bool
	packets   atomic.Int64
	bytes     atomic.Int64
	closeOnce sync.Once
	closeErr  error
}

// NewReceiver creates the peer connection. Signalling is done by the
// caller through HandleOffer.
func NewReceiver(cfg ReceiverConfig, events Events, logger *slog.Logger) (*Receiver, error) {
	if logger == nil {
		logger = slog.Default()
	}

	config := webrtc.Configuration{}
	if len(cfg.ICEServers) > 0 {
		config.ICEServers = []webrtc.ICEServer{{URLs: cfg.ICEServers}}
	}

	pc, err := webrtc.NewPeerConnection(config)
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}

	if _, err = pc.AddTransceiverFromKind(webrtc.RTPCodecTypeAudio, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionRecvonly,
	}); err != nil {
		pc.Close()
		return nil, fmt.Errorf("add audio transceiver: %w", err)
	}

	r := &Receiver{
		pc:     pc,
		events: events,
		probe:  NewSceneProbe(events),
		logger: logger.With("component", "stream.receiver"),
	}

	pc.OnConnectionStateChange(r.handleConnectionState)

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		if dc.Label() != SpatialObjectsLabel {
			r.logger.Debug("ignoring data channel", "label", dc.Label())
			return
		}
		dc.OnMessage(func(msg webrtc.DataChannelMessage) {
			r.handleSpatialObjects(msg.Data)
		})
	})

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		r.logger.Info("got track", "kind", track.Kind(), "codec", track.Codec().MimeType)
		if track.Kind() == webrtc.RTPCodecTypeAudio {
			go r.drain(track)
		}
	})

	return r, nil
}

func (r *Receiver) handleConnectionState(state webrtc.PeerConnectionState) {
	r.logger.Info("connection state", "state", state.String())

	switch state {
	case webrtc.PeerConnectionStateConnected:
		if r.playing.CompareAndSwap(false, true) {
			r.events.PipelinePlaying()
		}
	case webrtc.PeerConnectionStateFailed:
		r.logger.Warn("peer connection failed")
	}
}

func (r *Receiver) handleSpatialObjects(data []byte) {
	fired, err := r.probe.FireObjects(data)
	if err != nil {
		r.logger.Warn("bad spatial objects message", "error", err)
		return
	}
	if fired {
		r.logger.Info("initial scene received")
	}
}

// drain consumes the remote audio track. Decoding and spatial rendering
// happen downstream of this process.
func (r *Receiver) drain(track *webrtc.TrackRemote) {
	buf := make([]byte, 1500)
	for {
		n, _, err := track.Read(buf)
		if err != nil {
			r.logger.Debug("audio track ended", "error", err)
			return
		}

		var pkt rtp.Packet
		if err := pkt.Unmarshal(buf[:n]); err != nil {
			continue
		}
		if r.packets.Add(1) == 1 {
			r.logger.Debug("first audio packet",
				"ssrc", pkt.SSRC,
				"payload_type", pkt.PayloadType,
			)
		}
		r.bytes.Add(int64(len(pkt.Payload)))
	}
}

// HandleOffer applies a remote SDP offer and returns the answer once ICE
// gathering is complete.
func (r *Receiver) HandleOffer(offer webrtc.SessionDescription) (webrtc.SessionDescription, error) {
	if err := r.pc.SetRemoteDescription(offer); err != nil {
		return webrtc.SessionDescription{}, fmt.Errorf("set remote description: %w", err)
	}

	answer, err := r.pc.CreateAnswer(nil)
	if err != nil {
		return webrtc.SessionDescription{}, fmt.Errorf("create answer: %w", err)
	}

	gatherComplete := webrtc.GatheringCompletePromise(r.pc)
	if err := r.pc.SetLocalDescription(answer); err != nil {
		return webrtc.SessionDescription{}, fmt.Errorf("set local description: %w", err)
	}
	<-gatherComplete

	return *r.pc.LocalDescription(), nil
}

// Play is a no-op: the remote peer drives the connection.
func (r *Receiver) Play(ctx context.Context) error {
	if r.pc.ConnectionState() == webrtc.PeerConnectionStateClosed {
		return ErrPipelineClosed
	}
	return ctx.Err()
}

// Packets returns the number of audio RTP packets received.
func (r *Receiver) Packets() int64 {
	return r.packets.Load()
}

// Bytes returns the number of audio payload bytes received.
func (r *Receiver) Bytes() int64 {
	return r.bytes.Load()
}

// Close closes the peer connection.
func (r *Receiver) Close() error {
	r.closeOnce.Do(func() {
		r.closeErr = r.pc.Close()
	})
	return r.closeErr
}
