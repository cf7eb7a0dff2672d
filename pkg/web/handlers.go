package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/pion/webrtc/v3"

	"github.com/teslashibe/go-soundscape/pkg/headtracking"
	"github.com/teslashibe/go-soundscape/pkg/hub"
	"github.com/teslashibe/go-soundscape/pkg/render"
	"github.com/teslashibe/go-soundscape/pkg/space"
	"github.com/teslashibe/go-soundscape/pkg/spatial"
)

var errNotReady = errors.New("soundscape not ready")

// Pose is the JSON view of an orientation.
type Pose struct {
	W     float64 `json:"w"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// ListenerView is the JSON view of the listener.
type ListenerView struct {
	Location    [3]float64 `json:"location"`
	Orientation Pose       `json:"orientation"`
}

// ListenerRequest sets the listener pose. Omitted fields keep their
// current value. Orientation accepts a quaternion or Euler degrees.
type ListenerRequest struct {
	Location    *[3]float64          `json:"location"`
	Orientation *headtracking.Sample `json:"orientation"`
}

// SessionView is the JSON view of the head tracking session.
type SessionView struct {
	ID           string `json:"id"`
	State        string `json:"state"`
	Gate         string `json:"gate"`
	HeadTracking bool   `json:"head_tracking"`
	Samples      int64  `json:"samples"`
	Renders      int64  `json:"renders"`
	Ready        bool   `json:"ready"`
}

func newListenerView(l spatial.Listener) ListenerView {
	loc := l.Location()
	o := l.Orientation()
	w, x, y, z := o.Components()
	roll, pitch, yaw := o.Euler()
	return ListenerView{
		Location: [3]float64{loc[0], loc[1], loc[2]},
		Orientation: Pose{
			W: w, X: x, Y: y, Z: z,
			Roll:  space.Degrees(roll),
			Pitch: space.Degrees(pitch),
			Yaw:   space.Degrees(yaw),
		},
	}
}

func notReady(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": errNotReady.Error(),
	})
}

// handleScene returns the absolute scene
func (s *Server) handleScene(c *fiber.Ctx) error {
	ss, ok := s.source.Soundscape()
	if !ok {
		return notReady(c)
	}
	return c.JSON(render.SceneFrame{Seq: ss.Renders(), Objects: ss.Scene().SpatialObjects()})
}

// handlePerceived returns the last rendered scene
func (s *Server) handlePerceived(c *fiber.Ctx) error {
	ss, ok := s.source.Soundscape()
	if !ok {
		return notReady(c)
	}
	return c.JSON(render.SceneFrame{Seq: ss.Renders(), Objects: ss.PerceivedScene().SpatialObjects()})
}

func (s *Server) handleGetListener(c *fiber.Ctx) error {
	ss, ok := s.source.Soundscape()
	if !ok {
		return notReady(c)
	}
	return c.JSON(newListenerView(ss.Listener()))
}

// handlePutListener moves or turns the listener and re-renders
func (s *Server) handlePutListener(c *fiber.Ctx) error {
	ss, ok := s.source.Soundscape()
	if !ok {
		return notReady(c)
	}

	var req ListenerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid listener request: " + err.Error(),
		})
	}

	var orientation *space.Orientation
	if req.Orientation != nil {
		o, err := req.Orientation.Orientation()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		orientation = &o
	}

	listener := ss.Update(func(l spatial.Listener) spatial.Listener {
		if req.Location != nil {
			l = l.WithLocation(space.Point3(*req.Location))
		}
		if orientation != nil {
			l = l.WithOrientation(*orientation)
		}
		return l
	})
	s.logger.Info("listener set from dashboard", "location", listener.Location())

	return c.JSON(newListenerView(listener))
}

func (s *Server) handleSession(c *fiber.Ctx) error {
	sess := s.source.Session()
	view := SessionView{
		ID:           sess.ID(),
		State:        sess.State().String(),
		Gate:         sess.Gate().String(),
		HeadTracking: sess.HeadTracking(),
		Samples:      sess.Delivered(),
	}
	if ss, ok := s.source.Soundscape(); ok {
		view.Ready = true
		view.Renders = ss.Renders()
	}
	return c.JSON(view)
}

// handleOffer answers a WebRTC offer
func (s *Server) handleOffer(c *fiber.Ctx) error {
	if s.offers == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{
			"error": "WebRTC receiver not configured",
		})
	}

	var offer webrtc.SessionDescription
	if err := c.BodyParser(&offer); err != nil || offer.Type != webrtc.SDPTypeOffer {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "expected an SDP offer",
		})
	}

	answer, err := s.offers.HandleOffer(offer)
	if err != nil {
		s.logger.Warn("offer rejected", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(answer)
}

// handleSceneWS streams perceived scenes
func (s *Server) handleSceneWS(c *websocket.Conn) {
	hub.NewClient(s.sceneHub, c).Run()
}
