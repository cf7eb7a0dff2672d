// Package web provides the soundscape dashboard API.
//
// Routes:
//
//	GET  /api/scene      absolute scene
//	GET  /api/perceived  scene as heard by the listener
//	GET  /api/listener   listener pose
//	PUT  /api/listener   set the listener pose manually
//	GET  /api/session    head tracking session state
//	POST /api/offer      WebRTC SDP offer, answered when a receiver is wired
//	GET  /ws/scene       live perceived scenes
package web

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/pion/webrtc/v3"

	"github.com/teslashibe/go-soundscape/pkg/hub"
	"github.com/teslashibe/go-soundscape/pkg/session"
	"github.com/teslashibe/go-soundscape/pkg/soundscape"
)

// Source is the running soundscape the dashboard shows.
// *stream.Controller implements it.
type Source interface {
	Soundscape() (*soundscape.Soundscape, bool)
	Session() *session.Session
}

// OfferHandler answers WebRTC offers. *stream.Receiver implements it.
type OfferHandler interface {
	HandleOffer(offer webrtc.SessionDescription) (webrtc.SessionDescription, error)
}

// Server is the dashboard server.
type Server struct {
	app    *fiber.App
	port   int
	logger *slog.Logger

	source   Source
	offers   OfferHandler
	sceneHub *hub.Hub
}

// Option configures a Server.
type Option func(*Server)

// WithOfferHandler enables POST /api/offer.
func WithOfferHandler(h OfferHandler) Option {
	return func(s *Server) {
		s.offers = h
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a dashboard server. sceneHub carries perceived scenes
// to WebSocket clients; the server runs it.
func NewServer(port int, source Source, sceneHub *hub.Hub, opts ...Option) *Server {
	s := &Server{
		port:     port,
		logger:   slog.Default(),
		source:   source,
		sceneHub: sceneHub,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "web")

	app := fiber.New(fiber.Config{
		AppName:               "Soundscape Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/scene", s.handleScene)
	api.Get("/perceived", s.handlePerceived)
	api.Get("/listener", s.handleGetListener)
	api.Put("/listener", s.handlePutListener)
	api.Get("/session", s.handleSession)
	api.Post("/offer", s.handleOffer)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/scene", websocket.New(s.handleSceneWS))

	s.app = app
	return s
}

// Start runs the scene hub and serves until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("web dashboard listening", "url", fmt.Sprintf("http://localhost:%d", s.port))

	go s.sceneHub.Run()

	return s.app.Listen(fmt.Sprintf(":%d", s.port))
}

// StartAsync starts the web server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Warn("web server error", "error", err)
		}
	}()
}

// Shutdown stops the server and the scene hub.
func (s *Server) Shutdown(ctx context.Context) error {
	s.sceneHub.Stop()
	return s.app.ShutdownWithContext(ctx)
}

// SceneHub returns the hub feeding /ws/scene.
func (s *Server) SceneHub() *hub.Hub {
	return s.sceneHub
}
