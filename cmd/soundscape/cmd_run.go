package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-soundscape/internal/config"
	"github.com/teslashibe/go-soundscape/internal/log"
	"github.com/teslashibe/go-soundscape/pkg/headtracking"
	"github.com/teslashibe/go-soundscape/pkg/hub"
	"github.com/teslashibe/go-soundscape/pkg/render"
	"github.com/teslashibe/go-soundscape/pkg/session"
	"github.com/teslashibe/go-soundscape/pkg/spatial"
	"github.com/teslashibe/go-soundscape/pkg/stream"
	"github.com/teslashibe/go-soundscape/pkg/web"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the soundscape until interrupted",
		Long: `run plays the configured pipeline, waits for the initial scene and
then follows the head tracker until interrupted.

With pipeline "webrtc" the scene arrives from a remote peer: POST its SDP
offer to /api/offer on the dashboard.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if tracker, _ := cmd.Flags().GetString("tracker"); tracker != "" {
				cfg.HeadTracking.Backend = headtracking.Backend(tracker)
			}
			if port, _ := cmd.Flags().GetInt("port"); cmd.Flags().Changed("port") {
				cfg.Web.Port = port
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return runSoundscape(ctx, cfg, log.Component("soundscape"))
		},
	}

	cmd.Flags().String("tracker", "", "Head tracker backend: auto, mqtt, websocket, mock, none")
	cmd.Flags().Int("port", 0, "Dashboard port, 0 disables the dashboard")
	return cmd
}

// app is one wired soundscape run.
type app struct {
	controller *stream.Controller
	receiver   *stream.Receiver
	server     *web.Server
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	tracker, err := headtracking.New(cfg.HeadTracking, logger)
	switch {
	case errors.Is(err, headtracking.ErrNotAvailable):
		logger.Info("no head tracker available, listener stays fixed")
		tracker = nil
	case err != nil:
		return nil, fmt.Errorf("head tracker: %w", err)
	}

	sess := session.New(tracker,
		session.WithPollInterval(cfg.Session.PollInterval),
		session.WithLogger(logger),
	)

	a := &app{}
	var pipeline stream.Pipeline
	switch cfg.Pipeline {
	case config.PipelineWebRTC:
		a.receiver, err = stream.NewReceiver(cfg.WebRTC, sess, logger)
		if err != nil {
			sess.Close()
			return nil, err
		}
		pipeline = a.receiver
	default:
		pipeline = stream.NewLocalPipeline(cfg.SceneModel(), sess, logger)
	}

	renderers := []spatial.Renderer{render.Log(logger, slog.LevelDebug)}
	var sceneHub *hub.Hub
	if cfg.Web.Port > 0 {
		sceneHub = hub.New("scene", logger)
		renderers = append(renderers, render.NewHub(sceneHub).Renderer(logger))
	}

	a.controller = stream.NewController(pipeline, sess, cfg.ListenerModel(), render.Multi(renderers...),
		stream.WithControllerLogger(logger),
	)

	if sceneHub != nil {
		opts := []web.Option{web.WithLogger(logger)}
		if a.receiver != nil {
			opts = append(opts, web.WithOfferHandler(a.receiver))
		}
		a.server = web.NewServer(cfg.Web.Port, a.controller, sceneHub, opts...)
	}
	return a, nil
}

func (a *app) run(ctx context.Context) error {
	if a.server != nil {
		a.server.StartAsync()
	}
	return a.controller.Run(ctx)
}

func (a *app) close() error {
	err := a.controller.Close()
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = errors.Join(err, a.server.Shutdown(ctx))
	}
	return err
}

func runSoundscape(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(); err != nil {
			logger.Warn("shutdown", "error", err)
		}
	}()

	logger.Info("soundscape starting",
		"pipeline", cfg.Pipeline,
		"tracker", cfg.HeadTracking.Resolve(),
		"sources", len(cfg.Scene),
	)
	return a.run(ctx)
}
