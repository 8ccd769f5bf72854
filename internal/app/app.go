package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/collabspace-server/internal/auth"
	"github.com/vovakirdan/collabspace-server/internal/callengine"
	"github.com/vovakirdan/collabspace-server/internal/callengine/livekit"
	"github.com/vovakirdan/collabspace-server/internal/config"
	"github.com/vovakirdan/collabspace-server/internal/core"
	"github.com/vovakirdan/collabspace-server/internal/service/calls"
	"github.com/vovakirdan/collabspace-server/internal/service/friends"
	"github.com/vovakirdan/collabspace-server/internal/service/workspaces"
	"github.com/vovakirdan/collabspace-server/internal/store"
	"github.com/vovakirdan/collabspace-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/collabspace-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	})

	presence := core.NewPresence(logger)
	hub := core.NewHub(presence, logger)

	var engine callengine.Engine
	if cfg.LiveKit.Enabled() {
		engine = livekit.New(cfg.LiveKit.APIKey, cfg.LiveKit.APISecret, cfg.LiveKit.URL)
		logger.Info().Str("url", cfg.LiveKit.URL).Msg("livekit voice enabled")
	} else {
		logger.Info().Msg("livekit voice disabled")
	}

	server := transporthttp.NewServer(hub, transporthttp.Services{
		Auth:       authService,
		Friends:    friends.New(st, presence),
		Workspaces: workspaces.New(st, hub, presence, logger),
		Calls:      calls.New(st, engine, logger),
	}, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		a.hub.Run(hubCtx)
		close(hubDone)
	}()

	serverErr := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	var runErr error
	select {
	case runErr = <-serverErr:
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		// Hijacked WebSocket connections are not tracked by Shutdown; stopping
		// the hub closes their event queues so their handlers return.
		stopHub()
		runErr = a.server.Shutdown(shutdownCtx)
		if err := <-serverErr; runErr == nil {
			runErr = err
		}
	}

	stopHub()
	<-hubDone
	a.cleanup()
	return runErr
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
