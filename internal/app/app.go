package app

import (
	"context"
	"fmt"
	"net"
	stdhttp "net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/config"
	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/core"
	applog "github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/log"
	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/store"
	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/store/sqlite"
	transporthttp "github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *transporthttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.AlertStore
	journal         *store.Journal
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	if logger == nil {
		logger = applog.Nop()
	}
	if applog.ParseLevel(cfg.LogLevel) != zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	a := &App{
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             logger,
	}

	// The interface values stay nil unless the journal is enabled.
	var (
		alerts   store.AlertStore
		recorder core.AlertRecorder
	)
	if cfg.JournalPath != "" {
		st, err := sqlite.New(cfg.JournalPath)
		if err != nil {
			return nil, fmt.Errorf("init alert journal: %w", err)
		}
		logger.Info().Str("journal_path", cfg.JournalPath).Msg("alert journal initialized")

		a.store = st
		a.journal = store.NewJournal(st, 0, applog.Module(logger, "journal"))
		alerts = st
		recorder = a.journal
	}

	a.hub = core.NewHub(core.HubConfig{
		DefaultRoom: cfg.DefaultRoom,
		Logger:      applog.Module(logger, "hub"),
		Alerts:      recorder,
	})
	a.server = transporthttp.NewServer(a.hub, alerts, cfg, applog.Module(logger, "http"))

	return a, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	// websocket sessions derive from ctx, so cancellation closes them before Shutdown
	a.server.BaseContext = func(net.Listener) context.Context { return ctx }

	journalCtx, stopJournal := context.WithCancel(context.Background())
	var journalDone sync.WaitGroup
	if a.journal != nil {
		journalDone.Add(1)
		go func() {
			defer journalDone.Done()
			a.journal.Run(journalCtx)
		}()
	}

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.server.StopBackground()
		a.cleanup(stopJournal, &journalDone)
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup(stopJournal, &journalDone)
			return err
		}

		a.cleanup(stopJournal, &journalDone)
		return <-serverErr
	}
}

// cleanup drains the journal, then closes the store.
func (a *App) cleanup(stopJournal context.CancelFunc, journalDone *sync.WaitGroup) {
	stopJournal()
	journalDone.Wait()

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
