package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/app"
)

var (
	flagAddr            string
	flagDefaultRoom     string
	flagJournalPath     string
	flagShutdownTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tracker server",
	Long: `Start the HTTP server with the websocket endpoint (/ws) and the REST API.

Examples:
  tracker serve
  tracker serve --addr :8080 --journal ./alerts.db
  PORT=8080 tracker`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addServeFlags(serveCmd)
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagAddr, "addr", "", "HTTP listen address")
	cmd.Flags().StringVar(&flagDefaultRoom, "default-room", "", "room for connections that never joined one")
	cmd.Flags().StringVar(&flagJournalPath, "journal", "", "SQLite file for the SOS alert journal")
	cmd.Flags().DurationVar(&flagShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if flagAddr != "" {
		cfg.Addr = flagAddr
	}
	if flagDefaultRoom != "" {
		cfg.DefaultRoom = flagDefaultRoom
	}
	if flagJournalPath != "" {
		cfg.JournalPath = flagJournalPath
	}
	if flagShutdownTimeout > 0 {
		cfg.ShutdownTimeout = flagShutdownTimeout
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}

	logger.Info().Str("addr", cfg.Addr).Str("version", Version).Msg("starting tracker server")
	if err := application.Run(ctx); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
