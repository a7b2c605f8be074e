package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/config"
	applog "github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/log"
)

// Version is set at build time with -ldflags "-X main.Version=v1.2.3".
var Version = "dev"

var (
	flagConfig   string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Real-time location tracking and WebRTC signaling server",
	Long: `tracker runs the room-scoped presence hub: devices report their location over a
websocket, everyone in the same room sees the live device list, and audio peers
negotiate WebRTC calls through the signaling relay.

Running tracker without a subcommand starts the server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file (default ./config.yaml or $TRACKER_CONFIG_DEFAULT_PATH/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	addServeFlags(rootCmd)
}

// loadConfig resolves configuration and builds the logger at the configured level.
func loadConfig() (*config.Config, *zerolog.Logger, error) {
	bootstrap := applog.New("info")
	cfg, path, err := config.Load(bootstrap, flagConfig)
	if err != nil {
		return nil, nil, err
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}

	logger := applog.New(cfg.LogLevel)
	logger.Debug().Str("config_path", path).Msg("configuration loaded")
	return &cfg, logger, nil
}
