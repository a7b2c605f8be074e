package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/admin"
	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/config"
)

var (
	flagServer string
	flagToken  string
	flagLimit  int
)

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "Show live rooms of a running server",
	Long: `Show member, device and audio counts per room.

When --token is empty and operator_secret is configured, a short-lived token is
minted locally.

Examples:
  tracker rooms
  tracker rooms --server https://tracker.example.com --token $TOKEN`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := adminClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		rooms, err := client.Rooms(ctx)
		if err != nil {
			return err
		}
		admin.RenderRooms(cmd.OutOrStdout(), rooms)
		return nil
	},
}

var alertsCmd = &cobra.Command{
	Use:   "alerts ROOM",
	Short: "Show journaled SOS alerts of a room",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := adminClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		alerts, err := client.Alerts(ctx, args[0], flagLimit)
		if err != nil {
			return err
		}
		admin.RenderAlerts(cmd.OutOrStdout(), alerts)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(roomsCmd)
	roomsCmd.AddCommand(alertsCmd)

	roomsCmd.PersistentFlags().StringVarP(&flagServer, "server", "s", "", "server base URL (default derived from addr)")
	roomsCmd.PersistentFlags().StringVarP(&flagToken, "token", "t", "", "operator bearer token")
	alertsCmd.Flags().IntVarP(&flagLimit, "limit", "n", 0, "number of alerts to show")
}

func adminClient() (*admin.Client, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}

	token := flagToken
	if token == "" && cfg.OperatorSecret != "" {
		token, err = mintToken(cfg, "cli", 5*time.Minute)
		if err != nil {
			return nil, err
		}
	}

	server := flagServer
	if server == "" {
		server = localURL(cfg)
	}
	return admin.NewClient(server, token, nil), nil
}

// localURL points at the configured listen address on this host.
func localURL(cfg *config.Config) string {
	addr := cfg.Addr
	if len(addr) > 0 && addr[0] == ':' {
		addr = "localhost" + addr
	}
	return "http://" + addr
}
