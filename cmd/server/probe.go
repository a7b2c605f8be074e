package main

import (
	"fmt"
	"time"

	pion "github.com/pion/webrtc/v4"
	"github.com/spf13/cobra"

	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/config"
	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/probe"
)

var (
	flagProbeURL      string
	flagProbeRoom     string
	flagProbeTimeout  time.Duration
	flagProbeLoopback bool
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Negotiate a WebRTC data channel through a running server",
	Long: `Open two websocket connections, join them to a room, enter audio and complete an
offer/answer/ICE exchange through the signaling relay. Succeeds once a data
channel message crosses between the two peers.

Examples:
  tracker probe
  tracker probe --url wss://tracker.example.com/ws --timeout 30s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		url := flagProbeURL
		if url == "" {
			url = probe.WebSocketURL(localURL(cfg))
		}

		report, err := probe.Run(cmd.Context(), probe.Options{
			URL:        url,
			Room:       flagProbeRoom,
			Timeout:    flagProbeTimeout,
			ICEServers: iceServers(cfg.ICEServers),
			Loopback:   flagProbeLoopback,
			Logger:     logger,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "data channel open in room %s after %s (%s -> %s, %d candidates relayed)\n",
			report.Room, report.Elapsed.Round(time.Millisecond), report.Offerer, report.Answerer, report.Candidates)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().StringVar(&flagProbeURL, "url", "", "websocket endpoint (default derived from addr)")
	probeCmd.Flags().StringVar(&flagProbeRoom, "room", "", "room to probe in (default random)")
	probeCmd.Flags().DurationVar(&flagProbeTimeout, "timeout", 20*time.Second, "overall probe timeout")
	probeCmd.Flags().BoolVar(&flagProbeLoopback, "loopback", true, "allow loopback ICE candidates")
}

func iceServers(servers []config.ICEServer) []pion.ICEServer {
	out := make([]pion.ICEServer, 0, len(servers))
	for _, s := range servers {
		out = append(out, pion.ICEServer{
			URLs:       s.URLs,
			Username:   s.Username,
			Credential: s.Credential,
		})
	}
	return out
}
