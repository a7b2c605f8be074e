package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/auth"
	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/config"
)

var (
	flagOperator string
	flagTTL      time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an operator token for the admin API",
	Long: `Mint a bearer token for /api/rooms and /api/rooms/:room/alerts, signed with
operator_secret from the configuration.

Examples:
  tracker token --operator alice
  TRACKER_OPERATOR_SECRET=... tracker token --ttl 1h`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		token, err := mintToken(cfg, flagOperator, flagTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().StringVar(&flagOperator, "operator", "cli", "operator name recorded in the token")
	tokenCmd.Flags().DurationVar(&flagTTL, "ttl", 0, "token lifetime (default operator_ttl)")
}

func operatorJWT(cfg *config.Config, ttl time.Duration) *auth.JWTConfig {
	if ttl <= 0 {
		ttl = cfg.OperatorTTL
	}
	return &auth.JWTConfig{
		Secret: []byte(cfg.OperatorSecret),
		Issuer: cfg.OperatorIssuer,
		TTL:    ttl,
	}
}

func mintToken(cfg *config.Config, operator string, ttl time.Duration) (string, error) {
	token, err := auth.GenerateToken(operatorJWT(cfg, ttl), operator)
	if err != nil {
		return "", fmt.Errorf("mint token: %w", err)
	}
	return token, nil
}
