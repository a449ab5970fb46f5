// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

// Command sdctl runs one-off SignalDesk operations against the configured
// store: cache warming, intelligence runs, user and token management.
//
//	sdctl warm-cache
//	sdctl run-intelligence --org 5c1d... --realtime
//	sdctl create-user --user alice --role editor
//	sdctl token --user alice --role editor
//	sdctl hash-password
//
// Configuration is read exactly as the server reads it.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/signaldesk/signaldesk/internal/config"
	"github.com/signaldesk/signaldesk/internal/logging"
)

var (
	cfg        *config.Config
	logLevel   string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:           "sdctl",
	Short:         "SignalDesk operations tool",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logging.Init(logging.Config{Level: logLevel, Format: "console", Output: os.Stderr})
		if cmd.Annotations["config"] == "skip" {
			return nil
		}
		var err error
		cfg, err = config.Load()
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")

	rootCmd.AddCommand(warmCacheCmd, runIntelligenceCmd, createUserCmd, tokenCmd, hashPasswordCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logging.Error().Err(err).Msg("sdctl failed")
		stop()
		os.Exit(1)
	}
}
