// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/signaldesk/signaldesk/internal/auth"
	"github.com/signaldesk/signaldesk/internal/brandcache"
	"github.com/signaldesk/signaldesk/internal/database"
	"github.com/signaldesk/signaldesk/internal/intelligence"
	"github.com/signaldesk/signaldesk/internal/llm"
	"github.com/signaldesk/signaldesk/internal/models"
	"github.com/signaldesk/signaldesk/internal/opportunity"
	"github.com/signaldesk/signaldesk/internal/search"
	"github.com/signaldesk/signaldesk/internal/validation"
)

var validRoles = []string{models.RoleAdmin, models.RoleEditor, models.RoleViewer}

// =============================================================================
// warm-cache
// =============================================================================

var warmCacheCmd = &cobra.Command{
	Use:   "warm-cache",
	Short: "Build brand snapshots for every organization once",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := database.Open(cmd.Context(), &cfg.Database)
		if err != nil {
			return err
		}
		defer store.Close()

		warmer := brandcache.NewWarmer(store, cfg.CacheWarmer)
		defer warmer.Close()

		stats, err := warmer.WarmAll(cmd.Context())
		if err != nil {
			return err
		}
		return output(cmd.OutOrStdout(), stats, fmt.Sprintf("warmed %d/%d organizations (%d failed) in %s",
			stats.Warmed, stats.Organizations, stats.Failed, stats.Duration.Round(time.Millisecond)))
	},
}

// =============================================================================
// run-intelligence
// =============================================================================

var runFlags struct {
	org      string
	query    string
	sources  []string
	realtime bool
	detect   bool
}

var runIntelligenceCmd = &cobra.Command{
	Use:   "run-intelligence",
	Short: "Run one intelligence pass for an organization",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		store, err := database.Open(ctx, &cfg.Database)
		if err != nil {
			return err
		}
		defer store.Close()

		completer, err := llm.NewRegistryFromConfig(ctx, &cfg.LLM)
		if err != nil {
			return err
		}
		defer completer.Close()

		detector, err := opportunity.NewDetector(cfg.Opportunity)
		if err != nil {
			return err
		}
		orch := intelligence.New(store, search.NewRegistryFromConfig(&cfg.Search), completer, detector, cfg.Intelligence)

		var run *models.IntelligenceRun
		if runFlags.realtime {
			run, err = orch.RunRealtime(ctx, runFlags.org)
		} else {
			req := intelligence.RunRequest{
				OrganizationID: runFlags.org,
				Query:          runFlags.query,
				Sources:        runFlags.sources,
				Detect:         runFlags.detect,
			}
			if verr := validation.ValidateStruct(&req); verr != nil {
				return verr
			}
			run, err = orch.Run(ctx, req)
		}
		if err != nil {
			return err
		}

		summary := fmt.Sprintf("run %s %s: %d findings, %d opportunities, %d source errors",
			run.ID, run.Status, len(run.Findings), run.OpportunityCount, len(run.Errors))
		return output(cmd.OutOrStdout(), run, summary)
	},
}

// =============================================================================
// create-user
// =============================================================================

var userFlags struct {
	username string
	role     string
}

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a local account; the password is read from stdin",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := checkRole(userFlags.role); err != nil {
			return err
		}
		password, err := readPassword(cmd.InOrStdin())
		if err != nil {
			return err
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}

		store, err := database.Open(cmd.Context(), &cfg.Database)
		if err != nil {
			return err
		}
		defer store.Close()

		u := &models.User{Username: userFlags.username, PasswordHash: hash, Role: userFlags.role}
		if err := store.CreateUser(cmd.Context(), u); err != nil {
			if errors.Is(err, database.ErrConflict) {
				return fmt.Errorf("user %q already exists", u.Username)
			}
			return err
		}
		return output(cmd.OutOrStdout(), u, fmt.Sprintf("created %s (%s)", u.Username, u.Role))
	},
}

// =============================================================================
// token
// =============================================================================

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a JWT signed with the configured secret",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := checkRole(userFlags.role); err != nil {
			return err
		}
		m, err := auth.NewJWTManager(&cfg.Security)
		if err != nil {
			return err
		}
		token, expires, err := m.GenerateToken(userFlags.username, userFlags.role)
		if err != nil {
			return err
		}
		out := map[string]any{"token": token, "expires_at": expires}
		return output(cmd.OutOrStdout(), out, token)
	},
}

// =============================================================================
// hash-password
// =============================================================================

var hashPasswordCmd = &cobra.Command{
	Use:         "hash-password",
	Short:       "Print the bcrypt hash of a password read from stdin",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{"config": "skip"},
	RunE: func(cmd *cobra.Command, _ []string) error {
		password, err := readPassword(cmd.InOrStdin())
		if err != nil {
			return err
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
		return err
	},
}

func init() {
	runIntelligenceCmd.Flags().StringVar(&runFlags.org, "org", "", "organization ID (required)")
	runIntelligenceCmd.Flags().StringVar(&runFlags.query, "query", "", "override the organization's default query")
	runIntelligenceCmd.Flags().StringSliceVar(&runFlags.sources, "sources", nil, "comma-separated source names")
	runIntelligenceCmd.Flags().BoolVar(&runFlags.realtime, "realtime", false, "run the realtime pass (recent window, always detects)")
	runIntelligenceCmd.Flags().BoolVar(&runFlags.detect, "detect", true, "detect opportunities from the findings")
	_ = runIntelligenceCmd.MarkFlagRequired("org")

	for _, c := range []*cobra.Command{createUserCmd, tokenCmd} {
		c.Flags().StringVar(&userFlags.username, "user", "", "account name (required)")
		c.Flags().StringVar(&userFlags.role, "role", models.RoleViewer, "admin, editor or viewer")
		_ = c.MarkFlagRequired("user")
	}
}

func checkRole(role string) error {
	for _, r := range validRoles {
		if r == role {
			return nil
		}
	}
	return fmt.Errorf("invalid role %q: want one of %s", role, strings.Join(validRoles, ", "))
}

// readPassword reads the first line of r.
func readPassword(r io.Reader) (string, error) {
	if f, ok := r.(*os.File); ok {
		if info, err := f.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
			fmt.Fprint(os.Stderr, "Password: ")
		}
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("empty password")
	}
	return password, nil
}

// output prints v as indented JSON with --json, and text otherwise.
func output(w io.Writer, v any, text string) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(w, text)
	return err
}
