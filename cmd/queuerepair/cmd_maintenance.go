package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/queue-repair/internal/auth"
)

func newExportCmd(c *cli) *cobra.Command {
	var search, dir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write tickets to a timestamped CSV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := c.runtime(cmd)
			if err != nil {
				return err
			}
			if dir == "" {
				dir = c.cfg.Export.Dir
			}
			result, err := rt.Tickets.Export(cmd.Context(), dir, search)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d tickets to %s\n", result.Count, result.Path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Export only tickets matching this text")
	cmd.Flags().StringVar(&dir, "dir", "", "Output directory (default EXPORT_DIR)")
	return cmd
}

func newDashboardCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show status counts and recent activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := c.runtime(cmd)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), c.renderer(cmd).Dashboard(rt.Tickets.Dashboard()))
			return nil
		},
	}
}

func newCleanupCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove repaired tickets past the retention period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := c.runtime(cmd)
			if err != nil {
				return err
			}
			removed, err := rt.Tickets.Cleanup(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			days := int(rt.Tickets.Retention() / (24 * time.Hour))
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d repaired tickets older than %d days\n", removed, days)
			return nil
		},
	}
}

func newTokenCmd(c *cli) *cobra.Command {
	var operator string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an operator token for the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tokens := auth.NewTokenManager(c.cfg.Auth.JWTSecret, c.cfg.Auth.AccessTokenTTLMinutes)
			if !tokens.Enabled() {
				return fmt.Errorf("AUTH_JWT_SECRET is not set")
			}
			token, expiresAt, err := tokens.GenerateToken(operator)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, token)
			fmt.Fprintf(out, "expires %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&operator, "operator", "operator", "Name recorded in the token")
	return cmd
}
