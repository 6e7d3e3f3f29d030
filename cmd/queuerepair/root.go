package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/queue-repair/internal/bootstrap"
	"github.com/spec-kit/queue-repair/internal/config"
	"github.com/spec-kit/queue-repair/internal/observability"
	"github.com/spec-kit/queue-repair/internal/render"
)

// cli carries state shared by subcommands for one invocation.
type cli struct {
	verbose bool
	cfg     *config.Config
	logger  *zap.Logger
	rt      *bootstrap.Runtime
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "queuerepair",
		Short: "Track device repair tickets",
		Long:  "queuerepair records device repair tickets, tracks their status and\nsummarizes the queue. Data lives in a JSON file or in Postgres.",
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		Version:           version,
		PersistentPreRunE: c.prepare,
		PersistentPostRun: func(*cobra.Command, []string) { c.close() },
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log progress to stderr")

	root.AddCommand(
		newAddCmd(c),
		newListCmd(c),
		newShowCmd(c),
		newRepairedCmd(c),
		newCancelCmd(c),
		newDeleteCmd(c),
		newExportCmd(c),
		newDashboardCmd(c),
		newCleanupCmd(c),
		newTokenCmd(c),
	)
	return root
}

func (c *cli) prepare(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewCLILogger(cfg.Logger, c.verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	c.cfg = cfg
	c.logger = logger
	return nil
}

// runtime connects storage on first use and prints a warning when the stored
// data could not be read.
func (c *cli) runtime(cmd *cobra.Command) (*bootstrap.Runtime, error) {
	if c.rt != nil {
		return c.rt, nil
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := bootstrap.New(ctx, c.cfg, c.logger)
	if err != nil {
		return nil, err
	}
	if rt.LoadErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", rt.LoadErr)
	}
	c.rt = rt
	return rt, nil
}

func (c *cli) renderer(cmd *cobra.Command) *render.Renderer {
	return render.NewRenderer(cmd.OutOrStdout())
}

func (c *cli) close() {
	if c.rt != nil {
		c.rt.Close()
		c.rt = nil
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid ticket id %q", arg)
	}
	return id, nil
}
