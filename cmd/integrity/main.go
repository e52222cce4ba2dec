// Command integrity runs the competition integrity tooling against the
// configured store.
//
// Usage:
//
//	integrity audit swz-premier-league-2025
//	integrity audit --all
//	integrity adopt swz-premier-league-2025 --name swallows
//	integrity rename swz-premier-league-2025 --ghost "mbabane highlandes" --team 1
//	integrity merge swz-premier-league-2025 --primary 1 --secondary 5 --confirm
//	integrity recompute --all
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	sonic "github.com/bytedance/sonic"
	"github.com/joho/godotenv"
	"github.com/riskibarqy/competition-engine/internal/app"
	"github.com/riskibarqy/competition-engine/internal/config"
	"github.com/riskibarqy/competition-engine/internal/platform/logging"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(buildFromEnv).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type containerBuilder func(ctx context.Context) (*app.Container, error)

func buildFromEnv(ctx context.Context) (*app.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := logging.NewJSONTo(os.Stderr, cfg.LogLevel).With("service", cfg.ServiceName, "component", "integrity-cli")
	logging.SetDefault(logger)
	return app.Build(ctx, cfg, logger)
}

func newRootCmd(build containerBuilder) *cobra.Command {
	root := &cobra.Command{
		Use:          "integrity",
		Short:        "Competition integrity tooling",
		SilenceUsage: true,
	}

	r := &runner{build: build}
	root.AddCommand(
		r.auditCmd(),
		r.ghostsCmd(),
		r.zombiesCmd(),
		r.adoptCmd(),
		r.renameCmd(),
		r.mergeCmd(),
		r.dedupCmd(),
		r.recomputeCmd(),
		r.transitionCmd(),
	)
	return root
}

type runner struct {
	build containerBuilder
}

// with builds a container for one command and releases it afterwards.
func (r *runner) with(cmd *cobra.Command, fn func(ctx context.Context, c *app.Container) (any, error)) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	container, err := r.build(ctx)
	if err != nil {
		return fmt.Errorf("build container: %w", err)
	}
	defer func() {
		_ = container.Close()
		_ = container.Logger.Sync()
	}()

	out, err := fn(ctx, container)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), out)
}

func writeJSON(w io.Writer, v any) error {
	raw, err := sonic.ConfigDefault.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	if _, err := w.Write(append(raw, '\n')); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
