// Package cli implements the gifrankctl command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/gifrank/internal/app"
	"github.com/kailas-cloud/gifrank/internal/config"
	logpkg "github.com/kailas-cloud/gifrank/internal/logger"
	"github.com/kailas-cloud/gifrank/internal/version"
)

// BuildFunc creates the engine for an environment name.
type BuildFunc func(ctx context.Context, env string) (*app.App, error)

// DefaultBuild loads config/<env>.yaml and wires the engine with warn-level logging.
func DefaultBuild(ctx context.Context, env string) (*app.App, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logpkg.NewLogger("test", cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	engine, err := app.Build(ctx, &cfg, app.Overrides{}, logger)
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	return engine, nil
}

type rootOptions struct {
	env    string
	asJSON bool
	build  BuildFunc
}

// NewRootCommand returns the gifrankctl command tree.
func NewRootCommand(build BuildFunc) *cobra.Command {
	opts := &rootOptions{build: build}

	root := &cobra.Command{
		Use:           "gifrankctl",
		Short:         "Search and rank GIFs from the command line",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.env, "env", config.GetEnv(), "config environment (config/<env>.yaml)")
	root.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "print JSON instead of text")

	root.AddCommand(
		newRankCommand(opts),
		newSuggestCommand(opts),
		newTermsCommand(opts),
		newTrendingCommand(opts),
		newHealthCommand(opts),
	)
	return root
}

// withEngine builds the engine, runs fn and closes it.
func (o *rootOptions) withEngine(cmd *cobra.Command, fn func(*app.App) error) error {
	engine, err := o.build(cmd.Context(), o.env)
	if err != nil {
		return err
	}
	defer engine.Close()
	return fn(engine)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
