// Package commands implements the stitchql subcommands.
package commands

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/stitchql/stitchql/internal/cli/output"
	"github.com/stitchql/stitchql/internal/config"
	"github.com/stitchql/stitchql/internal/engine"
	"github.com/stitchql/stitchql/internal/sqlbuilder"
	"github.com/stitchql/stitchql/internal/state"
)

// ConfigKey stores the loaded config in the command context.
type ConfigKey struct{}

// LoggerKey stores the logger in the command context.
type LoggerKey struct{}

// RendererKey stores the output renderer in the command context.
type RendererKey struct{}

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig(cmd.Context())
	logger := getLogger(cmd.Context())

	eng, err := createEngine(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		_ = eng.Close()
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Engine:   eng,
		Renderer: getRenderer(cmd),
	}, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that never touch the lineage graph or state store.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	return &CommandContext{
		Cfg:      getConfig(cmd.Context()),
		Logger:   getLogger(cmd.Context()),
		Renderer: getRenderer(cmd),
	}
}

func getConfig(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(ConfigKey{}).(*config.Config); ok {
		return cfg
	}
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	return cfg
}

func getLogger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(LoggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.New(slog.DiscardHandler)
}

func getRenderer(cmd *cobra.Command) *output.Renderer {
	if r, ok := cmd.Context().Value(RendererKey{}).(*output.Renderer); ok {
		return r
	}
	return output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ModeAuto)
}

func createEngine(cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	// Ensure state directory exists
	stateDir := filepath.Dir(cfg.StatePath)
	if stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0750); err != nil {
			return nil, err
		}
	}

	store, err := state.Open(cfg.StatePath)
	if err != nil {
		return nil, err
	}

	eng, err := engine.New(engine.Config{
		LineagePath: cfg.LineagePath,
		Store:       store,
		Builder: sqlbuilder.Options{
			Catalog:     cfg.SQL.Catalog,
			Schema:      cfg.SQL.Schema,
			StrictJoins: cfg.SQL.StrictJoins,
		},
		Logger: logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return eng, nil
}
