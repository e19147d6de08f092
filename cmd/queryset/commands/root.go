// Package commands implements CLI commands.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/queryset/internal/adapters/telemetry"
	"github.com/satishbabariya/queryset/internal/cli/ui"
	"github.com/satishbabariya/queryset/internal/cli/version"
	"github.com/satishbabariya/queryset/internal/config"
	"github.com/satishbabariya/queryset/internal/core/meta"
	"github.com/satishbabariya/queryset/internal/debug"
	"github.com/satishbabariya/queryset/runtime/client"
)

// App is the state shared by every command of one invocation.
type App struct {
	ConfigFile string
	Debug      bool

	Config *config.Config
	ui     *ui.Printer
}

// NewRootCommand creates the root command with every subcommand attached.
func NewRootCommand() *cobra.Command {
	app := &App{}

	root := &cobra.Command{
		Use:           "queryset",
		Short:         "Query relational data through declared models",
		Long:          "queryset compiles model lookups such as author__name__contains into SQL and runs them against SQLite, MySQL or PostgreSQL.",
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			app.ui = ui.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
			if cmd.Annotations["config"] == "skip" {
				debug.InitWriter(cmd.ErrOrStderr(), app.Debug)
				return nil
			}
			return app.Load(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&app.ConfigFile, "config", "c", "", "configuration file (default: .queryset.yaml in ., $HOME or $HOME/.config/queryset)")
	root.PersistentFlags().BoolVar(&app.Debug, "debug", false, "log compiled statements and executions to stderr")

	root.AddCommand(NewQueryCommand(app))
	root.AddCommand(NewCountCommand(app))
	root.AddCommand(NewSQLCommand(app))
	root.AddCommand(NewGetCommand(app))
	root.AddCommand(NewModelsCommand(app))
	root.AddCommand(NewDescribeCommand(app))
	root.AddCommand(NewInitCommand(app))
	root.AddCommand(NewVersionCommand(app))
	return root
}

// Load reads the configuration and applies its runtime switches.
func (a *App) Load(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.ConfigFile)
	if err != nil {
		return err
	}
	debug.InitWriter(cmd.ErrOrStderr(), a.Debug || cfg.Debug)

	if err := cfg.CheckVersion(version.Version); err != nil {
		return err
	}
	a.Config = cfg
	debug.Debug("configuration loaded", "file", cfg.File, "models", len(cfg.Models))
	return nil
}

// Registry builds the declared models.
func (a *App) Registry() (*meta.Registry, error) {
	reg, err := a.Config.Registry()
	if err != nil {
		return nil, fmt.Errorf("invalid model declarations in %s: %w", a.configName(), err)
	}
	return reg, nil
}

// Connect opens a client over the configured database.
func (a *App) Connect(ctx context.Context) (*client.Client, error) {
	reg, err := a.Registry()
	if err != nil {
		return nil, err
	}
	if a.Config.Database.URL == "" {
		return nil, fmt.Errorf("no database configured: set database.url in %s or DATABASE_URL", a.configName())
	}

	t, err := telemetry.NewTelemetry(a.Config.TelemetryConfig())
	if err != nil {
		return nil, err
	}
	return client.Open(ctx, a.Config.Database, reg, client.WithTelemetry(t))
}

// Offline returns a client that can compile but not execute.
func (a *App) Offline() (*client.Client, error) {
	reg, err := a.Registry()
	if err != nil {
		return nil, err
	}
	return client.New(reg, nil), nil
}

// PrintStats prints the per-statement counters when memory telemetry is on.
func (a *App) PrintStats(c *client.Client) {
	stats, ok := c.Telemetry().(*telemetry.Stats)
	if !ok {
		return
	}
	for _, row := range stats.Summary() {
		a.ui.Summary("%s: %d run, %d failed, %s", row.Label, row.Count, row.Failures, row.Total)
	}
}

func (a *App) configName() string {
	if a.Config != nil && a.Config.File != "" {
		return a.Config.File
	}
	return config.FileName + ".yaml"
}
