package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/buildinfo"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/cache"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/config"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/layout"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "filtergraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is the --config flag; empty means the default location.
	configPath string
	// Config is loaded before any subcommand runs.
	Config config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Filtergraph lays out and routes signal-processing filter graphs",
		Long:         `Filtergraph places the blocks of a signal-processing filter graph into dependency-ordered columns and routes every connection as an orthogonal wire, then renders the result as SVG, PNG, PDF, DOT or text.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// config init creates the file an explicit --config may name.
			initConfig := cmd.Name() == "init" && cmd.Parent() != nil && cmd.Parent().Name() == "config"
			if err := c.loadConfig(); err != nil && !initConfig {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: "+config.DefaultPath()+")")

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	c.Logger.Debug("loaded config", "path", c.configPath, "cache", cfg.Cache.Backend)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg := c.Config.Cache
	if noCache {
		cfg.Backend = cache.BackendNone
	}
	ch, err := cache.Open(ctx, cfg)
	if err != nil {
		// Fall back to no caching when the backend is unreachable.
		c.Logger.Warn("cache unavailable, continuing without it", "backend", cfg.Backend, "err", err)
		ch = cache.NewNullCache()
	}
	return pipeline.NewRunner(ch, nil, c.Logger), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// layoutFlags holds layout tuning flags. Zero values fall back to the config
// file.
type layoutFlags struct {
	routingWidth float64
	nodeSpacing  float64
	maxAttempts  int
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.routingWidth, "routing-width", 0, "initial routing strip width (default from config)")
	cmd.Flags().Float64Var(&f.nodeSpacing, "node-spacing", 0, "vertical gap between blocks (default from config)")
	cmd.Flags().IntVar(&f.maxAttempts, "max-attempts", 0, "cap on widen-and-retry cycles (default from config)")
}

// options layers the flags over the config file's [layout] section.
func (f *layoutFlags) options(def layout.Options) layout.Options {
	return layout.Options{
		RoutingWidth: f.routingWidth,
		NodeSpacing:  f.nodeSpacing,
		MaxAttempts:  f.maxAttempts,
	}.Fill(def)
}

// pipelineOptions builds pipeline options from config and flags.
func (c *CLI) pipelineOptions(lf *layoutFlags, formats []string, theme string) pipeline.Options {
	if theme == "" {
		theme = c.Config.Render.Theme
	}
	return pipeline.Options{
		Formats: formats,
		Theme:   theme,
		Scale:   c.Config.Render.Scale,
		Layout:  lf.options(c.Config.Layout),
		TTL:     c.Config.Cache.TTL,
		Logger:  c.Logger,
	}
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// validateFormats wraps pipeline.ValidateFormats with a CLI-friendly hint.
func validateFormats(formats []string) error {
	if err := pipeline.ValidateFormats(formats); err != nil {
		return fmt.Errorf("%w (use -f svg,png,...)", err)
	}
	return nil
}
