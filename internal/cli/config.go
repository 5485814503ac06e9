package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/config"
)

// configCommand creates the config command for inspecting and creating the
// configuration file.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration file",
	}
	cmd.AddCommand(c.configShowCommand())
	cmd.AddCommand(c.configInitCommand())
	return cmd
}

// configShowCommand prints the effective configuration.
func (c *CLI) configShowCommand() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if raw {
				return config.Encode(cmd.OutOrStdout(), c.Config)
			}
			cfg := c.Config
			printKeyValue("routing", strconv.FormatFloat(cfg.Layout.RoutingWidth, 'g', -1, 64))
			printKeyValue("spacing", strconv.FormatFloat(cfg.Layout.NodeSpacing, 'g', -1, 64))
			printKeyValue("attempts", strconv.Itoa(cfg.Layout.MaxAttempts))
			printKeyValue("cache", cfg.Cache.Backend)
			if cfg.Cache.Dir != "" {
				printKeyValue("cache dir", cfg.Cache.Dir)
			}
			printKeyValue("theme", cfg.Render.Theme)
			printKeyValue("listen", cfg.Server.Addr)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "toml", false, "print as TOML")
	return cmd
}

// configInitCommand writes the default configuration to the config path.
func (c *CLI) configInitCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.configPath
			if path == "" {
				path = config.DefaultPath()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("create config dir: %w", err)
			}
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create config: %w", err)
			}
			defer f.Close()
			if err := config.Encode(f, config.Default()); err != nil {
				return err
			}
			printSuccess("Wrote default configuration")
			printFile(path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
