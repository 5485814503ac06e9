package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/errors"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/pipeline"
)

// validateCommand creates the validate command, which checks graph files
// without laying them out.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [graph.json|graph.toml]...",
		Short: "Check filter graph files for errors and dependency cycles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				if err := validateGraphFile(path); err != nil {
					printError("%s: %s", path, errors.UserMessage(err))
					c.Logger.Debug("validation failed", "path", path, "err", err)
					failed++
					continue
				}
				printSuccess("%s", path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d graph(s) invalid", failed, len(args))
			}
			return nil
		},
	}
}

// validateGraphFile loads path and reports the first problem. Cycles pass
// the loader, so they are checked separately.
func validateGraphFile(path string) error {
	g, err := pipeline.LoadGraph(path)
	if err != nil {
		return err
	}
	if cycle := g.FindCycle(); cycle != nil {
		return errors.New(errors.ErrCodeGraphCycle, "dependency cycle: %s", strings.Join(cycle, " → "))
	}
	return nil
}
