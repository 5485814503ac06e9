package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/layout"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/pipeline"
)

// editCommand creates the interactive editor command.
func (c *CLI) editCommand() *cobra.Command {
	var lf layoutFlags

	cmd := &cobra.Command{
		Use:   "edit [graph.json|graph.toml]",
		Short: "Rewire a filter graph interactively in the terminal",
		Long: `Rewire a filter graph interactively in the terminal.

Move the cursor onto an output port and press enter to pick it as a source,
then move onto an input port and press enter again to connect them. The
layout is recomputed after every change. Press s to write the graph back to
the file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runEdit(cmd.Context(), args[0], lf.options(c.Config.Layout))
		},
	}
	lf.register(cmd)
	return cmd
}

func (c *CLI) runEdit(ctx context.Context, path string, opts layout.Options) error {
	g, err := pipeline.LoadGraph(path)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", path, err)
	}

	model, err := NewEditorModel(ctx, g, path, opts)
	if err != nil {
		return fmt.Errorf("layout %s: %w", path, pipeline.Classify(err))
	}

	final, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(EditorModel); ok && m.Dirty {
		printWarning("Unsaved changes to %s discarded", path)
	}
	return nil
}
