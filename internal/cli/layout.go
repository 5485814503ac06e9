package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/pipeline"
)

// defaultLayoutJobs bounds how many graphs are laid out concurrently.
const defaultLayoutJobs = 4

// layoutCommand creates the layout command for computing graph layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		refresh bool
		jobs    int
		lf      layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [graph.json|graph.toml]...",
		Short: "Compute the column layout and wire routes of filter graphs",
		Long: `Compute the column layout and wire routes of one or more filter graphs.

Each input is written to <input>.layout.json (same format as 'render -f json'),
which records every block rectangle, port rectangle and routed wire path.
Several inputs are laid out concurrently.

Results are cached, so repeated runs on an unchanged graph are instant.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "" && len(args) > 1 {
				return fmt.Errorf("--output needs exactly one input, got %d", len(args))
			}
			opts := c.pipelineOptions(&lf, nil, "")
			opts.Refresh = refresh
			return c.runLayout(cmd.Context(), args, opts, output, noCache, jobs)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even if a cached layout exists")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", defaultLayoutJobs, "graphs to lay out concurrently")
	lf.register(cmd)

	return cmd
}

// layoutOutcome is what one layout job reports back for printing.
type layoutOutcome struct {
	output string
	blocks int
	edges  int
	cached bool
}

// runLayout lays out every input and writes one layout file per input.
func (c *CLI) runLayout(ctx context.Context, inputs []string, opts pipeline.Options, output string, noCache bool, jobs int) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinner(ctx, os.Stderr, fmt.Sprintf("Laying out %d graph(s)...", len(inputs)))
	spinner.Start()
	prog := newProgress(c.Logger)

	var finished atomic.Int32
	outcomes := make([]layoutOutcome, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(jobs, 1))
	for i, input := range inputs {
		g.Go(func() error {
			out, err := c.layoutOne(gctx, runner, input, opts, output)
			if err != nil {
				return err
			}
			outcomes[i] = out
			spinner.Update(layoutProgress(int(finished.Add(1)), len(inputs), input))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Laid out %d graph(s)", len(inputs)))

	printSuccess("Layout complete")
	for _, o := range outcomes {
		printFile(o.output)
		printStats(o.blocks, o.edges, o.cached)
	}
	printNewline()
	printNextStep("Render", appName+" render "+inputs[0])
	return nil
}

func (c *CLI) layoutOne(ctx context.Context, runner *pipeline.Runner, input string, opts pipeline.Options, output string) (layoutOutcome, error) {
	g, err := pipeline.LoadGraph(input)
	if err != nil {
		return layoutOutcome{}, fmt.Errorf("load graph %s: %w", input, err)
	}

	res, cached, err := runner.LayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		return layoutOutcome{}, fmt.Errorf("layout %s: %w", input, err)
	}

	if output == "" {
		output = layoutPath(input)
	}
	if err := res.WriteFile(output); err != nil {
		return layoutOutcome{}, err
	}
	c.Logger.Debug("wrote layout", "input", input, "output", output, "attempts", res.Attempts)

	return layoutOutcome{output: output, blocks: g.Len(), edges: g.EdgeCount(), cached: cached}, nil
}

// layoutProgress is the spinner message after done of total graphs, the
// latest being input.
func layoutProgress(done, total int, input string) string {
	return fmt.Sprintf("Laid out %s (%d/%d)...", filepath.Base(input), done, total)
}

// layoutPath derives the default layout file name from a graph file name.
func layoutPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".layout.json"
}
