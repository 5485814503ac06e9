package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output      string   // output file (single format) or base path (several)
	formats     []string // svg, png, pdf, json, dot, txt
	theme       string   // light or dark; empty takes the config value
	scale       float64  // PNG scale factor; zero takes the config value
	columns     bool     // draw routing strips
	interactive bool     // embed the hover script in SVG output
	noCache     bool
	refresh     bool
	layout      layoutFlags
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{}

	cmd := &cobra.Command{
		Use:   "render [graph.json|graph.toml]",
		Short: "Lay out a filter graph and render it",
		Long: `Lay out a filter graph and render it to one or more formats.

Formats: svg (default), png, pdf, json (the layout itself), dot (Graphviz
source using the same column ranks) and txt (a box-drawing rendering for
terminals).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (several formats)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, json, dot, txt (comma-separated)")
	cmd.Flags().StringVar(&opts.theme, "theme", "", "color theme: light, dark (default from config)")
	cmd.Flags().Float64Var(&opts.scale, "scale", 0, "PNG scale factor (default from config)")
	cmd.Flags().BoolVar(&opts.columns, "columns", false, "draw routing strips")
	cmd.Flags().BoolVar(&opts.interactive, "interactive", false, "embed hover highlighting in SVG output")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even if cached results exist")
	opts.layout.register(cmd)

	return cmd
}

// runRender executes the full pipeline and writes one file per format.
// Text output goes to stdout when no output path is given.
func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	g, err := pipeline.LoadGraph(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	popts := c.pipelineOptions(&opts.layout, opts.formats, opts.theme)
	if opts.scale > 0 {
		popts.Scale = opts.scale
	}
	popts.Columns = opts.columns
	popts.Interactive = opts.interactive
	popts.Refresh = opts.refresh

	spinner := newSpinner(ctx, os.Stderr, fmt.Sprintf("Routing and rendering %s...", filepath.Base(input)))
	spinner.Start()
	result, err := runner.Execute(ctx, g, input, popts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if opts.output == "" && len(opts.formats) == 1 && opts.formats[0] == pipeline.FormatText {
		_, err := os.Stdout.Write(result.Artifacts[pipeline.FormatText])
		return err
	}

	paths := outputPaths(input, opts.output, opts.formats)
	for _, format := range opts.formats {
		if err := os.WriteFile(paths[format], result.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", paths[format], err)
		}
	}

	printSuccess("Rendered %s", input)
	for _, format := range opts.formats {
		printFile(paths[format])
	}
	printStats(result.Stats.BlockCount, result.Stats.EdgeCount, result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit)
	return nil
}

// outputPaths maps each format to its output file. A single format writes
// to output verbatim; several formats treat output as a base path.
func outputPaths(input, output string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if output != "" && len(formats) == 1 {
		paths[formats[0]] = output
		return paths
	}
	base := output
	if base == "" {
		base = strings.TrimSuffix(input, filepath.Ext(input))
	} else {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	for _, f := range formats {
		ext := f
		if f == pipeline.FormatJSON {
			ext = "layout.json"
		}
		paths[f] = base + "." + ext
	}
	return paths
}
