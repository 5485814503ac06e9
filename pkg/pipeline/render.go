package pipeline

import (
	"context"
	"fmt"

	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/layout"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/render"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/render/ascii"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/render/dot"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/render/svg"
)

// Render generates output artifacts in the requested formats.
func Render(ctx context.Context, res *layout.Result, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	var svgData []byte
	for _, format := range opts.Formats {
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatSVG, FormatPNG, FormatPDF:
			if svgData == nil {
				svgData = svg.Render(res, svgOptions(opts)...)
			}
			data, err = convertSVG(ctx, svgData, format, opts.Scale)
		case FormatJSON:
			data, err = res.Marshal()
		case FormatDOT:
			theme, _ := svg.ThemeByName(opts.Theme)
			data = []byte(dot.ToDOT(res, dot.Options{PortLabels: true, Theme: &theme}))
		case FormatText:
			data = []byte(ascii.Render(res, ascii.Options{}))
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func svgOptions(opts Options) []svg.Option {
	theme, _ := svg.ThemeByName(opts.Theme)
	out := []svg.Option{svg.WithTheme(theme)}
	if opts.Columns {
		out = append(out, svg.WithColumns())
	}
	if opts.Interactive {
		out = append(out, svg.WithInteraction())
	}
	return out
}

func convertSVG(ctx context.Context, data []byte, format string, scale float64) ([]byte, error) {
	switch format {
	case FormatPNG:
		return render.ToPNG(ctx, data, scale)
	case FormatPDF:
		return render.ToPDF(ctx, data)
	default:
		return data, nil
	}
}
