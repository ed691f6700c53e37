package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/digraph/pkg/errors"
	"github.com/matzehuels/digraph/pkg/export"
	"github.com/matzehuels/digraph/pkg/graph"
)

// exportOpts holds the flags of the export command.
type exportOpts struct {
	formats  string
	output   string
	scale    float64
	fit      bool
	detailed bool
}

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var opts exportOpts

	cmd := &cobra.Command{
		Use:   "export <document>",
		Short: "Export a document to DOT, Graphviz SVG, PDF or PNG",
		Long: `Export a JSON or YAML document.

Formats:
  svg       the editor scene (same as render)
  dot       Graphviz source with pinned node positions
  graphviz  SVG laid out by Graphviz (neato, positions kept)
  pdf, png  the editor scene converted with rsvg-convert`,
		Example: `  digraph export flow.json -f dot,graphviz
  digraph export flow.json -f png --scale 3 -o build/flow`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "comma-separated output formats (default: svg)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output path without extension (default: next to the document)")
	cmd.Flags().Float64Var(&opts.scale, "scale", 0, "PNG resolution factor (default from config)")
	cmd.Flags().BoolVar(&opts.fit, "fit", false, "zoom the scene to fit (default from config)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "add types and attributes to Graphviz labels")

	return cmd
}

func (c *CLI) runExport(ctx context.Context, path string, opts exportOpts) error {
	formats, err := parseFormats(opts.formats)
	if err != nil {
		return err
	}

	cfg, vc, err := c.viewConfig()
	if err != nil {
		return err
	}
	doc, err := readDocument(path, vc)
	if err != nil {
		return err
	}

	ropts := export.RenderOptions{
		View:     vc,
		Fit:      opts.fit || cfg.Export.Fit,
		Scale:    cfg.Export.Scale,
		Detailed: opts.detailed,
	}
	if opts.scale > 0 {
		ropts.Scale = opts.scale
	}

	base := opts.output
	if base == "" {
		base = strings.TrimSuffix(path, filepath.Ext(path))
	}
	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	written := make([]string, 0, len(formats))
	for _, f := range formats {
		name := base + f.Ext()
		if f == export.FormatGraphviz {
			name = base + ".graphviz" + f.Ext()
		}
		if err := c.exportOne(ctx, name, f, doc, ropts); err != nil {
			if errors.Is(err, errors.ErrCodeUnsupported) {
				printWarning("Skipped %s: %s", f, errors.UserMessage(err))
				continue
			}
			return err
		}
		written = append(written, name)
	}

	printSuccess("Exported %s", filepath.Base(path))
	printStats(len(doc.Nodes), len(doc.Edges))
	for _, name := range written {
		printFile(name)
	}
	return nil
}

func (c *CLI) exportOne(ctx context.Context, name string, f export.Format, doc graph.Document, opts export.RenderOptions) error {
	prog := newProgress(loggerFromContext(ctx))

	sp := newSpinner(ctx, "Exporting "+string(f)+"...")
	if f != export.FormatSVG && f != export.FormatDOT {
		sp.Start()
	}
	data, err := export.Render(ctx, doc, f, opts)
	sp.Stop()
	if err != nil {
		return err
	}

	if err := os.WriteFile(name, data, 0o644); err != nil {
		return err
	}
	prog.done("Wrote " + string(f))
	return nil
}

// parseFormats parses the --format flag. Empty selects svg.
func parseFormats(s string) ([]export.Format, error) {
	if s == "" {
		return []export.Format{export.FormatSVG}, nil
	}
	var formats []export.Format
	for _, name := range strings.Split(s, ",") {
		f, err := export.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	return formats, nil
}
