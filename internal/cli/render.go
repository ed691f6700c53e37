package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/digraph/pkg/export"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	output   string
	width    float64
	height   float64
	fit      bool
	readOnly bool
	controls bool
}

// renderCommand creates the render command, which draws a document the way
// an interactive view shows it.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{fit: true}

	cmd := &cobra.Command{
		Use:   "render <document>",
		Short: "Render a document as the editor draws it",
		Long: `Render a JSON or YAML document to a standalone SVG.

The output is the scene of a headless diagram view after all pending renders
have run: shape definitions, the background dot grid, nodes, edges and their
handles.`,
		Example: `  digraph render flow.json
  digraph render flow.yaml -o flow.svg --width 1200 --height 800 --fit=false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <document>.svg)")
	cmd.Flags().Float64Var(&opts.width, "width", 0, "viewport width in pixels")
	cmd.Flags().Float64Var(&opts.height, "height", 0, "viewport height in pixels")
	cmd.Flags().BoolVar(&opts.fit, "fit", opts.fit, "zoom to fit before writing")
	cmd.Flags().BoolVar(&opts.readOnly, "read-only", false, "render without editing affordances")
	cmd.Flags().BoolVar(&opts.controls, "controls", false, "include the graph controls overlay")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, path string, opts renderOpts) error {
	prog := newProgress(loggerFromContext(ctx))

	_, vc, err := c.viewConfig()
	if err != nil {
		return err
	}
	if opts.width > 0 {
		vc.Width = opts.width
	}
	if opts.height > 0 {
		vc.Height = opts.height
	}
	vc.ReadOnly = vc.ReadOnly || opts.readOnly
	vc.ShowGraphControls = vc.ShowGraphControls || opts.controls

	doc, err := readDocument(path, vc)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	svg, err := export.SceneSVG(doc, vc, opts.fit)
	if err != nil {
		return err
	}

	output := opts.output
	if output == "" {
		output = outputPath(path, export.FormatSVG)
	}
	if err := os.WriteFile(output, svg, 0o644); err != nil {
		return err
	}

	prog.done("Rendered " + filepath.Base(path))
	printStats(len(doc.Nodes), len(doc.Edges))
	printFile(output)
	return nil
}

// outputPath replaces the extension of path with the extension of f.
func outputPath(path string, f export.Format) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + f.Ext()
}
