package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/treescope/treescope/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output     string   // output file path (or base path for multiple formats)
	kind       string   // visualization kind: "radial" or "nodelink"
	formats    []string // output formats: "svg", "png", "pdf", "dot", "json"
	depth      int      // cluster expansion depth
	labelDepth int      // deepest labeled level (radial)
	maxDepth   int      // level cut for node-link exports
	pngScale   float64  // raster scale factor
	noCache    bool
	refresh    bool
}

// renderCommand creates the render command for generating visualizations.
//
// Default settings:
//   - kind: radial (the native visualization)
//   - format: svg
//   - depth: 2 (clusters at levels 1-2 start expanded)
//   - labels: 2 (root, branches, and their children get names)
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{
		kind:       pipeline.DefaultKind,
		depth:      pipeline.DefaultExpandDepth,
		labelDepth: pipeline.DefaultLabelDepth,
		maxDepth:   pipeline.DefaultNodelinkDepth,
		pngScale:   2.0,
	}

	cmd := &cobra.Command{
		Use:   "render [tree.json]",
		Short: "Render a tree to SVG, PNG, PDF, DOT, or JSON",
		Long: `Render a tree document through the full pipeline.

The radial kind draws TreeScope's native map: the root at the center,
main branches fanned around it, collapsed clusters as ring markers. The
nodelink kind exports the upper levels of the tree through Graphviz
(twopi) instead, and is the only kind that supports DOT output.

All three stages are cached, so re-rendering with different formats
reuses the layout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			input := ""
			if len(args) > 0 {
				input = args[0]
			}
			return c.runRender(cmd, input, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.kind, "kind", "k", opts.kind, "visualization kind: radial (default), nodelink")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, dot, json (comma-separated)")
	cmd.Flags().IntVarP(&opts.depth, "depth", "d", opts.depth, "cluster expansion depth")
	cmd.Flags().IntVar(&opts.labelDepth, "labels", opts.labelDepth, "deepest level that still gets a name label")
	cmd.Flags().IntVar(&opts.maxDepth, "max-depth", opts.maxDepth, "level cut for node-link exports")
	cmd.Flags().Float64Var(&opts.pngScale, "png-scale", opts.pngScale, "raster scale factor for PNG output")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "reload the input even if cached")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, input string, opts *renderOpts) error {
	ctx := cmd.Context()

	pipeOpts, err := c.loadOptions(input)
	if err != nil {
		return err
	}
	pipeOpts.ExpandDepth = opts.depth
	pipeOpts.Kind = opts.kind
	pipeOpts.Formats = opts.formats
	pipeOpts.LabelDepth = opts.labelDepth
	pipeOpts.MaxDepth = opts.maxDepth
	pipeOpts.PNGScale = opts.pngScale
	pipeOpts.Refresh = opts.refresh

	runner, err := c.newRunner(cmd, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", opts.kind))
	spinner.Start()

	result, err := runner.Execute(ctx, pipeOpts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	base := renderBasePath(opts.output, input)
	for _, format := range opts.formats {
		path := opts.output
		if path == "" || len(opts.formats) > 1 {
			path = base + "." + format
		}
		if err := os.WriteFile(path, result.Artifacts[format], 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}

	printSuccess("Render complete")
	printStats(result.Stats.NodeCount, result.Stats.VisibleCount, result.CacheInfo.RenderHit)

	return nil
}

// renderBasePath derives the base output path from the output and input
// paths. A format extension on the output path is stripped so multiple
// formats fan out next to each other.
func renderBasePath(output, input string) string {
	if output == "" {
		if input == "" {
			return "tree"
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := strings.TrimPrefix(filepath.Ext(output), ".")
	if pipeline.ValidFormats[ext] {
		return strings.TrimSuffix(output, "."+ext)
	}
	return output
}
