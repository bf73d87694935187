package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/treescope/treescope/pkg/layout"
	"github.com/treescope/treescope/pkg/pipeline"
	"github.com/treescope/treescope/pkg/store"
)

// layoutCommand creates the layout command for computing radial layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output   string
		noCache  bool
		depth    int
		snapName string
	)

	cmd := &cobra.Command{
		Use:   "layout [tree.json]",
		Short: "Compute the radial layout for a tree document",
		Long: `Compute the radial layout for a tree document.

The layout command takes a tree.json file (produced by 'import') and
computes world positions for every node visible at the chosen expansion
depth: clusters down to --depth levels start expanded, everything deeper
stays collapsed behind its cluster marker. The output is a layout.json
snapshot that 'render' and 'query' consume.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) > 0 {
				input = args[0]
			}
			return c.runLayout(cmd, input, output, snapName, depth, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().IntVarP(&depth, "depth", "d", pipeline.DefaultExpandDepth, "cluster expansion depth")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&snapName, "save-as", "", "also store the snapshot in the MongoDB catalog under this name")

	return cmd
}

func (c *CLI) runLayout(cmd *cobra.Command, input, output, snapName string, depth int, noCache bool) error {
	ctx := cmd.Context()

	opts, err := c.loadOptions(input)
	if err != nil {
		return err
	}
	opts.ExpandDepth = depth

	runner, err := c.newRunner(cmd, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	t, hash, err := runner.Load(ctx, opts)
	if err != nil {
		return fmt.Errorf("load tree: %w", err)
	}

	spinner := newSpinnerWithContext(ctx, "Computing radial layout...")
	spinner.Start()

	snap, cacheHit, err := runner.ComputeLayoutWithCacheInfo(ctx, t, hash, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		base := input
		if base == "" {
			base = "tree.json"
		}
		base = strings.TrimSuffix(base, filepath.Ext(base))
		outputPath = base + ".layout.json"
	}

	if err := layout.WriteSnapshotFile(snap, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	if snapName != "" {
		st, err := store.New(ctx, c.Config.Store.URI, c.Config.Store.Database)
		if err != nil {
			return err
		}
		defer st.Close(ctx)
		if err := st.SaveSnapshot(ctx, snapName, hash, snap); err != nil {
			return err
		}
		printInfo("Stored snapshot as %q", snapName)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(t.Len(), snap.NodeCount, cacheHit)
	printNewline()
	printNextStep("Hit-test", fmt.Sprintf("%s query %s 0 0", appName, outputPath))

	return nil
}
