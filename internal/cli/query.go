package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/treescope/treescope/pkg/layout"
	"github.com/treescope/treescope/pkg/spatial"
	"github.com/treescope/treescope/pkg/tree"
)

// queryCommand creates the query command for hit-testing a world point
// against a computed layout.
func (c *CLI) queryCommand() *cobra.Command {
	var treePath string

	cmd := &cobra.Command{
		Use:   "query <layout.json> <x> <y>",
		Short: "Find the node at a world coordinate",
		Long: `Find the node at a world coordinate in a computed layout.

The placements are loaded into the same quadtree the interactive
explorer uses, so the answer matches what a click at that point would
hit. Pass --tree to resolve the node's name and metadata.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("bad x coordinate %q", args[1])
			}
			y, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("bad y coordinate %q", args[2])
			}
			return c.runQuery(args[0], treePath, x, y)
		},
	}

	cmd.Flags().StringVarP(&treePath, "tree", "t", "", "tree document for name lookup")

	return cmd
}

func (c *CLI) runQuery(layoutPath, treePath string, x, y float64) error {
	snap, err := layout.ReadSnapshotFile(layoutPath)
	if err != nil {
		return err
	}

	ix := spatial.New()
	for _, p := range snap.Placed {
		ix.Insert(p.ID, p.X, p.Y)
	}

	id, ok := ix.Query(x, y)
	if !ok {
		printInfo("No node at (%.1f, %.1f)", x, y)
		return nil
	}

	printSuccess("Hit node %d", id)
	for _, p := range snap.Placed {
		if p.ID == id {
			printKeyValue("position", fmt.Sprintf("(%.1f, %.1f)", p.X, p.Y))
			printKeyValue("level", strconv.Itoa(p.Level))
			break
		}
	}

	if treePath != "" {
		t, err := tree.ImportJSON(treePath)
		if err != nil {
			return err
		}
		if n, ok := t.Node(id); ok {
			printKeyValue("name", n.Name)
			printKeyValue("children", strconv.Itoa(len(t.Children(id))))
			printKeyValue("descendants", strconv.Itoa(t.DescendantCount(id)))
			if n.Extinct {
				printKeyValue("extinct", "yes")
			}
		}
	}

	return nil
}
