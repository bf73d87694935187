package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/treescope/treescope/pkg/errors"
	"github.com/treescope/treescope/pkg/pipeline"
	"github.com/treescope/treescope/pkg/store"
)

// importCommand creates the import command for converting the raw CSV
// tables into a tree document.
func (c *CLI) importCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		toMongo bool
		name    string
	)

	cmd := &cobra.Command{
		Use:   "import <nodes.csv> <edges.csv>",
		Short: "Convert node and edge tables into a tree document",
		Long: `Convert the raw CSV node and edge tables into a tree document.

The node table carries one row per taxon (id, name, page link, ToL URL,
extinct flag, confidence, phylesis); the edge table carries parent/child
id pairs. Import validates the tables - unknown edge endpoints, double
parents, and cycles are fatal - and writes a single tree.json that every
other command consumes.

With --mongo the document is also stored in the configured MongoDB
catalog so 'serve' can offer it across restarts.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runImport(cmd, args[0], args[1], output, name, noCache, toMongo)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: tree.json)")
	cmd.Flags().StringVar(&name, "name", "", "catalog name for --mongo (default: output file name)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&toMongo, "mongo", false, "also store the document in the configured MongoDB catalog")

	return cmd
}

func (c *CLI) runImport(cmd *cobra.Command, nodesPath, edgesPath, output, name string, noCache, toMongo bool) error {
	ctx := cmd.Context()

	runner, err := c.newRunner(cmd, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	p := newProgress(c.Logger)
	t, hash, err := runner.Load(ctx, pipeline.Options{
		NodesPath: nodesPath,
		EdgesPath: edgesPath,
		Logger:    c.Logger,
	})
	if err != nil {
		return fmt.Errorf("import tables: %w", err)
	}
	p.done(fmt.Sprintf("Imported %d nodes", t.Len()))

	if output == "" {
		output = "tree.json"
	}
	if err := t.ExportJSON(output); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	if toMongo {
		if c.Config.Store.URI == "" {
			return errors.New(errors.ErrCodeInvalidInput,
				"--mongo needs [store] uri in the config file")
		}
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(output), filepath.Ext(output))
		}
		st, err := store.New(ctx, c.Config.Store.URI, c.Config.Store.Database)
		if err != nil {
			return err
		}
		defer st.Close(ctx)
		if err := st.SaveTree(ctx, hash, name, t); err != nil {
			return err
		}
		printInfo("Stored in catalog as %q", name)
	}

	printSuccess("Import complete")
	printFile(output)
	printDetail("hash: %s", hash)
	printNewline()
	printNextStep("Lay out", appName+" layout "+output)

	return nil
}
