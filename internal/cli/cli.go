// Package cli implements the treescope command-line interface.
//
// This package provides commands for importing the raw node and edge
// tables, computing radial layouts, rendering them to images, and
// exploring the tree interactively in the terminal. The CLI is built
// using cobra and supports verbose logging via the charmbracelet/log
// library.
//
// # Commands
//
// The main commands are:
//   - import: Convert the CSV node/edge tables into a tree document
//   - layout: Compute the radial layout for a tree document
//   - render: Generate SVG, PNG, PDF, DOT, or JSON output
//   - query: Hit-test a point against a computed layout
//   - explore: Interactive terminal explorer
//   - serve: HTTP API over a loaded tree
//   - cache: Manage the pipeline artifact cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/treescope/treescope/internal/config"
	"github.com/treescope/treescope/pkg/buildinfo"
	"github.com/treescope/treescope/pkg/cache"
	"github.com/treescope/treescope/pkg/errors"
	"github.com/treescope/treescope/pkg/pipeline"
	"github.com/treescope/treescope/pkg/tree"
)

// appName is the application name used for directories and display.
const appName = "treescope"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// LoadConfig loads the TOML config file. An empty path searches the
// default locations.
func (c *CLI) LoadConfig(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	c.Config = cfg
	return nil
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "TreeScope visualizes large rooted trees as radial maps",
		Long:         `TreeScope is a CLI tool for visualizing large rooted trees - the Tree of Life and anything shaped like it - as radial maps with click-to-expand clustering.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.importCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.queryCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newRunner creates a pipeline runner for CLI use. Redis wins over the
// file cache when configured; --no-cache beats both.
func (c *CLI) newRunner(cmd *cobra.Command, noCache bool) (*pipeline.Runner, error) {
	backend, err := c.newCache(cmd, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(backend, nil, c.Logger), nil
}

func (c *CLI) newCache(cmd *cobra.Command, noCache bool) (cache.Cache, error) {
	if noCache || c.Config.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	if addr := c.Config.Cache.Redis; addr != "" {
		rc, err := cache.NewRedisCache(cmd.Context(), addr)
		if err != nil {
			c.Logger.Warn("redis unavailable, falling back to file cache", "addr", addr, "err", err)
		} else {
			return rc, nil
		}
	}
	return cache.NewFileCache(c.Config.CacheDir())
}

// loadTree resolves the tree input from an optional positional argument,
// falling back to the configured data paths.
func (c *CLI) loadTree(path string) (*tree.Tree, error) {
	if path == "" {
		path = c.Config.Data.Tree
	}
	if path != "" {
		return tree.ImportJSON(path)
	}
	if c.Config.Data.Nodes != "" && c.Config.Data.Edges != "" {
		return tree.Load(c.Config.Data.Nodes, c.Config.Data.Edges)
	}
	return nil, errors.New(errors.ErrCodeInvalidInput,
		"no tree given: pass a tree.json or configure [data] in %s", config.DefaultFileName)
}

// loadOptions builds pipeline load options from an optional positional
// argument and the config fallbacks.
func (c *CLI) loadOptions(path string) (pipeline.Options, error) {
	opts := pipeline.Options{Logger: c.Logger}
	if path == "" {
		path = c.Config.Data.Tree
	}
	if path != "" {
		opts.TreePath = path
		return opts, nil
	}
	if c.Config.Data.Nodes != "" && c.Config.Data.Edges != "" {
		opts.NodesPath = c.Config.Data.Nodes
		opts.EdgesPath = c.Config.Data.Edges
		return opts, nil
	}
	return opts, errors.New(errors.ErrCodeInvalidInput,
		"no tree given: pass a tree.json or configure [data] in %s", config.DefaultFileName)
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}
