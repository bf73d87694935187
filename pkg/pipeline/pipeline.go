// Package pipeline provides the load → layout → render pipeline.
//
// CLI commands and the HTTP server both drive visualization through this
// package, so caching, validation, and defaults live here exactly once.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: read the tree from a JSON document or a CSV node/edge pair
//  2. Layout: compute the radial layout for a chosen expansion depth
//  3. Render: produce output artifacts (SVG, PNG, PDF, DOT, JSON)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    TreePath: "tree.json",
//	    Kind:     pipeline.KindRadial,
//	    Formats:  []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/treescope/treescope/pkg/cache"
	"github.com/treescope/treescope/pkg/layout"
	"github.com/treescope/treescope/pkg/tree"
)

// Default values shared by CLI and server.
const (
	// DefaultExpandDepth is how many levels of clusters start expanded
	// in batch layouts. Depth 2 keeps the headline structure visible
	// without drawing tens of thousands of markers.
	DefaultExpandDepth = 2

	// DefaultLabelDepth is the deepest level that still gets a label in
	// radial SVG output.
	DefaultLabelDepth = 2

	// DefaultNodelinkDepth bounds node-link exports; the full tree makes
	// Graphviz crawl.
	DefaultNodelinkDepth = 4
)

// Visualization kinds.
const (
	KindRadial   = "radial"
	KindNodelink = "nodelink"
)

// DefaultKind is the default visualization kind.
const DefaultKind = KindRadial

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatDOT:  true,
	FormatJSON: true,
}

// ValidKinds is the set of supported visualization kinds.
var ValidKinds = map[string]bool{
	KindRadial:   true,
	KindNodelink: true,
}

// Options contains all configuration for the pipeline.
// The struct supports JSON serialization for API requests.
type Options struct {
	// Load options: either a tree document or a CSV table pair.
	TreePath  string `json:"tree_path,omitempty"`
	NodesPath string `json:"nodes_path,omitempty"`
	EdgesPath string `json:"edges_path,omitempty"`
	Refresh   bool   `json:"refresh,omitempty"`

	// Layout options
	ExpandDepth int `json:"expand_depth,omitempty"`

	// Render options
	Kind       string   `json:"kind,omitempty"`
	Formats    []string `json:"formats,omitempty"`
	LabelDepth int      `json:"label_depth,omitempty"`
	MaxDepth   int      `json:"max_depth,omitempty"` // node-link level cut
	PNGScale   float64  `json:"png_scale,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Tree is the loaded tree index.
	Tree *tree.Tree

	// TreeHash is the content hash of the tree document.
	TreeHash string

	// Snapshot is the computed layout.
	Snapshot layout.Snapshot

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount    int
	VisibleCount int
	LoadTime     time.Duration
	LayoutTime   time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LoadHit   bool // Whether the tree document came from cache
	LayoutHit bool // Whether the layout snapshot came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: svg, png, pdf, dot, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateKind checks that a visualization kind is valid.
func ValidateKind(kind string) error {
	if !ValidKinds[kind] {
		return fmt.Errorf("invalid kind: %q (must be one of: radial, nodelink)", kind)
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults for
// the full pipeline. The method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	o.SetLayoutDefaults()
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks required fields for loading.
func (o *Options) ValidateForLoad() error {
	if o.TreePath == "" && (o.NodesPath == "" || o.EdgesPath == "") {
		return fmt.Errorf("tree_path or a nodes_path/edges_path pair is required")
	}
	if o.TreePath != "" && o.NodesPath != "" {
		return fmt.Errorf("tree_path and nodes_path are mutually exclusive")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.ExpandDepth == 0 {
		o.ExpandDepth = DefaultExpandDepth
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if o.Kind == "" {
		o.Kind = DefaultKind
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.LabelDepth == 0 {
		o.LabelDepth = DefaultLabelDepth
	}
	if o.MaxDepth == 0 {
		o.MaxDepth = DefaultNodelinkDepth
	}
	if o.PNGScale == 0 {
		o.PNGScale = 2.0
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateKind(o.Kind); err != nil {
		return err
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Kind == KindRadial {
		for _, f := range o.Formats {
			if f == FormatDOT {
				return fmt.Errorf("dot output requires kind=nodelink")
			}
		}
	}
	return nil
}

// IsRadial returns true for the native radial visualization.
func (o *Options) IsRadial() bool {
	return o.Kind == "" || o.Kind == KindRadial
}

// IsNodelink returns true for the Graphviz node-link visualization.
func (o *Options) IsNodelink() bool {
	return o.Kind == KindNodelink
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		ExpandDepth: o.ExpandDepth,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Kind:       o.Kind,
		Format:     format,
		LabelDepth: o.LabelDepth,
		MaxDepth:   o.MaxDepth,
		Scale:      o.PNGScale,
	}
}
