package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/treescope/treescope/pkg/cache"
	"github.com/treescope/treescope/pkg/cluster"
	"github.com/treescope/treescope/pkg/layout"
	"github.com/treescope/treescope/pkg/render"
	"github.com/treescope/treescope/pkg/render/nodelink"
	"github.com/treescope/treescope/pkg/tree"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use it so caching logic exists exactly once.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely share one
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Load
	loadStart := time.Now()
	t, treeHash, loadHit, err := r.LoadWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Tree = t
	result.TreeHash = treeHash
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.NodeCount = t.Len()
	result.CacheInfo.LoadHit = loadHit

	r.Logger.Info("loaded tree",
		"nodes", t.Len(),
		"duration", result.Stats.LoadTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	snapshot, layoutHit, err := r.ComputeLayoutWithCacheInfo(ctx, t, treeHash, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Snapshot = snapshot
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.VisibleCount = snapshot.NodeCount
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"visible", snapshot.NodeCount,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, t, snapshot, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LoadWithCacheInfo loads the tree with caching and returns the content
// hash of its canonical document form along with cache hit info.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, opts Options) (*tree.Tree, string, bool, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, "", false, err
	}
	r.applyLogger(&opts)

	input, err := readInputs(opts)
	if err != nil {
		return nil, "", false, err
	}
	cacheKey := r.Keyer.TreeKey(cache.Hash(input))

	// Cached entries hold the canonical document, so the tree hash on a
	// hit matches the hash stored on the original miss.
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if t, err := tree.ReadJSON(bytes.NewReader(data)); err == nil {
				return t, cache.Hash(data), true, nil
			}
		}
	}

	t, err := parseInput(opts)
	if err != nil {
		return nil, "", false, err
	}

	var doc bytes.Buffer
	if err := t.WriteJSON(&doc); err != nil {
		return nil, "", false, err
	}
	_ = r.Cache.Set(ctx, cacheKey, doc.Bytes(), cache.TTLTree)

	return t, cache.Hash(doc.Bytes()), false, nil
}

// Load is a convenience wrapper that discards the cache hit info.
func (r *Runner) Load(ctx context.Context, opts Options) (*tree.Tree, string, error) {
	t, hash, _, err := r.LoadWithCacheInfo(ctx, opts)
	return t, hash, err
}

// ComputeLayoutWithCacheInfo computes a layout snapshot with caching and
// returns cache hit info.
func (r *Runner) ComputeLayoutWithCacheInfo(ctx context.Context, t *tree.Tree, treeHash string, opts Options) (layout.Snapshot, bool, error) {
	opts.SetLayoutDefaults()
	r.applyLogger(&opts)

	cacheKey := r.Keyer.LayoutKey(treeHash, opts.LayoutKeyOpts())

	if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
		if cached, err := layout.UnmarshalSnapshot(data); err == nil {
			return cached, true, nil
		}
		// Corrupt entry: fall through to recompute.
	}

	snapshot := ComputeLayout(t, opts.ExpandDepth)

	if data, err := layout.MarshalSnapshot(snapshot); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout)
	}

	return snapshot, false, nil
}

// ComputeLayout lays the tree out with every cluster at depth 1 through
// expandDepth expanded. It is the uncached core of the layout stage.
func ComputeLayout(t *tree.Tree, expandDepth int) layout.Snapshot {
	cm := cluster.NewManager(t)
	for level := 1; level <= expandDepth; level++ {
		cm.ExpandAtLevel(level)
	}
	positions, levels := layout.NewEngine().Compute(t, cm)
	return layout.NewSnapshot(positions, levels, cm.ExpandedIDs())
}

// RenderWithCacheInfo renders artifacts with caching and returns cache
// hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, t *tree.Tree, s layout.Snapshot, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	layoutData, err := layout.MarshalSnapshot(s)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)

	// Try to get all formats from cache.
	allCached := true
	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			artifacts[format] = data
		} else {
			allCached = false
			break
		}
	}
	if allCached && len(artifacts) == len(opts.Formats) {
		return artifacts, true, nil
	}

	rendered, err := renderFormats(t, s, layoutData, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact)
	}

	return rendered, false, nil
}

// Render is a convenience wrapper that discards the cache hit info.
func (r *Runner) Render(ctx context.Context, t *tree.Tree, s layout.Snapshot, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, t, s, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// readInputs returns the raw bytes of whichever input form the options
// name; they feed the load-stage cache key.
func readInputs(opts Options) ([]byte, error) {
	if opts.TreePath != "" {
		return os.ReadFile(opts.TreePath)
	}
	nodes, err := os.ReadFile(opts.NodesPath)
	if err != nil {
		return nil, err
	}
	edges, err := os.ReadFile(opts.EdgesPath)
	if err != nil {
		return nil, err
	}
	return append(nodes, edges...), nil
}

func parseInput(opts Options) (*tree.Tree, error) {
	if opts.TreePath != "" {
		return tree.ImportJSON(opts.TreePath)
	}
	return tree.Load(opts.NodesPath, opts.EdgesPath)
}

// renderFormats produces every requested format. The snapshot's own JSON
// is reused for the json format so it matches the cache key input.
func renderFormats(t *tree.Tree, s layout.Snapshot, layoutData []byte, opts Options) (map[string][]byte, error) {
	out := make(map[string][]byte, len(opts.Formats))

	var radialSVG []byte
	var dot string
	for _, format := range opts.Formats {
		switch {
		case format == FormatJSON:
			out[format] = layoutData

		case opts.IsRadial():
			if radialSVG == nil {
				radialSVG = render.RenderSVG(s,
					render.WithTree(t),
					render.WithLabelDepth(opts.LabelDepth),
				)
			}
			data, err := convertRadial(radialSVG, format, opts.PNGScale)
			if err != nil {
				return nil, err
			}
			out[format] = data

		default: // node-link
			if dot == "" {
				dot = nodelink.ToDOT(t, nodelink.Options{MaxDepth: opts.MaxDepth, Labeled: true})
			}
			data, err := convertNodelink(dot, format, opts.PNGScale)
			if err != nil {
				return nil, err
			}
			out[format] = data
		}
	}
	return out, nil
}

func convertRadial(svg []byte, format string, scale float64) ([]byte, error) {
	switch format {
	case FormatSVG:
		return svg, nil
	case FormatPNG:
		return render.ToPNG(svg, scale)
	case FormatPDF:
		return render.ToPDF(svg)
	}
	return nil, fmt.Errorf("format %q not supported for radial output", format)
}

func convertNodelink(dot, format string, scale float64) ([]byte, error) {
	switch format {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		return nodelink.RenderSVG(dot)
	case FormatPNG:
		return nodelink.RenderPNG(dot, scale)
	case FormatPDF:
		return nodelink.RenderPDF(dot)
	}
	return nil, fmt.Errorf("format %q not supported for node-link output", format)
}
