// Package cache provides pluggable byte caches for pipeline artifacts:
// imported tree documents, layout snapshots, and rendered images.
//
// Keys are produced by a Keyer so every backend shares one naming scheme.
// All keys embed a content hash; a cache entry never goes stale, it only
// expires.
package cache

import (
	"context"
	"time"
)

// Default TTLs per artifact class. Tree documents and layouts are pure
// functions of their inputs and keep long TTLs; rendered artifacts are
// bigger and cheaper to redo.
const (
	TTLTree     = 7 * 24 * time.Hour
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Cache is a byte-oriented cache with optional per-entry TTL.
type Cache interface {
	// Get returns the cached bytes for key and whether the key was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A non-positive ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// LayoutKeyOpts are the inputs that change a computed layout for the same
// tree content.
type LayoutKeyOpts struct {
	ExpandDepth int    `json:"expand_depth"`
	Expanded    string `json:"expanded,omitempty"` // hash of an explicit expansion set
}

// ArtifactKeyOpts are the inputs that change a rendered artifact for the
// same layout.
type ArtifactKeyOpts struct {
	Kind       string  `json:"kind"`   // "radial" or "nodelink"
	Format     string  `json:"format"` // "svg", "png", "pdf", "dot", "json"
	LabelDepth int     `json:"label_depth,omitempty"`
	MaxDepth   int     `json:"max_depth,omitempty"`
	Scale      float64 `json:"scale,omitempty"`
}

// Keyer generates cache keys for the three artifact classes.
type Keyer interface {
	// TreeKey keys an imported tree document by its content hash.
	TreeKey(contentHash string) string

	// LayoutKey keys a layout snapshot by tree hash and layout options.
	LayoutKey(treeHash string, opts LayoutKeyOpts) string

	// ArtifactKey keys a rendered artifact by layout hash and render
	// options.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard key scheme. Keys look like
// "tree:<hash>", "layout:<hash>", "artifact:<hash>" where the hash covers
// every argument.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// TreeKey generates a key for an imported tree document.
func (k *DefaultKeyer) TreeKey(contentHash string) string {
	return "tree:" + contentHash
}

// LayoutKey generates a key for a layout snapshot.
func (k *DefaultKeyer) LayoutKey(treeHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", treeHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
