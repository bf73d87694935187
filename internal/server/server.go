// Package server exposes the visualization pipeline over HTTP.
//
// Batch endpoints (layout, render, query) run through the shared
// pipeline runner so they hit the same cache as the CLI. Interactive
// exploration happens through uuid-keyed sessions, each owning a scene
// controller that clients drive with pointer events.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/treescope/treescope/pkg/errors"
	"github.com/treescope/treescope/pkg/layout"
	"github.com/treescope/treescope/pkg/pipeline"
	"github.com/treescope/treescope/pkg/scene"
	"github.com/treescope/treescope/pkg/spatial"
	"github.com/treescope/treescope/pkg/store"
	"github.com/treescope/treescope/pkg/tree"
)

// Server serves one loaded tree.
type Server struct {
	tree     *tree.Tree
	treeHash string
	runner   *pipeline.Runner
	catalog  *store.Store
	logger   *log.Logger
	sessions *sessionManager
}

// Options configures a Server. Tree, TreeHash, and Runner are required;
// Catalog is optional.
type Options struct {
	Tree     *tree.Tree
	TreeHash string
	Runner   *pipeline.Runner
	Catalog  *store.Store
	Logger   *log.Logger
}

// New creates a server for the given tree.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		tree:     opts.Tree,
		treeHash: opts.TreeHash,
		runner:   opts.Runner,
		catalog:  opts.Catalog,
		logger:   logger,
		sessions: newSessionManager(),
	}
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Get("/tree/stats", s.handleStats)
	r.Get("/layout", s.handleLayout)
	r.Get("/render.svg", s.handleRenderSVG)
	r.Get("/query", s.handleQuery)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Get("/{id}", s.handleGetSession)
		r.Post("/{id}/events", s.handleSessionEvent)
		r.Delete("/{id}", s.handleDropSession)
	})

	if s.catalog != nil {
		r.Get("/catalog/trees", s.handleCatalogTrees)
		r.Get("/catalog/snapshots", s.handleCatalogSnapshots)
	}

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	maxLevel := 0
	extinct := 0
	for _, id := range s.tree.IDs() {
		if lvl := s.tree.Level(id); lvl > maxLevel {
			maxLevel = lvl
		}
		if n, _ := s.tree.Node(id); n.Extinct {
			extinct++
		}
	}
	root, _ := s.tree.Node(tree.RootID)

	writeJSON(w, http.StatusOK, map[string]any{
		"root":      root.Name,
		"nodes":     s.tree.Len(),
		"max_level": maxLevel,
		"extinct":   extinct,
		"hash":      s.treeHash,
	})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	snap, err := s.computeLayout(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleRenderSVG(w http.ResponseWriter, r *http.Request) {
	snap, err := s.computeLayout(r)
	if err != nil {
		writeError(w, err)
		return
	}

	opts := pipeline.Options{
		Kind:    pipeline.KindRadial,
		Formats: []string{pipeline.FormatSVG},
	}
	if d, ok := queryInt(r, "labels"); ok {
		opts.LabelDepth = d
	}

	artifacts, _, err := s.runner.RenderWithCacheInfo(r.Context(), s.tree, snap, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(artifacts[pipeline.FormatSVG])
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	x, okX := queryFloat(r, "x")
	y, okY := queryFloat(r, "y")
	if !okX || !okY {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "x and y query parameters are required"))
		return
	}

	snap, err := s.computeLayout(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ix := spatial.New()
	for _, p := range snap.Placed {
		ix.Insert(p.ID, p.X, p.Y)
	}
	id, ok := ix.Query(x, y)
	if !ok {
		writeError(w, errors.New(errors.ErrCodeNodeNotFound, "no node at (%.1f, %.1f)", x, y))
		return
	}

	n, _ := s.tree.Node(id)
	pos, _ := snapshotPosition(snap, id)
	writeJSON(w, http.StatusOK, map[string]any{
		"node":     n,
		"level":    s.tree.Level(id),
		"children": len(s.tree.Children(id)),
		"x":        pos.X,
		"y":        pos.Y,
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id := s.sessions.create(s.tree)
	sess := s.sessions.get(id)

	var visible int
	sess.with(func(ctl *scene.Controller) { visible = ctl.VisibleCount() })

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":      id,
		"nodes":   s.tree.Len(),
		"visible": visible,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(chi.URLParam(r, "id"))
	if sess == nil {
		writeError(w, errors.New(errors.ErrCodeSessionNotFound, "unknown session"))
		return
	}

	var snap layout.Snapshot
	sess.with(func(ctl *scene.Controller) { snap = ctl.Snapshot() })
	writeJSON(w, http.StatusOK, snap)
}

// sessionEvent is one pointer interaction relayed by a client.
type sessionEvent struct {
	Type    string  `json:"type"` // "click", "move", "wheel", "reset"
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Notches int     `json:"notches"`
}

func (s *Server) handleSessionEvent(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(chi.URLParam(r, "id"))
	if sess == nil {
		writeError(w, errors.New(errors.ErrCodeSessionNotFound, "unknown session"))
		return
	}

	var ev sessionEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode event"))
		return
	}

	var (
		toggled int
		visible int
		hovered int
		zoom    float64
	)
	var badType bool
	sess.with(func(ctl *scene.Controller) {
		switch ev.Type {
		case "click":
			toggled = ctl.Click(ev.X, ev.Y)
		case "move":
			ctl.PointerMoved(ev.X, ev.Y)
		case "wheel":
			ctl.Wheel(ev.Notches, ev.X, ev.Y)
		case "reset":
			ctl.Reset()
		default:
			badType = true
		}
		visible = ctl.VisibleCount()
		hovered = ctl.Hovered()
		zoom = ctl.View().Zoom()
	})
	if badType {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "unknown event type %q", ev.Type))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"toggled": toggled,
		"visible": visible,
		"hovered": hovered,
		"zoom":    zoom,
	})
}

func (s *Server) handleDropSession(w http.ResponseWriter, r *http.Request) {
	s.sessions.drop(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCatalogTrees(w http.ResponseWriter, r *http.Request) {
	infos, err := s.catalog.ListTrees(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleCatalogSnapshots(w http.ResponseWriter, r *http.Request) {
	infos, err := s.catalog.ListSnapshots(r.Context(), r.URL.Query().Get("tree"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

// computeLayout runs the cached layout stage for the depth named in the
// request.
func (s *Server) computeLayout(r *http.Request) (layout.Snapshot, error) {
	opts := pipeline.Options{}
	if d, ok := queryInt(r, "depth"); ok {
		if d < 0 {
			return layout.Snapshot{}, errors.New(errors.ErrCodeInvalidInput, "depth must be non-negative")
		}
		opts.ExpandDepth = d
	}
	snap, _, err := s.runner.ComputeLayoutWithCacheInfo(r.Context(), s.tree, s.treeHash, opts)
	return snap, err
}

func snapshotPosition(s layout.Snapshot, id int) (layout.Point, bool) {
	for _, p := range s.Placed {
		if p.ID == id {
			return layout.Point{X: p.X, Y: p.Y}, true
		}
	}
	return layout.Point{}, false
}

func queryInt(r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func queryFloat(r *http.Request, name string) (float64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps structured error codes onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat:
		status = http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeNodeNotFound,
		errors.ErrCodeFileNotFound, errors.ErrCodeSessionNotFound:
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    string(errors.GetCode(err)),
			"message": errors.UserMessage(err),
		},
	})
}
