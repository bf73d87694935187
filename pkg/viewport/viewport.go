// Package viewport tracks the zoom factor and pan translation of the
// view and converts between screen and world coordinates.
//
// Screen and world are related by world = (screen - translation) / zoom.
// Zooming to the cursor holds the world point under the cursor fixed by
// recomputing the translation after the factor changes.
package viewport

// DefaultMinZoom is the smallest zoom factor a viewport allows unless
// configured otherwise.
const DefaultMinZoom = 0.05

// Rect is an axis-aligned rectangle in world coordinates.
type Rect struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// Intersects reports whether the two rectangles overlap.
func (r Rect) Intersects(o Rect) bool {
	return r.MinX <= o.MaxX && r.MaxX >= o.MinX && r.MinY <= o.MaxY && r.MaxY >= o.MinY
}

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

// Expand grows the rectangle by margin on every side.
func (r Rect) Expand(margin float64) Rect {
	return Rect{MinX: r.MinX - margin, MinY: r.MinY - margin, MaxX: r.MaxX + margin, MaxY: r.MaxY + margin}
}

// Viewport holds the current zoom, translation, and dirty flag.
// The zero value is not usable - use New.
type Viewport struct {
	zoom    float64
	minZoom float64
	tx, ty  float64
	dirty   bool
}

// New creates a viewport at zoom 1 with no translation.
func New() *Viewport {
	return &Viewport{zoom: 1, minZoom: DefaultMinZoom, dirty: true}
}

// SetMinZoom sets the lower clamp for the zoom factor.
func (v *Viewport) SetMinZoom(min float64) {
	if min > 0 {
		v.minZoom = min
	}
}

// Zoom returns the current zoom factor.
func (v *Viewport) Zoom() float64 { return v.zoom }

// Translation returns the current pan offset in screen units.
func (v *Viewport) Translation() (float64, float64) { return v.tx, v.ty }

// Dirty reports whether the view changed since the last ClearDirty.
func (v *Viewport) Dirty() bool { return v.dirty }

// ClearDirty marks the current view as drawn.
func (v *Viewport) ClearDirty() { v.dirty = false }

// Pan shifts the translation by the given screen-space delta.
func (v *Viewport) Pan(dx, dy float64) {
	v.tx += dx
	v.ty += dy
	v.dirty = true
}

// Reset restores zoom 1 and zero translation.
func (v *Viewport) Reset() {
	v.zoom = 1
	v.tx, v.ty = 0, 0
	v.dirty = true
}

// ScreenToWorld converts a screen point to world coordinates.
func (v *Viewport) ScreenToWorld(sx, sy float64) (float64, float64) {
	return (sx - v.tx) / v.zoom, (sy - v.ty) / v.zoom
}

// WorldToScreen converts a world point to screen coordinates.
func (v *Viewport) WorldToScreen(wx, wy float64) (float64, float64) {
	return wx*v.zoom + v.tx, wy*v.zoom + v.ty
}

// SetZoom clamps and applies a new zoom factor without adjusting the
// translation. Most callers want ZoomAt instead.
func (v *Viewport) SetZoom(zoom float64) {
	if zoom < v.minZoom {
		zoom = v.minZoom
	}
	if zoom != v.zoom {
		v.zoom = zoom
		v.dirty = true
	}
}

// ZoomAt applies a new zoom factor while keeping the world point under
// the given screen cursor fixed: the cursor's world position is computed
// before the change and the translation re-anchored to it afterwards.
func (v *Viewport) ZoomAt(cursorX, cursorY, zoom float64) {
	if zoom < v.minZoom {
		zoom = v.minZoom
	}
	if zoom == v.zoom {
		return
	}
	wx, wy := v.ScreenToWorld(cursorX, cursorY)
	v.zoom = zoom
	v.tx = cursorX - wx*v.zoom
	v.ty = cursorY - wy*v.zoom
	v.dirty = true
}

// VisibleWorld returns the world-space rectangle covered by a screen
// viewport of the given size, expanded by margin world units for
// conservative culling.
func (v *Viewport) VisibleWorld(screenW, screenH, margin float64) Rect {
	x0, y0 := v.ScreenToWorld(0, 0)
	x1, y1 := v.ScreenToWorld(screenW, screenH)
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return Rect{MinX: x0, MinY: y0, MaxX: x1, MaxY: y1}.Expand(margin)
}
