package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Window is a half-open range of raster cells [Col0, Col1) x [Row0, Row1).
type Window struct {
	Col0, Row0 int
	Col1, Row1 int
}

// Empty reports whether the window holds no cells.
func (w Window) Empty() bool {
	return w.Col1 <= w.Col0 || w.Row1 <= w.Row0
}

// Cells returns the number of cells in the window.
func (w Window) Cells() int {
	if w.Empty() {
		return 0
	}
	return (w.Col1 - w.Col0) * (w.Row1 - w.Row0)
}

// CellWindow returns the cells of a width x height grid whose extent may
// overlap bound. The window is clipped to the grid; it is empty when bound
// lies outside the raster.
func CellWindow(t GeoTransform, b orb.Bound, width, height int) Window {
	inv, ok := t.Inverse()
	if !ok {
		return Window{}
	}

	corners := []orb.Point{
		{b.Min[0], b.Min[1]},
		{b.Min[0], b.Max[1]},
		{b.Max[0], b.Min[1]},
		{b.Max[0], b.Max[1]},
	}
	minC, minR := math.Inf(1), math.Inf(1)
	maxC, maxR := math.Inf(-1), math.Inf(-1)
	for _, p := range corners {
		c := inv.Apply(p[0], p[1])
		minC = math.Min(minC, c[0])
		maxC = math.Max(maxC, c[0])
		minR = math.Min(minR, c[1])
		maxR = math.Max(maxR, c[1])
	}

	w := Window{
		Col0: clamp(int(math.Floor(minC)), 0, width),
		Row0: clamp(int(math.Floor(minR)), 0, height),
		Col1: clamp(int(math.Ceil(maxC))+1, 0, width),
		Row1: clamp(int(math.Ceil(maxR))+1, 0, height),
	}
	return w
}

// Contains tests whether p lies inside a polygon or multipolygon, honouring
// holes. Other geometry types never contain a point.
func Contains(g orb.Geometry, p orb.Point) bool {
	switch g := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, p)
	default:
		return false
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
