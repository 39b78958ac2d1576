// Package geometry maps between raster cell indices and map coordinates.
package geometry

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// GeoTransform is a 2x3 affine transform from (col, row) cell-corner
// coordinates to map coordinates.
// [a b tx]
// [c d ty]
// Field order follows the usual GDAL convention:
// x = TX + A*col + B*row, y = TY + C*col + D*row.
type GeoTransform struct {
	A, B, TX float64
	C, D, TY float64
}

// Identity returns the transform where cell (col, row) has its corner at map
// (col, row). Useful for rasters without georeferencing.
func Identity() GeoTransform {
	return GeoTransform{A: 1, D: 1}
}

// NorthUp returns a transform for an unrotated raster with the given
// upper-left corner and cell size. Rows grow southward.
func NorthUp(originX, originY, cellWidth, cellHeight float64) GeoTransform {
	return GeoTransform{A: cellWidth, TX: originX, D: -cellHeight, TY: originY}
}

// FromGDAL builds a transform from the six GDAL coefficients
// [x0, pixelWidth, rowRotation, y0, colRotation, pixelHeight].
func FromGDAL(gt [6]float64) GeoTransform {
	return GeoTransform{
		TX: gt[0], A: gt[1], B: gt[2],
		TY: gt[3], C: gt[4], D: gt[5],
	}
}

// GDAL returns the transform as GDAL's six coefficients.
func (t GeoTransform) GDAL() [6]float64 {
	return [6]float64{t.TX, t.A, t.B, t.TY, t.C, t.D}
}

// Apply maps fractional cell coordinates to map coordinates.
func (t GeoTransform) Apply(col, row float64) orb.Point {
	return orb.Point{
		t.A*col + t.B*row + t.TX,
		t.C*col + t.D*row + t.TY,
	}
}

// CellCenter returns the map coordinate of the center of cell (col, row).
func (t GeoTransform) CellCenter(col, row int) orb.Point {
	return t.Apply(float64(col)+0.5, float64(row)+0.5)
}

// Inverse returns the transform from map coordinates back to cell
// coordinates, if it exists.
func (t GeoTransform) Inverse() (GeoTransform, bool) {
	det := t.A*t.D - t.B*t.C
	if math.Abs(det) < 1e-12 {
		return GeoTransform{}, false
	}

	invDet := 1.0 / det
	return GeoTransform{
		A:  t.D * invDet,
		B:  -t.B * invDet,
		TX: (t.B*t.TY - t.D*t.TX) * invDet,
		C:  -t.C * invDet,
		D:  t.A * invDet,
		TY: (t.C*t.TX - t.A*t.TY) * invDet,
	}, true
}

// Equal reports whether two transforms are identical within tol.
func (t GeoTransform) Equal(o GeoTransform, tol float64) bool {
	a, b := t.GDAL(), o.GDAL()
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

func (t GeoTransform) String() string {
	return fmt.Sprintf("[%g %g %g %g %g %g]", t.TX, t.A, t.B, t.TY, t.C, t.D)
}
