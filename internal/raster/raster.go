// Package raster holds multi-band reflectance grids and classified outputs,
// plus the file adapters that load and persist them.
package raster

import (
	"fmt"
	"math"

	"lcclass/internal/landcover"
	"lcclass/pkg/geometry"
)

// Band is one named spectral band stored row-major. Missing values are NaN.
type Band struct {
	Name string
	Data []float64
}

// Raster is a georeferenced multi-band grid. All bands share the same
// width, height, transform and coordinate system.
type Raster struct {
	Width     int
	Height    int
	Transform geometry.GeoTransform
	CRS       string
	Bands     []Band
}

// New validates the band layout and returns a raster.
func New(width, height int, transform geometry.GeoTransform, crs string, bands ...Band) (*Raster, error) {
	if width <= 0 || height <= 0 {
		return nil, &landcover.DataError{Reason: fmt.Sprintf("empty raster %dx%d", width, height)}
	}
	if len(bands) == 0 {
		return nil, &landcover.DataError{Reason: "raster has no bands"}
	}
	seen := map[string]bool{}
	for _, b := range bands {
		if len(b.Data) != width*height {
			return nil, &landcover.DataError{Reason: fmt.Sprintf("band %s has %d values, want %d", b.Name, len(b.Data), width*height)}
		}
		if b.Name == "" || seen[b.Name] {
			return nil, &landcover.DataError{Reason: fmt.Sprintf("band name %q is empty or repeated", b.Name)}
		}
		seen[b.Name] = true
	}
	if _, ok := transform.Inverse(); !ok {
		return nil, &landcover.DataError{Reason: "geotransform is not invertible"}
	}
	return &Raster{
		Width:     width,
		Height:    height,
		Transform: transform,
		CRS:       crs,
		Bands:     bands,
	}, nil
}

// BandCount returns the number of bands.
func (r *Raster) BandCount() int { return len(r.Bands) }

// BandNames returns band names in storage order.
func (r *Raster) BandNames() []string {
	names := make([]string, len(r.Bands))
	for i, b := range r.Bands {
		names[i] = b.Name
	}
	return names
}

// Contains reports whether (col, row) is inside the grid.
func (r *Raster) Contains(col, row int) bool {
	return col >= 0 && col < r.Width && row >= 0 && row < r.Height
}

// Pixel copies the band vector of cell (col, row) into dst, growing it if
// needed, and returns it.
func (r *Raster) Pixel(col, row int, dst []float64) []float64 {
	if cap(dst) < len(r.Bands) {
		dst = make([]float64, len(r.Bands))
	}
	dst = dst[:len(r.Bands)]
	i := row*r.Width + col
	for b := range r.Bands {
		dst[b] = r.Bands[b].Data[i]
	}
	return dst
}

// SetNoData replaces every occurrence of v in all bands with NaN.
func (r *Raster) SetNoData(v float64) {
	if math.IsNaN(v) {
		return
	}
	for _, b := range r.Bands {
		for i, x := range b.Data {
			if x == v {
				b.Data[i] = math.NaN()
			}
		}
	}
}

// Classified is a class-code grid congruent with the raster it was
// predicted from.
type Classified struct {
	Width     int
	Height    int
	Transform geometry.GeoTransform
	CRS       string
	Codes     []landcover.Class
}

// NewClassifiedLike allocates a NoData-filled grid sharing r's geometry.
func NewClassifiedLike(r *Raster) *Classified {
	return &Classified{
		Width:     r.Width,
		Height:    r.Height,
		Transform: r.Transform,
		CRS:       r.CRS,
		Codes:     make([]landcover.Class, r.Width*r.Height),
	}
}

// At returns the class at (col, row).
func (c *Classified) At(col, row int) landcover.Class {
	return c.Codes[row*c.Width+col]
}

// Counts tallies cells per class, NoData included.
func (c *Classified) Counts() map[landcover.Class]int {
	out := make(map[landcover.Class]int)
	for _, code := range c.Codes {
		out[code]++
	}
	return out
}

// SameGrid reports whether c has the extent, resolution and CRS of r.
func (c *Classified) SameGrid(r *Raster) bool {
	return c.Width == r.Width && c.Height == r.Height &&
		c.CRS == r.CRS && c.Transform == r.Transform
}
