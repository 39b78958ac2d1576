// Package extract turns reference polygons into labeled pixel samples.
package extract

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"lcclass/internal/landcover"
	"lcclass/internal/raster"
	"lcclass/pkg/geometry"
)

// Options controls extraction.
type Options struct {
	// Workers bounds the number of polygons processed concurrently.
	// Zero means runtime.NumCPU().
	Workers int
}

// PolygonCount records how many cells one polygon produced.
type PolygonCount struct {
	PolygonID string
	Class     landcover.Class
	Cells     int // cells whose center lies inside the polygon
	Kept      int // cells with a complete band vector
}

// Result holds the extracted samples and diagnostics.
type Result struct {
	Samples []landcover.PixelSample

	// PerPolygon is aligned with the input polygons.
	PerPolygon []PolygonCount

	// EmptyPolygons lists polygons whose footprint covers no cell center.
	EmptyPolygons []string

	// MissingDropped counts cells dropped for a missing band value.
	MissingDropped int
}

// CheckCRS fails with a DataError when both coordinate systems are declared
// and differ. Reprojection is the caller's job.
func CheckCRS(rasterCRS, polygonCRS string) error {
	if rasterCRS != "" && polygonCRS != "" && rasterCRS != polygonCRS {
		return &landcover.DataError{Reason: fmt.Sprintf("raster CRS %q does not match polygon CRS %q", rasterCRS, polygonCRS)}
	}
	return nil
}

// Extract samples every raster cell whose center falls inside each polygon.
// Each sample carries its polygon's class and split tag. Cells with any
// missing (NaN) band value are dropped and counted. The output order is the
// polygon order, then row-major within a polygon, regardless of Workers.
func Extract(ctx context.Context, r *raster.Raster, polygons []landcover.Polygon, opts Options) (*Result, error) {
	if r == nil || r.Width == 0 || r.Height == 0 || r.BandCount() == 0 {
		return nil, &landcover.DataError{Reason: "empty raster"}
	}
	if err := landcover.ValidatePolygons(polygons); err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	type slot struct {
		samples []landcover.PixelSample
		count   PolygonCount
	}
	slots := make([]slot, len(polygons))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				s, c := extractPolygon(r, polygons[i])
				slots[i] = slot{samples: s, count: c}
			}
		}()
	}

	var cancelled error
feed:
	for i := range polygons {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	if cancelled != nil {
		return nil, cancelled
	}

	res := &Result{PerPolygon: make([]PolygonCount, len(polygons))}
	for i, s := range slots {
		res.Samples = append(res.Samples, s.samples...)
		res.PerPolygon[i] = s.count
		res.MissingDropped += s.count.Cells - s.count.Kept
		if s.count.Cells == 0 {
			res.EmptyPolygons = append(res.EmptyPolygons, s.count.PolygonID)
		}
	}
	return res, nil
}

func extractPolygon(r *raster.Raster, p landcover.Polygon) ([]landcover.PixelSample, PolygonCount) {
	count := PolygonCount{PolygonID: p.ID, Class: p.Class}
	win := geometry.CellWindow(r.Transform, p.Bound(), r.Width, r.Height)

	var out []landcover.PixelSample
	for row := win.Row0; row < win.Row1; row++ {
		for col := win.Col0; col < win.Col1; col++ {
			if !geometry.Contains(p.Geometry, r.Transform.CellCenter(col, row)) {
				continue
			}
			count.Cells++
			values := r.Pixel(col, row, nil)
			if !landcover.CompleteVector(values) {
				continue
			}
			count.Kept++
			out = append(out, landcover.PixelSample{
				PolygonID: p.ID,
				Class:     p.Class,
				Split:     p.Split,
				Col:       col,
				Row:       row,
				Values:    values,
			})
		}
	}
	return out, count
}
