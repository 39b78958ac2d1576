package classify

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"lcclass/internal/landcover"
	"lcclass/internal/raster"
)

// DefaultBlockRows is the number of raster rows classified per block.
const DefaultBlockRows = 256

// PredictOptions controls raster-wide prediction.
type PredictOptions struct {
	// Workers bounds the goroutines classifying rows of a block.
	// Zero means runtime.NumCPU().
	Workers int

	// BlockRows is the block height. Zero means DefaultBlockRows.
	BlockRows int

	// OnBlock, if set, is called after each block of rows [row0, row1) is
	// complete, in row order. Returning an error stops prediction.
	OnBlock func(row0, row1 int, out *raster.Classified) error
}

// ClassifyVector labels x, returning NoData when any value is missing.
func ClassifyVector(m Model, x []float64) landcover.Class {
	if len(x) != m.BandCount() || !landcover.CompleteVector(x) {
		return landcover.NoData
	}
	return m.Classify(x)
}

// Predict labels each sample. Samples with missing values get NoData.
func Predict(m Model, samples []landcover.PixelSample) []landcover.Class {
	out := make([]landcover.Class, len(samples))
	for i, s := range samples {
		out[i] = ClassifyVector(m, s.Values)
	}
	return out
}

// PredictRaster classifies every cell of r independently. Cells with any
// missing band value become NoData. The output shares r's extent,
// resolution and CRS. Work proceeds in row blocks; ctx is checked between
// blocks.
func PredictRaster(ctx context.Context, m Model, r *raster.Raster, opts PredictOptions) (*raster.Classified, error) {
	if r == nil || r.Width == 0 || r.Height == 0 {
		return nil, &landcover.DataError{Reason: "empty raster"}
	}
	if r.BandCount() != m.BandCount() {
		return nil, &landcover.DataError{Reason: fmt.Sprintf("raster has %d bands, model expects %d", r.BandCount(), m.BandCount())}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	blockRows := opts.BlockRows
	if blockRows <= 0 {
		blockRows = DefaultBlockRows
	}

	out := raster.NewClassifiedLike(r)
	for row0 := 0; row0 < r.Height; row0 += blockRows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row1 := min(row0+blockRows, r.Height)
		classifyRows(m, r, out, row0, row1, workers)
		if opts.OnBlock != nil {
			if err := opts.OnBlock(row0, row1, out); err != nil {
				return nil, fmt.Errorf("block %d-%d: %w", row0, row1, err)
			}
		}
	}
	return out, nil
}

// classifyRows fans rows [row0, row1) out to workers. Each row writes only
// its own slice of out.Codes.
func classifyRows(m Model, r *raster.Raster, out *raster.Classified, row0, row1, workers int) {
	rows := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(workers, row1-row0); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf := make([]float64, r.BandCount())
			for row := range rows {
				base := row * r.Width
				for col := 0; col < r.Width; col++ {
					buf = r.Pixel(col, row, buf)
					out.Codes[base+col] = ClassifyVector(m, buf)
				}
			}
		}()
	}
	for row := row0; row < row1; row++ {
		rows <- row
	}
	close(rows)
	wg.Wait()
}
