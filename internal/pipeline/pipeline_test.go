package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"testing"

	"lcclass/internal/classify"
	"lcclass/internal/config"
	"lcclass/internal/landcover"
	"lcclass/internal/raster"
	"lcclass/pkg/geometry"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sceneCRS = "EPSG:32651"

// scene is a 20x20 two-band raster: forest in columns 0-9 and water in
// columns 10-19, with a small deterministic texture so that class
// covariances are well conditioned.
func scene(t *testing.T) *raster.Raster {
	t.Helper()
	const w, h = 20, 20
	red := make([]float64, w*h)
	nir := make([]float64, w*h)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			i := row*w + col
			dr := float64((col*7+row*3)%5) * 0.004
			dn := float64((col*3+row*5)%7) * 0.006
			if col < 10 {
				red[i], nir[i] = 0.05+dr, 0.30+dn
			} else {
				red[i], nir[i] = 0.02+dr, 0.01+dn
			}
		}
	}
	r, err := raster.New(w, h, geometry.Identity(), sceneCRS,
		raster.Band{Name: "R", Data: red},
		raster.Band{Name: "NIR", Data: nir},
	)
	require.NoError(t, err)
	return r
}

func square(id string, class landcover.Class, x0, y0 float64) landcover.Polygon {
	return landcover.Polygon{
		ID:    id,
		Class: class,
		Geometry: orb.Polygon{orb.Ring{
			{x0, y0}, {x0 + 4, y0}, {x0 + 4, y0 + 4}, {x0, y0 + 4}, {x0, y0},
		}},
	}
}

func references() []landcover.Polygon {
	var out []landcover.Polygon
	for i, o := range [][2]float64{{0, 0}, {5, 0}, {0, 5}, {5, 5}} {
		out = append(out, square(fmt.Sprintf("forest-%d", i), landcover.TerrestrialForest, o[0], o[1]))
		out = append(out, square(fmt.Sprintf("water-%d", i), landcover.ResidualWater, o[0]+10, o[1]+10))
	}
	return out
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Workers = 2
	cfg.BlockRows = 7
	return cfg
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunMaxLikelihood(t *testing.T) {
	r := scene(t)
	r.Bands[1].Data[0] = math.NaN() // cell (0,0) lies in forest-0

	res, err := Run(context.Background(), testConfig(), Inputs{Raster: r, Polygons: references(), PolygonCRS: sceneCRS}, quiet())
	require.NoError(t, err)

	assert.Len(t, res.Training, 6)
	assert.Len(t, res.Validation, 2)
	assert.Equal(t, 1, res.Extraction.MissingDropped)
	assert.Len(t, res.Extraction.Samples, 8*16-1)

	assert.Equal(t, []landcover.Class{landcover.TerrestrialForest, landcover.ResidualWater}, res.Signatures.Classes)
	st, ok := res.Signatures.Get(landcover.ResidualWater, "NIR")
	require.True(t, ok)
	assert.Equal(t, 64, st.N)

	assert.Equal(t, classify.KindMaxLikelihood, res.Model.Kind())
	assert.Len(t, res.TrainSummary.Clamped(), 2)

	c := res.Classified
	assert.True(t, c.SameGrid(r))
	assert.Equal(t, landcover.NoData, c.At(0, 0))
	assert.Equal(t, landcover.TerrestrialForest, c.At(2, 17))
	assert.Equal(t, landcover.ResidualWater, c.At(17, 2))

	assert.Equal(t, len(res.ValidationSamples), res.Report.Matrix.Total())
	assert.True(t, res.Report.Overall.Defined)
	assert.Equal(t, 1.0, res.Report.Overall.V)
	for _, stage := range []string{"split", "extract", "summarize", "train", "predict", "assess"} {
		assert.Contains(t, res.Timings, stage)
	}
}

func TestRunRandomForestDeterministic(t *testing.T) {
	cfg := testConfig().WithModelKind(classify.KindRandomForest)
	cfg.TreeCount = 10

	run := func(workers int) *Result {
		res, err := Run(context.Background(), cfg.WithWorkers(workers), Inputs{Raster: scene(t), Polygons: references()}, quiet())
		require.NoError(t, err)
		return res
	}
	a, b := run(1), run(4)

	assert.Equal(t, a.Classified.Codes, b.Classified.Codes)
	assert.Equal(t, a.Predicted, b.Predicted)
	assert.Equal(t, 1.0, a.Report.Overall.V)

	ids := func(ps []landcover.Polygon) []string {
		var out []string
		for _, p := range ps {
			out = append(out, p.ID)
		}
		return out
	}
	assert.Equal(t, ids(a.Training), ids(b.Training))
}

func TestRunLoadedModel(t *testing.T) {
	cfg := testConfig()
	first, err := Run(context.Background(), cfg, Inputs{Raster: scene(t), Polygons: references()}, quiet())
	require.NoError(t, err)

	data, err := classify.Marshal(first.Model)
	require.NoError(t, err)
	model, err := classify.Unmarshal(data)
	require.NoError(t, err)

	second, err := Run(context.Background(), cfg, Inputs{Raster: scene(t), Polygons: references(), Model: model}, quiet())
	require.NoError(t, err)
	assert.Equal(t, first.Classified.Codes, second.Classified.Codes)
	assert.Empty(t, second.TrainSummary.Counts)
}

func TestRunCRSMismatch(t *testing.T) {
	_, err := Run(context.Background(), testConfig(), Inputs{Raster: scene(t), Polygons: references(), PolygonCRS: "EPSG:4326"}, quiet())
	var de *landcover.DataError
	assert.True(t, errors.As(err, &de))
}

func TestRunClassWithoutPixels(t *testing.T) {
	polys := append(references(), square("barren-0", landcover.BarrenExposed, 100, 100))
	res, err := Run(context.Background(), testConfig(), Inputs{Raster: scene(t), Polygons: polys}, quiet())

	var me *landcover.ModelingError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, landcover.BarrenExposed, me.Class)
	var se *landcover.SamplingError
	assert.True(t, errors.As(err, &se))

	require.NotNil(t, res)
	assert.Equal(t, []string{"barren-0"}, res.Extraction.EmptyPolygons)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, testConfig(), Inputs{Raster: scene(t), Polygons: references()}, quiet())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.TrainFraction = 0
	_, err := Run(context.Background(), cfg, Inputs{Raster: scene(t), Polygons: references()}, quiet())
	assert.Error(t, err)
}
