package classify

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"lcclass/internal/landcover"
	"lcclass/internal/raster"
	"lcclass/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	forest = landcover.TerrestrialForest
	dry    = landcover.MixedVegetationDry
	water  = landcover.ResidualWater
)

func sample(c landcover.Class, v ...float64) landcover.PixelSample {
	return landcover.PixelSample{PolygonID: fmt.Sprintf("p%d", c), Class: c, Split: landcover.SplitTraining, Values: v}
}

// twoClassSamples has two square clusters with identical covariance 4/3*I
// centered on (11,11) and (31,31).
func twoClassSamples() []landcover.PixelSample {
	return []landcover.PixelSample{
		sample(forest, 10, 10), sample(forest, 12, 10), sample(forest, 10, 12), sample(forest, 12, 12),
		sample(dry, 30, 30), sample(dry, 32, 30), sample(dry, 30, 32), sample(dry, 32, 32),
	}
}

func gridRaster(t *testing.T, width, height int, b0, b1 []float64) *raster.Raster {
	t.Helper()
	r, err := raster.New(width, height, geometry.Identity(), "",
		raster.Band{Name: "R", Data: b0},
		raster.Band{Name: "NIR", Data: b1},
	)
	require.NoError(t, err)
	return r
}

func scenarioRaster(t *testing.T) *raster.Raster {
	nan := math.NaN()
	return gridRaster(t, 3, 3,
		[]float64{11, 31, 20, 22, 40, 21, 0, nan, 21},
		[]float64{11, 31, 20, 22, 35, 21, 0, 5, 22},
	)
}

func TestGaussianFit(t *testing.T) {
	m, summary, err := Train(twoClassSamples(), DefaultParams())
	require.NoError(t, err)
	g, ok := m.(*Gaussian)
	require.True(t, ok)

	assert.Equal(t, []landcover.Class{forest, dry}, g.Classes())
	assert.Equal(t, 2, g.BandCount())

	mean, ok := g.Mean(forest)
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{11, 11}, mean, 1e-12)

	cov, ok := g.Covariance(dry)
	require.True(t, ok)
	assert.InDelta(t, 4.0/3, cov.At(0, 0), 1e-12)
	assert.InDelta(t, 0, cov.At(0, 1), 1e-12)
	assert.InDelta(t, 4.0/3, cov.At(1, 1), 1e-12)

	assert.Equal(t, 2, summary.Bands)
	assert.Equal(t, []ClassCount{{forest, 4, 4}, {dry, 4, 4}}, summary.Counts)
	assert.Len(t, summary.Clamped(), 2) // 4 < 500
}

func TestGaussianPredictRaster(t *testing.T) {
	m, _, err := Train(twoClassSamples(), DefaultParams())
	require.NoError(t, err)

	out, err := PredictRaster(context.Background(), m, scenarioRaster(t), PredictOptions{Workers: 2, BlockRows: 2})
	require.NoError(t, err)

	want := []landcover.Class{
		forest, dry, forest,
		dry, dry, forest, // (21,21) is equidistant: lowest code wins
		forest, landcover.NoData, dry,
	}
	assert.Equal(t, want, out.Codes)
	assert.Equal(t, 3, out.Width)
}

func TestPredictRasterWorkerIndependent(t *testing.T) {
	m, _, err := Train(twoClassSamples(), DefaultParams())
	require.NoError(t, err)

	const w, h = 17, 23
	b0 := make([]float64, w*h)
	b1 := make([]float64, w*h)
	for i := range b0 {
		b0[i] = float64(i%41) + 0.25
		b1[i] = float64(i%37) - 0.5
	}
	r := gridRaster(t, w, h, b0, b1)

	a, err := PredictRaster(context.Background(), m, r, PredictOptions{Workers: 1, BlockRows: 1})
	require.NoError(t, err)
	b, err := PredictRaster(context.Background(), m, r, PredictOptions{Workers: 8, BlockRows: 5})
	require.NoError(t, err)
	assert.Equal(t, a.Codes, b.Codes)
}

func TestPredictRasterBlocksAndCancel(t *testing.T) {
	m, _, err := Train(twoClassSamples(), DefaultParams())
	require.NoError(t, err)
	r := scenarioRaster(t)

	var blocks [][2]int
	_, err = PredictRaster(context.Background(), m, r, PredictOptions{BlockRows: 2, OnBlock: func(row0, row1 int, _ *raster.Classified) error {
		blocks = append(blocks, [2]int{row0, row1})
		return nil
	}})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{0, 2}, {2, 3}}, blocks)

	stop := errors.New("stop")
	_, err = PredictRaster(context.Background(), m, r, PredictOptions{BlockRows: 1, OnBlock: func(int, int, *raster.Classified) error {
		return stop
	}})
	assert.ErrorIs(t, err, stop)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = PredictRaster(ctx, m, r, PredictOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPredictRasterBandMismatch(t *testing.T) {
	m, _, err := Train(twoClassSamples(), DefaultParams())
	require.NoError(t, err)
	r, err := raster.New(2, 2, geometry.Identity(), "", raster.Band{Name: "R", Data: make([]float64, 4)})
	require.NoError(t, err)

	_, err = PredictRaster(context.Background(), m, r, PredictOptions{})
	var de *landcover.DataError
	assert.True(t, errors.As(err, &de))
}

func TestPredictSamples(t *testing.T) {
	m, _, err := Train(twoClassSamples(), DefaultParams())
	require.NoError(t, err)
	got := Predict(m, []landcover.PixelSample{
		sample(dry, 29, 33),
		sample(forest, 9, 13),
		sample(forest, math.NaN(), 1),
		sample(forest, 1),
	})
	assert.Equal(t, []landcover.Class{dry, forest, landcover.NoData, landcover.NoData}, got)
}

func TestTrainSingletonClass(t *testing.T) {
	in := append(twoClassSamples(), sample(water, 1, 2))
	_, _, err := Train(in, DefaultParams())

	var me *landcover.ModelingError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, water, me.Class)
}

func TestTrainSingularCovariance(t *testing.T) {
	in := append(twoClassSamples(), sample(water, 1, 1), sample(water, 2, 2), sample(water, 3, 3))
	_, _, err := Train(in, DefaultParams())

	var me *landcover.ModelingError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, water, me.Class)
	assert.Contains(t, me.Reason, "singular")
}

func TestTrainMissingClass(t *testing.T) {
	p := DefaultParams().WithClasses(forest, dry, water)
	_, _, err := Train(twoClassSamples(), p)

	var me *landcover.ModelingError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, water, me.Class)

	var se *landcover.SamplingError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, water, se.Class)
}

func TestTrainSubsample(t *testing.T) {
	var in []landcover.PixelSample
	for i := 0; i < 50; i++ {
		x := float64(i % 7)
		y := float64(i % 5)
		in = append(in, sample(forest, x, y), sample(dry, 20+x, 20+y*1.5))
	}
	in = append(in, sample(forest, math.NaN(), 3))

	p := DefaultParams().WithSampleSize(20).WithSeed(9)
	_, s1, err := Train(in, p)
	require.NoError(t, err)
	assert.Equal(t, 1, s1.Skipped)
	assert.Equal(t, []ClassCount{{forest, 50, 20}, {dry, 50, 20}}, s1.Counts)
	assert.Empty(t, s1.Clamped())

	m1, _, _ := Train(in, p)
	m2, _, _ := Train(in, p)
	b1, err := Marshal(m1)
	require.NoError(t, err)
	b2, err := Marshal(m2)
	require.NoError(t, err)
	assert.Equal(t, string(b1), string(b2))
}

func TestTrainBandMismatch(t *testing.T) {
	in := append(twoClassSamples(), sample(forest, 1, 2, 3))
	_, _, err := Train(in, DefaultParams())
	var de *landcover.DataError
	assert.True(t, errors.As(err, &de))
}

func TestParamsValidate(t *testing.T) {
	assert.NoError(t, DefaultParams().Validate())
	assert.Error(t, DefaultParams().WithSampleSize(0).Validate())
	assert.Error(t, DefaultParams().WithKind(KindRandomForest).WithTrees(0).Validate())
	assert.Error(t, DefaultParams().WithKind(Kind(99)).Validate())
}

func TestProportionalPriors(t *testing.T) {
	in := twoClassSamples()
	in = append(in, sample(dry, 31, 31), sample(dry, 31, 31))

	p := DefaultParams()
	p.Priors = PriorProportional
	m, _, err := Train(in, p)
	require.NoError(t, err)

	uni, _, err := Train(in, DefaultParams())
	require.NoError(t, err)

	// the larger class gains log(6/10) - log(1/2) relative to uniform
	x := []float64{21, 21}
	dp := m.(*Gaussian).Discriminant(x)
	du := uni.(*Gaussian).Discriminant(x)
	assert.InDelta(t, math.Log(0.6)-math.Log(0.5), dp[1]-du[1], 1e-9)
	assert.InDelta(t, math.Log(0.4)-math.Log(0.5), dp[0]-du[0], 1e-9)
}

func forestSamples() []landcover.PixelSample {
	var in []landcover.PixelSample
	for i := 0; i < 30; i++ {
		d := float64(i%6) * 0.5
		in = append(in,
			sample(forest, 1+d, 10+d, 2),
			sample(dry, 10+d, 1+d, 2),
			sample(water, 5+d, 5+d, 20),
		)
	}
	return in
}

func TestForest(t *testing.T) {
	p := DefaultParams().WithKind(KindRandomForest).WithTrees(15)
	p.Workers = 3
	m, _, err := Train(forestSamples(), p)
	require.NoError(t, err)

	f, ok := m.(*Forest)
	require.True(t, ok)
	assert.Equal(t, 15, f.TreeCount())
	assert.Equal(t, 3, f.BandCount())

	assert.Equal(t, forest, f.Classify([]float64{2, 11, 2}))
	assert.Equal(t, dry, f.Classify([]float64{11, 2, 2}))
	assert.Equal(t, water, f.Classify([]float64{6, 6, 20}))

	votes := f.Votes([]float64{2, 11, 2})
	total := 0
	for _, v := range votes {
		total += v
	}
	assert.Equal(t, 15, total)
}

func TestForestDeterministicAcrossWorkers(t *testing.T) {
	p := DefaultParams().WithKind(KindRandomForest).WithTrees(12).WithSeed(77)
	p.Workers = 1
	m1, _, err := Train(forestSamples(), p)
	require.NoError(t, err)
	p.Workers = 6
	m2, _, err := Train(forestSamples(), p)
	require.NoError(t, err)

	b1, err := Marshal(m1)
	require.NoError(t, err)
	b2, err := Marshal(m2)
	require.NoError(t, err)
	assert.JSONEq(t, string(b1), string(b2))
}

func TestPersistRoundTrip(t *testing.T) {
	dir := t.TempDir()
	x := []float64{21, 22}

	g, _, err := Train(twoClassSamples(), DefaultParams())
	require.NoError(t, err)
	path := filepath.Join(dir, "mlc.json")
	require.NoError(t, Save(path, g))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, KindMaxLikelihood, loaded.Kind())
	assert.Equal(t, g.Classes(), loaded.Classes())
	assert.InDeltaSlice(t, g.(*Gaussian).Discriminant(x), loaded.(*Gaussian).Discriminant(x), 1e-9)

	p := DefaultParams().WithKind(KindRandomForest).WithTrees(5)
	f, _, err := Train(forestSamples(), p)
	require.NoError(t, err)
	path = filepath.Join(dir, "rf.json")
	require.NoError(t, Save(path, f))
	loadedF, err := Load(path)
	require.NoError(t, err)
	for _, v := range [][]float64{{2, 11, 2}, {11, 2, 2}, {6, 6, 20}, {4, 4, 9}} {
		assert.Equal(t, f.Classify(v), loadedF.Classify(v))
	}
}

func TestUnmarshalRejectsBadModels(t *testing.T) {
	cases := []string{
		`{`,
		`{"kind":"svm","bands":2,"classes":[1]}`,
		`{"kind":"mlc","bands":0,"classes":[1]}`,
		`{"kind":"mlc","bands":2,"classes":[1],"gaussian":[]}`,
		`{"kind":"rf","bands":2,"classes":[1]}`,
		`{"kind":"rf","bands":2,"classes":[1],"trees":[{"feature":5,"left":{"leaf":true,"class":1},"right":{"leaf":true,"class":1}}]}`,
		`{"kind":"rf","bands":2,"classes":[1],"trees":[{"leaf":true,"class":4}]}`,
	}
	for _, c := range cases {
		_, err := Unmarshal([]byte(c))
		assert.Error(t, err, c)
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("RF")
	require.NoError(t, err)
	assert.Equal(t, KindRandomForest, k)
	_, err = ParseKind("knn")
	assert.Error(t, err)

	pm, err := ParsePriorMode("proportional")
	require.NoError(t, err)
	assert.Equal(t, PriorProportional, pm)
}

func TestPickMaxTies(t *testing.T) {
	classes := []landcover.Class{forest, dry, water}
	scores := []float64{1, 3, 3}
	assert.Equal(t, dry, pickMax(classes, func(i int) float64 { return scores[i] }))

	nan := []float64{math.NaN(), -2, -5}
	assert.Equal(t, dry, pickMax(classes, func(i int) float64 { return nan[i] }))
}
