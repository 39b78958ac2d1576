package signature

import (
	"bytes"
	"encoding/csv"
	"math"
	"path/filepath"
	"testing"

	"lcclass/internal/landcover"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	x := make([]float64, 20)
	for i := range x {
		x[i] = float64(20 - i)
	}
	st := Describe(x)
	assert.Equal(t, 20, st.N)
	assert.InDelta(t, 10.5, st.Mean, 1e-12)
	assert.Equal(t, 1.0, st.P5)
	assert.Equal(t, 19.0, st.P95)
	assert.Equal(t, 20.0, st.Max)
	assert.InDelta(t, math.Sqrt(35), st.Std, 1e-12)
}

func TestDescribeDegenerate(t *testing.T) {
	empty := Describe(nil)
	assert.False(t, empty.Defined())
	assert.True(t, math.IsNaN(empty.Mean))
	assert.True(t, math.IsNaN(empty.Max))

	one := Describe([]float64{0.3})
	assert.True(t, one.Defined())
	assert.Equal(t, 0.3, one.Mean)
	assert.Equal(t, 0.3, one.P5)
	assert.Equal(t, 0.3, one.Max)
	assert.True(t, math.IsNaN(one.Std))
}

func samples() []landcover.PixelSample {
	return []landcover.PixelSample{
		{Class: landcover.ResidualWater, Values: []float64{0.02, 0.01}},
		{Class: landcover.ResidualWater, Values: []float64{0.04, math.NaN()}},
		{Class: landcover.TerrestrialForest, Values: []float64{0.03, 0.40}},
		{Class: landcover.TerrestrialForest, Values: []float64{0.05, 0.30}},
	}
}

func TestSummarize(t *testing.T) {
	in := samples()
	sig := Summarize(in, []string{"B", "NIR"}, landcover.BarrenExposed)

	assert.Equal(t, []landcover.Class{landcover.TerrestrialForest, landcover.BarrenExposed, landcover.ResidualWater}, sig.Classes)
	assert.Len(t, sig.Stats, 6)

	w, ok := sig.Get(landcover.ResidualWater, "B")
	require.True(t, ok)
	assert.Equal(t, 2, w.N)
	assert.InDelta(t, 0.03, w.Mean, 1e-12)

	// NaN values are skipped
	wn, _ := sig.Get(landcover.ResidualWater, "NIR")
	assert.Equal(t, 1, wn.N)
	assert.Equal(t, 0.01, wn.Max)

	f, _ := sig.Get(landcover.TerrestrialForest, "NIR")
	assert.InDelta(t, 0.35, f.Mean, 1e-12)
	assert.Equal(t, 0.40, f.Max)

	// a class without pixels is reported, not omitted
	b, ok := sig.Get(landcover.BarrenExposed, "B")
	require.True(t, ok)
	assert.False(t, b.Defined())

	// inputs are untouched
	assert.Equal(t, 0.02, in[0].Values[0])
	assert.Equal(t, 0.05, in[3].Values[0])
}

func TestWriteCSV(t *testing.T) {
	sig := Summarize(samples(), []string{"B", "NIR"}, landcover.BarrenExposed)
	var buf bytes.Buffer
	require.NoError(t, sig.WriteCSV(&buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 7)
	assert.Equal(t, []string{"class_id", "class", "band", "n", "mean", "p5", "p95", "max", "std"}, rows[0])
	assert.Equal(t, []string{"1", "Terrestrial Forest", "B", "2", "0.0400", "0.0300", "0.0500", "0.0500", "0.0141"}, rows[1])
	assert.Equal(t, []string{"3", "Barren/Exposed", "B", "0", "NA", "NA", "NA", "NA", "NA"}, rows[3])
}

func TestSavePlot(t *testing.T) {
	sig := Summarize(samples(), []string{"B", "NIR"})
	p, err := NewPlot(sig, DefaultWavelengths())
	require.NoError(t, err)
	assert.Equal(t, "Spectral signatures", p.Title.Text)

	path := filepath.Join(t.TempDir(), "signatures.png")
	require.NoError(t, SavePlot(path, sig, DefaultWavelengths()))
	assert.FileExists(t, path)
}
