package signature

import (
	"fmt"
	"math"
	"sort"

	"lcclass/pkg/colorutil"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Wavelength ties a band name to its center wavelength in nanometers.
type Wavelength struct {
	Band       string
	Nanometers float64
}

// DefaultWavelengths is a Sentinel-2 style B/G/R/NIR table.
func DefaultWavelengths() []Wavelength {
	return []Wavelength{
		{Band: "B", Nanometers: 490},
		{Band: "G", Nanometers: 560},
		{Band: "R", Nanometers: 665},
		{Band: "NIR", Nanometers: 842},
	}
}

// NewPlot draws mean reflectance against wavelength, one line per class.
// Bands missing from the wavelength table and undefined means are skipped.
func NewPlot(s Signatures, table []Wavelength) (*plot.Plot, error) {
	nm := make(map[string]float64, len(table))
	for _, w := range table {
		nm[w.Band] = w.Nanometers
	}

	p := plot.New()
	p.Title.Text = "Spectral signatures"
	p.X.Label.Text = "Wavelength (nm)"
	p.Y.Label.Text = "Mean reflectance"

	for _, c := range s.Classes {
		var pts plotter.XYs
		for _, b := range s.Bands {
			x, ok := nm[b]
			if !ok {
				continue
			}
			st := s.Stats[Key{Class: c, Band: b}]
			if math.IsNaN(st.Mean) {
				continue
			}
			pts = append(pts, plotter.XY{X: x, Y: st.Mean})
		}
		if len(pts) == 0 {
			continue
		}
		sort.Slice(pts, func(i, j int) bool { return pts[i].X < pts[j].X })

		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("class %s: %w", c, err)
		}
		line.Color = colorutil.ClassColor(uint8(c))
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(c.String(), line)
	}
	p.Legend.Top = true
	return p, nil
}

// SavePlot writes NewPlot's output to path; the format follows the file
// extension (png, svg, pdf).
func SavePlot(path string, s Signatures, table []Wavelength) error {
	p, err := NewPlot(s, table)
	if err != nil {
		return err
	}
	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save signature plot: %w", err)
	}
	return nil
}
