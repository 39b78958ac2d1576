package classify

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"lcclass/internal/landcover"

	"gonum.org/v1/gonum/mat"
)

// modelFile is the JSON form of a trained model.
type modelFile struct {
	Kind    string            `json:"kind"`
	Bands   int               `json:"bands"`
	Classes []landcover.Class `json:"classes"`

	Gaussian []gaussianFile `json:"gaussian,omitempty"`
	Trees    []*treeNode    `json:"trees,omitempty"`
}

type gaussianFile struct {
	Class      landcover.Class `json:"class"`
	Mean       []float64       `json:"mean"`
	Covariance []float64       `json:"covariance"` // row-major bands x bands
	Prior      float64         `json:"prior"`
}

// Marshal encodes a trained model as JSON.
func Marshal(m Model) ([]byte, error) {
	f := modelFile{Kind: m.Kind().String(), Bands: m.BandCount(), Classes: m.Classes()}
	switch m := m.(type) {
	case *Gaussian:
		for i, c := range m.classes {
			d := &m.dists[i]
			cov := make([]float64, 0, m.bands*m.bands)
			for r := 0; r < m.bands; r++ {
				for col := 0; col < m.bands; col++ {
					cov = append(cov, d.cov.At(r, col))
				}
			}
			f.Gaussian = append(f.Gaussian, gaussianFile{
				Class:      c,
				Mean:       mat.Col(nil, 0, d.mean),
				Covariance: cov,
				Prior:      math.Exp(d.logPrior),
			})
		}
	case *Forest:
		f.Trees = m.trees
	default:
		return nil, fmt.Errorf("unsupported model type %T", m)
	}
	return json.MarshalIndent(f, "", "  ")
}

// Unmarshal decodes a model written by Marshal.
func Unmarshal(data []byte) (Model, error) {
	var f modelFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unmarshal model: %w", err)
	}
	kind, err := ParseKind(f.Kind)
	if err != nil {
		return nil, err
	}
	if f.Bands <= 0 || len(f.Classes) == 0 {
		return nil, fmt.Errorf("model file has no bands or classes")
	}

	switch kind {
	case KindMaxLikelihood:
		if len(f.Gaussian) != len(f.Classes) {
			return nil, fmt.Errorf("model file has %d class distributions for %d classes", len(f.Gaussian), len(f.Classes))
		}
		g := &Gaussian{bands: f.Bands, classes: f.Classes}
		for i, gf := range f.Gaussian {
			if gf.Class != f.Classes[i] || len(gf.Mean) != f.Bands || len(gf.Covariance) != f.Bands*f.Bands {
				return nil, fmt.Errorf("model file: malformed distribution for class %s", gf.Class)
			}
			cov := mat.NewSymDense(f.Bands, append([]float64(nil), gf.Covariance...))
			d, err := newGaussianClass(gf.Class, append([]float64(nil), gf.Mean...), cov, gf.Prior)
			if err != nil {
				return nil, err
			}
			g.dists = append(g.dists, d)
		}
		return g, nil
	default:
		if len(f.Trees) == 0 {
			return nil, fmt.Errorf("model file has no trees")
		}
		for i, t := range f.Trees {
			if err := checkTree(t, f.Bands, f.Classes); err != nil {
				return nil, fmt.Errorf("model file: tree %d: %w", i, err)
			}
		}
		return &Forest{bands: f.Bands, classes: f.Classes, trees: f.Trees}, nil
	}
}

func checkTree(n *treeNode, bands int, classes []landcover.Class) error {
	if n == nil {
		return fmt.Errorf("missing node")
	}
	if n.Leaf {
		for _, c := range classes {
			if c == n.Class {
				return nil
			}
		}
		return fmt.Errorf("leaf class %d outside label space", uint8(n.Class))
	}
	if n.Feature < 0 || n.Feature >= bands {
		return fmt.Errorf("split feature %d out of range", n.Feature)
	}
	if err := checkTree(n.Left, bands, classes); err != nil {
		return err
	}
	return checkTree(n.Right, bands, classes)
}

// Save writes the model to a JSON file.
func Save(path string, m Model) error {
	data, err := Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Load reads a model from a JSON file.
func Load(path string) (Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}
