package classify

import (
	"fmt"
	"math"

	"lcclass/internal/landcover"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// maxCondition rejects covariance matrices that factorize but are
// numerically singular.
const maxCondition = 1e12

// Gaussian is the maximum-likelihood classifier. Each class is a
// multivariate normal N(mu_c, Sigma_c) with prior pi_c, and a pixel x goes to
// the class maximizing
//
//	g_c(x) = -1/2 log det Sigma_c - 1/2 (x-mu_c)' Sigma_c^-1 (x-mu_c) + log pi_c
//
// Ties go to the lowest class code.
type Gaussian struct {
	bands   int
	classes []landcover.Class
	dists   []gaussianClass
}

type gaussianClass struct {
	mean     *mat.VecDense
	cov      *mat.SymDense
	chol     mat.Cholesky
	logDet   float64
	logPrior float64
}

func (g *Gaussian) Kind() Kind                 { return KindMaxLikelihood }
func (g *Gaussian) BandCount() int             { return g.bands }
func (g *Gaussian) Classes() []landcover.Class { return append([]landcover.Class(nil), g.classes...) }

// Mean returns a copy of the mean vector of class c.
func (g *Gaussian) Mean(c landcover.Class) ([]float64, bool) {
	for i, cl := range g.classes {
		if cl == c {
			return mat.Col(nil, 0, g.dists[i].mean), true
		}
	}
	return nil, false
}

// Covariance returns a copy of the covariance matrix of class c.
func (g *Gaussian) Covariance(c landcover.Class) (*mat.SymDense, bool) {
	for i, cl := range g.classes {
		if cl == c {
			return mat.NewSymDense(g.bands, append([]float64(nil), g.dists[i].cov.RawSymmetric().Data...)), true
		}
	}
	return nil, false
}

// Discriminant returns g_c(x) for every class, aligned with Classes().
func (g *Gaussian) Discriminant(x []float64) []float64 {
	out := make([]float64, len(g.dists))
	v := mat.NewVecDense(len(x), x)
	for i := range g.dists {
		out[i] = g.dists[i].discriminant(v)
	}
	return out
}

// Classify labels a complete band vector.
func (g *Gaussian) Classify(x []float64) landcover.Class {
	v := mat.NewVecDense(len(x), x)
	return pickMax(g.classes, func(i int) float64 {
		return g.dists[i].discriminant(v)
	})
}

func (d *gaussianClass) discriminant(x mat.Vector) float64 {
	m := stat.Mahalanobis(x, d.mean, &d.chol)
	return -0.5*d.logDet - 0.5*m*m + d.logPrior
}

func fitGaussian(ts *trainingSet, priors PriorMode) (*Gaussian, error) {
	total := 0
	for _, n := range ts.available {
		total += n
	}

	g := &Gaussian{bands: ts.bands, classes: ts.classes}
	for i, c := range ts.classes {
		rows := ts.rows[i]
		if len(rows) < 2 {
			return nil, &landcover.ModelingError{
				Class:  c,
				Reason: fmt.Sprintf("covariance undefined with %d training pixel(s)", len(rows)),
			}
		}

		x := mat.NewDense(len(rows), ts.bands, nil)
		for r, v := range rows {
			x.SetRow(r, v)
		}
		mean := make([]float64, ts.bands)
		for j := range mean {
			mean[j] = stat.Mean(mat.Col(nil, j, x), nil)
		}
		cov := mat.NewSymDense(ts.bands, nil)
		stat.CovarianceMatrix(cov, x, nil)

		prior := 1 / float64(len(ts.classes))
		if priors == PriorProportional {
			prior = float64(ts.available[i]) / float64(total)
		}

		d, err := newGaussianClass(c, mean, cov, prior)
		if err != nil {
			return nil, err
		}
		g.dists = append(g.dists, d)
	}
	return g, nil
}

// newGaussianClass factorizes cov and fails with a ModelingError when it is
// not positive definite.
func newGaussianClass(c landcover.Class, mean []float64, cov *mat.SymDense, prior float64) (gaussianClass, error) {
	d := gaussianClass{
		mean:     mat.NewVecDense(len(mean), mean),
		cov:      cov,
		logPrior: math.Log(prior),
	}
	if ok := d.chol.Factorize(cov); !ok {
		return gaussianClass{}, &landcover.ModelingError{Class: c, Reason: "covariance matrix is singular"}
	}
	if cond := d.chol.Cond(); math.IsInf(cond, 0) || math.IsNaN(cond) || cond > maxCondition {
		return gaussianClass{}, &landcover.ModelingError{Class: c, Reason: fmt.Sprintf("covariance matrix is near singular (condition %.3g)", cond)}
	}
	d.logDet = d.chol.LogDet()
	if math.IsNaN(d.logDet) || math.IsInf(d.logDet, 0) {
		return gaussianClass{}, &landcover.ModelingError{Class: c, Reason: "covariance determinant is not finite"}
	}
	return d, nil
}
