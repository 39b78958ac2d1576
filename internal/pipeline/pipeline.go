// Package pipeline runs the classification stages in order: split,
// extract, summarize, train, predict and assess.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lcclass/internal/accuracy"
	"lcclass/internal/classify"
	"lcclass/internal/config"
	"lcclass/internal/extract"
	"lcclass/internal/landcover"
	"lcclass/internal/raster"
	"lcclass/internal/sampler"
	"lcclass/internal/signature"
)

// Inputs are the loaded raster and reference polygons.
type Inputs struct {
	Raster     *raster.Raster
	Polygons   []landcover.Polygon
	PolygonCRS string

	// Model, if set, is used instead of training a new one.
	Model classify.Model
}

// Result collects every stage's output.
type Result struct {
	Training   []landcover.Polygon
	Validation []landcover.Polygon
	Split      sampler.Summary

	Extraction *extract.Result
	Signatures signature.Signatures

	Model        classify.Model
	TrainSummary classify.TrainSummary

	Classified *raster.Classified

	ValidationSamples []landcover.PixelSample
	Predicted         []landcover.Class
	Report            *accuracy.Report

	Timings map[string]time.Duration
}

// Run executes the pipeline. DataError, SamplingError and ModelingError
// abort it; empty polygons, dropped pixels and clamped class sizes are
// logged and reported in Result.
func Run(ctx context.Context, cfg config.Config, in Inputs, log *slog.Logger) (*Result, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if in.Raster == nil {
		return nil, &landcover.DataError{Reason: "no raster"}
	}
	if err := extract.CheckCRS(in.Raster.CRS, in.PolygonCRS); err != nil {
		return nil, err
	}

	res := &Result{Timings: map[string]time.Duration{}}
	stage := func(name string, start time.Time) {
		res.Timings[name] = time.Since(start)
	}

	start := time.Now()
	train, val, err := sampler.Split(in.Polygons, cfg.TrainFraction, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("split polygons: %w", err)
	}
	res.Training, res.Validation = train, val
	res.Split = sampler.Summarize(train, val)
	stage("split", start)
	for _, s := range res.Split {
		log.Info("polygon split", "class", s.Class.String(), "training", s.Training, "validation", s.Validation)
		if s.Training == 0 || s.Validation == 0 {
			log.Warn("class has an empty split side", "class", s.Class.String(), "polygons", s.Total)
		}
	}

	start = time.Now()
	ext, err := extract.Extract(ctx, in.Raster, sampler.Tagged(train, val), extract.Options{Workers: cfg.Workers})
	if err != nil {
		return nil, fmt.Errorf("extract pixels: %w", err)
	}
	res.Extraction = ext
	stage("extract", start)
	log.Info("pixels extracted", "samples", len(ext.Samples), "missing_dropped", ext.MissingDropped)
	if len(ext.EmptyPolygons) > 0 {
		log.Warn("polygons cover no cell centers", "count", len(ext.EmptyPolygons), "ids", ext.EmptyPolygons)
	}

	classes := landcover.ClassesOf(in.Polygons)

	start = time.Now()
	res.Signatures = signature.Summarize(ext.Samples, in.Raster.BandNames(), classes...)
	stage("summarize", start)

	trainSamples := landcover.FilterSplit(ext.Samples, landcover.SplitTraining)
	res.ValidationSamples = landcover.FilterSplit(ext.Samples, landcover.SplitValidation)

	start = time.Now()
	if in.Model != nil {
		res.Model = in.Model
		log.Info("using loaded model", "kind", in.Model.Kind().String(), "classes", len(in.Model.Classes()))
	} else {
		params := cfg.ClassifyParams().WithClasses(classes...)
		model, summary, err := classify.Train(trainSamples, params)
		res.TrainSummary = summary
		if err != nil {
			return res, fmt.Errorf("train %s model: %w", params.Kind, err)
		}
		res.Model = model
		for _, c := range summary.Clamped() {
			log.Info("class training size clamped", "class", c.Class.String(), "available", c.Available, "requested", summary.Requested)
		}
	}
	stage("train", start)

	start = time.Now()
	res.Classified, err = classify.PredictRaster(ctx, res.Model, in.Raster, classify.PredictOptions{
		Workers:   cfg.Workers,
		BlockRows: cfg.BlockRows,
	})
	if err != nil {
		return res, fmt.Errorf("classify raster: %w", err)
	}
	stage("predict", start)

	start = time.Now()
	res.Predicted = classify.Predict(res.Model, res.ValidationSamples)
	res.Report, err = accuracy.Evaluate(res.Predicted, landcover.Labels(res.ValidationSamples), classes...)
	if err != nil {
		return res, fmt.Errorf("assess accuracy: %w", err)
	}
	stage("assess", start)
	log.Info("accuracy", "overall", res.Report.Overall.String(), "kappa", res.Report.Kappa.String(),
		"validation_pixels", res.Report.Matrix.Total())

	return res, nil
}
