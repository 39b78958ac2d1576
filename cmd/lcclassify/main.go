// Command lcclassify trains a land-cover classifier from reference polygons,
// classifies a multispectral raster and reports accuracy.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"lcclass/internal/classify"
	"lcclass/internal/config"
	"lcclass/internal/landcover"
	"lcclass/internal/pipeline"
	"lcclass/internal/project"
	"lcclass/internal/raster"
	"lcclass/internal/signature"
	"lcclass/internal/vector"
	"lcclass/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(2)
	}

	rasterPath := flag.String("raster", cfg.RasterPath, "Raster manifest (JSON)")
	polygonPath := flag.String("polygons", cfg.PolygonPath, "Reference polygons (GeoJSON)")
	outDir := flag.String("out", cfg.OutDir, "Output directory")
	modelPath := flag.String("load-model", cfg.ModelPath, "Use a saved model instead of training")
	kind := flag.String("model", cfg.ModelKind.String(), "Model kind: mlc or rf")
	priors := flag.String("priors", cfg.Priors.String(), "Gaussian class priors: uniform or proportional")
	bands := flag.String("bands", "", "Band wavelengths for the signature plot, e.g. B:490,G:560,R:665,NIR:842")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Float64Var(&cfg.TrainFraction, "train-fraction", cfg.TrainFraction, "Share of each class's polygons used for training")
	flag.IntVar(&cfg.SampleSizePerClass, "sample-size", cfg.SampleSizePerClass, "Maximum training pixels per class")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed")
	flag.IntVar(&cfg.TreeCount, "trees", cfg.TreeCount, "Number of trees (rf)")
	flag.IntVar(&cfg.MaxDepth, "max-depth", cfg.MaxDepth, "Maximum tree depth, 0 = unlimited (rf)")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "Parallel workers")
	flag.IntVar(&cfg.BlockRows, "block-rows", cfg.BlockRows, "Raster rows per prediction block")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(*logLevel)})))

	if cfg.ModelKind, err = classify.ParseKind(*kind); err != nil {
		fatal("invalid -model", err)
	}
	if cfg.Priors, err = classify.ParsePriorMode(*priors); err != nil {
		fatal("invalid -priors", err)
	}
	if *bands != "" {
		if cfg.Wavelengths, err = config.ParseWavelengths(*bands); err != nil {
			fatal("invalid -bands", err)
		}
	}
	cfg.RasterPath, cfg.PolygonPath, cfg.OutDir, cfg.ModelPath = *rasterPath, *polygonPath, *outDir, *modelPath

	if cfg.RasterPath == "" || cfg.PolygonPath == "" {
		fmt.Println("Usage: lcclassify -raster <manifest.json> -polygons <polygons.geojson> [-out dir] [-model mlc|rf]")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		fatal("run failed", err)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	slog.Info("starting", "version", version.Version, "model", cfg.ModelKind.String(), "seed", cfg.Seed)

	r, err := raster.Load(cfg.RasterPath)
	if err != nil {
		return fmt.Errorf("load raster: %w", err)
	}
	slog.Info("raster loaded", "width", r.Width, "height", r.Height, "bands", strings.Join(r.BandNames(), ","), "crs", r.CRS)

	polys, err := vector.Load(cfg.PolygonPath)
	if err != nil {
		return fmt.Errorf("load polygons: %w", err)
	}
	slog.Info("polygons loaded", "count", len(polys.Polygons), "crs", polys.CRS)

	in := pipeline.Inputs{Raster: r, Polygons: polys.Polygons, PolygonCRS: polys.CRS}
	if cfg.ModelPath != "" {
		if in.Model, err = classify.Load(cfg.ModelPath); err != nil {
			return fmt.Errorf("load model: %w", err)
		}
	}

	if err := os.MkdirAll(cfg.OutDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	runPath := filepath.Join(cfg.OutDir, "run.json")
	rec := project.New(project.RunSettings{
		ModelKind:          cfg.ModelKind.String(),
		TrainFraction:      cfg.TrainFraction,
		SampleSizePerClass: cfg.SampleSizePerClass,
		Seed:               cfg.Seed,
		TreeCount:          cfg.TreeCount,
		Priors:             cfg.Priors.String(),
	})
	rec.SetInputs(runPath, cfg.RasterPath, cfg.PolygonPath)

	res, err := pipeline.Run(ctx, cfg, in, slog.Default())
	if err != nil {
		var me *landcover.ModelingError
		if errors.As(err, &me) {
			slog.Error("class cannot be modeled; adjust sampling options", "class", me.Class.String(), "code", uint8(me.Class))
		}
		return err
	}

	outputs := []output{
		{"classified", "classified.tif", func(p string) error { return raster.WriteTIFF(p, res.Classified) }},
		{"quicklook", "classified.png", func(p string) error { return raster.WriteQuicklook(p, res.Classified) }},
		{"signatures", "signatures.csv", res.Signatures.SaveCSV},
		{"signature_plot", "signatures.png", func(p string) error {
			return signature.SavePlot(p, res.Signatures, cfg.Wavelengths)
		}},
		{"report", "accuracy.txt", func(p string) error { return writeReportText(p, res) }},
		{"report_json", "accuracy.json", func(p string) error { return writeReportJSON(p, res) }},
	}
	if cfg.ModelPath == "" {
		outputs = append(outputs, output{"model", "model.json", func(p string) error { return classify.Save(p, res.Model) }})
	}
	for _, o := range outputs {
		path := filepath.Join(cfg.OutDir, o.file)
		if err := o.write(path); err != nil {
			return fmt.Errorf("write %s: %w", o.name, err)
		}
		rec.AddOutput(runPath, o.name, path)
		slog.Debug("wrote output", "name", o.name, "path", path)
	}

	if err := res.Report.WriteTable(os.Stdout); err != nil {
		return err
	}

	rec.Finished = time.Now().UTC()
	if res.Report.Overall.Defined {
		v := res.Report.Overall.V
		rec.OverallAccuracy = &v
	}
	if err := rec.Save(runPath); err != nil {
		return fmt.Errorf("write run record: %w", err)
	}
	slog.Info("done", "run_id", rec.RunID, "out", cfg.OutDir)
	return nil
}

type output struct {
	name  string
	file  string
	write func(path string) error
}

func writeReportText(path string, res *pipeline.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := res.Report.WriteTable(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeReportJSON(path string, res *pipeline.Result) error {
	data, err := json.MarshalIndent(res.Report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
