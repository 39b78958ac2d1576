// Package project records a classification run: its identity, options,
// inputs and the files it produced.
package project

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// File is the run record written next to the outputs (run.json).
type File struct {
	Version  int       `json:"version"`
	RunID    string    `json:"run_id"`
	Created  time.Time `json:"created"`
	Finished time.Time `json:"finished,omitempty"`

	// Input paths (relative to the run file when possible)
	RasterPath  string `json:"raster,omitempty"`
	PolygonPath string `json:"polygons,omitempty"`

	Settings RunSettings `json:"settings"`

	// Output paths (relative to the run file)
	Outputs map[string]string `json:"outputs,omitempty"`

	OverallAccuracy *float64 `json:"overall_accuracy,omitempty"`
}

// RunSettings captures the options that determine a run's result.
type RunSettings struct {
	ModelKind          string  `json:"model_kind"`
	TrainFraction      float64 `json:"train_fraction"`
	SampleSizePerClass int     `json:"sample_size_per_class"`
	Seed               int64   `json:"seed"`
	TreeCount          int     `json:"tree_count,omitempty"`
	Priors             string  `json:"priors,omitempty"`
}

// New creates a run record with a fresh run ID.
func New(settings RunSettings) *File {
	return &File{
		Version:  1,
		RunID:    uuid.NewString(),
		Created:  time.Now().UTC(),
		Settings: settings,
		Outputs:  map[string]string{},
	}
}

// Load loads a run record.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	return &f, nil
}

// Save writes the record to path.
func (f *File) Save(path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SetInputs stores input paths relative to the run file's directory.
func (f *File) SetInputs(runPath, rasterPath, polygonPath string) {
	f.RasterPath = relTo(runPath, rasterPath)
	f.PolygonPath = relTo(runPath, polygonPath)
}

// AddOutput records a produced file under a short name.
func (f *File) AddOutput(runPath, name, path string) {
	f.Outputs[name] = relTo(runPath, path)
}

// OutputPath resolves a recorded output back to an absolute-or-relative path
// usable from the current directory.
func (f *File) OutputPath(runPath, name string) string {
	p, ok := f.Outputs[name]
	if !ok || p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(runPath), p)
}

func relTo(runPath, p string) string {
	if p == "" {
		return ""
	}
	rel, err := filepath.Rel(filepath.Dir(runPath), p)
	if err != nil {
		return p
	}
	return rel
}
