package raster

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"os"
	"path/filepath"

	"lcclass/internal/landcover"
	"lcclass/pkg/geometry"

	_ "golang.org/x/image/tiff"
)

// Manifest describes a multi-band raster stored as one single-band image
// file per band. Paths are relative to the manifest file.
type Manifest struct {
	CRS       string         `json:"crs"`
	Transform [6]float64     `json:"transform"` // GDAL order
	NoData    *float64       `json:"noData,omitempty"`
	Scale     float64        `json:"scale,omitempty"` // multiplier applied to stored values
	Bands     []ManifestBand `json:"bands"`
}

// ManifestBand names a band and the file holding it.
type ManifestBand struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// LoadManifest reads a manifest JSON file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read raster manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse raster manifest: %w", err)
	}
	if len(m.Bands) == 0 {
		return nil, &landcover.DataError{Reason: "raster manifest lists no bands"}
	}
	if m.Transform == [6]float64{} {
		m.Transform = geometry.Identity().GDAL()
	}
	return &m, nil
}

// Load reads the manifest at path and every band it lists.
func Load(path string) (*Raster, error) {
	m, err := LoadManifest(path)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	var (
		bands         []Band
		width, height int
	)
	for i, mb := range m.Bands {
		bandPath := mb.Path
		if !filepath.IsAbs(bandPath) {
			bandPath = filepath.Join(dir, bandPath)
		}
		data, w, h, err := loadBand(bandPath, m.Scale)
		if err != nil {
			return nil, fmt.Errorf("band %s: %w", mb.Name, err)
		}
		if i == 0 {
			width, height = w, h
		} else if w != width || h != height {
			return nil, &landcover.DataError{Reason: fmt.Sprintf("band %s is %dx%d, want %dx%d", mb.Name, w, h, width, height)}
		}
		bands = append(bands, Band{Name: mb.Name, Data: data})
	}

	r, err := New(width, height, geometry.FromGDAL(m.Transform), m.CRS, bands...)
	if err != nil {
		return nil, err
	}
	if m.NoData != nil {
		r.SetNoData(*m.NoData * scaleOrOne(m.Scale))
	}
	return r, nil
}

// loadBand decodes a single-band image into float64 values. Gray and Gray16
// images keep their stored value; any other model is converted to 16-bit gray.
func loadBand(path string, scale float64) ([]float64, int, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to open band: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to decode band: %w", err)
	}
	return imageValues(img, scaleOrOne(scale))
}

func imageValues(img image.Image, scale float64) ([]float64, int, int, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil, 0, 0, &landcover.DataError{Reason: "empty band image"}
	}
	out := make([]float64, w*h)

	switch src := img.(type) {
	case *image.Gray16:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out[y*w+x] = float64(src.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y) * scale
			}
		}
	case *image.Gray:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out[y*w+x] = float64(src.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y) * scale
			}
		}
	default:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				g := color.Gray16Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray16)
				out[y*w+x] = float64(g.Y) * scale
			}
		}
	}
	return out, w, h, nil
}

func scaleOrOne(s float64) float64 {
	if s == 0 {
		return 1
	}
	return s
}
