package raster

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"strconv"

	"lcclass/internal/landcover"
	"lcclass/pkg/colorutil"

	"golang.org/x/image/tiff"
)

// Sidecar carries the georeferencing that plain TIFF does not store.
type Sidecar struct {
	CRS       string            `json:"crs"`
	Transform [6]float64        `json:"transform"`
	NoData    int               `json:"noData"`
	Classes   map[string]string `json:"classes"`
}

// EncodeTIFF writes the class codes as an 8-bit gray TIFF. NoData is 0.
func EncodeTIFF(w io.Writer, c *Classified) error {
	img := image.NewGray(image.Rect(0, 0, c.Width, c.Height))
	for i, code := range c.Codes {
		img.Pix[i] = uint8(code)
	}
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
}

// WriteTIFF writes the classified grid to path and its georeferencing to
// path + ".json".
func WriteTIFF(path string, c *Classified) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create classified raster: %w", err)
	}
	if err := EncodeTIFF(f, c); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode classified raster: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write classified raster: %w", err)
	}

	side := Sidecar{
		CRS:       c.CRS,
		Transform: c.Transform.GDAL(),
		NoData:    int(landcover.NoData),
		Classes:   map[string]string{},
	}
	for _, cl := range landcover.All() {
		side.Classes[strconv.Itoa(int(cl))] = cl.String()
	}
	data, err := json.MarshalIndent(side, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize sidecar: %w", err)
	}
	if err := os.WriteFile(path+".json", data, 0644); err != nil {
		return fmt.Errorf("failed to write sidecar: %w", err)
	}
	return nil
}

// Quicklook renders the grid in the class palette, NoData transparent.
func Quicklook(c *Classified) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
	for row := 0; row < c.Height; row++ {
		for col := 0; col < c.Width; col++ {
			img.SetRGBA(col, row, colorutil.ClassColor(uint8(c.At(col, row))))
		}
	}
	return img
}

// WriteQuicklook writes Quicklook(c) as PNG.
func WriteQuicklook(path string, c *Classified) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create quicklook: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, Quicklook(c)); err != nil {
		return fmt.Errorf("failed to encode quicklook: %w", err)
	}
	return nil
}
