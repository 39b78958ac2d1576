// Package landcover defines the land-cover class set, reference polygons,
// pixel samples and the error taxonomy shared by the classification pipeline.
package landcover

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Class identifies a land-cover class by its stable integer code.
// Code 0 is reserved for NoData and never names a class.
type Class uint8

// NoData marks raster cells and predictions that could not be classified.
const NoData Class = 0

const (
	TerrestrialForest Class = iota + 1
	MixedVegetationDry
	BarrenExposed
	ResidualWater
	ClosedCanopyMangrove
	OpenCanopyMangroveI
	OpenCanopyMangroveII
	MixedVegetationHealthy
	MixedVegetationWetUrban
)

var classNames = map[Class]string{
	TerrestrialForest:       "Terrestrial Forest",
	MixedVegetationDry:      "Mixed Vegetation-Dry",
	BarrenExposed:           "Barren/Exposed",
	ResidualWater:           "Residual Water",
	ClosedCanopyMangrove:    "Closed-Canopy Mangrove",
	OpenCanopyMangroveI:     "Open-Canopy Mangrove I",
	OpenCanopyMangroveII:    "Open-Canopy Mangrove II",
	MixedVegetationHealthy:  "Mixed Vegetation-Healthy",
	MixedVegetationWetUrban: "Mixed Vegetation-Wet/Urban",
}

func (c Class) String() string {
	if c == NoData {
		return "NoData"
	}
	if name, ok := classNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Class(%d)", uint8(c))
}

// Valid reports whether c is one of the enumerated classes.
func (c Class) Valid() bool {
	_, ok := classNames[c]
	return ok
}

// All returns every enumerated class in ascending code order.
func All() []Class {
	out := make([]Class, 0, len(classNames))
	for c := range classNames {
		out = append(out, c)
	}
	SortClasses(out)
	return out
}

// SortClasses orders classes by ascending code. This is the tie-break order
// used everywhere a deterministic class order is needed.
func SortClasses(cs []Class) {
	sort.Slice(cs, func(i, j int) bool { return cs[i] < cs[j] })
}

// ParseClass accepts either a numeric code ("5") or a class name
// (case-insensitive, '-' and en-dash treated alike).
func ParseClass(s string) (Class, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		c := Class(n)
		if n < 0 || n > 255 || !c.Valid() {
			return NoData, fmt.Errorf("unknown class code %d", n)
		}
		return c, nil
	}
	want := normalizeName(s)
	for c, name := range classNames {
		if normalizeName(name) == want {
			return c, nil
		}
	}
	return NoData, fmt.Errorf("unknown class %q", s)
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "–", "-")
	s = strings.ReplaceAll(s, " - ", "-")
	return s
}
