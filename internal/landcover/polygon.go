package landcover

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Split tags a polygon (and the pixels drawn from it) as training or validation.
type Split int

const (
	SplitUnassigned Split = iota
	SplitTraining
	SplitValidation
)

func (s Split) String() string {
	switch s {
	case SplitTraining:
		return "training"
	case SplitValidation:
		return "validation"
	default:
		return "unassigned"
	}
}

// Polygon is a hand-delineated reference area labeled with a known class.
// Geometry is either an orb.Polygon or an orb.MultiPolygon in the raster's
// coordinate system. Only the Split tag changes after creation.
type Polygon struct {
	ID       string
	Class    Class
	Geometry orb.Geometry
	Split    Split
}

// Bound returns the polygon's bounding box.
func (p Polygon) Bound() orb.Bound {
	if p.Geometry == nil {
		return orb.Bound{}
	}
	return p.Geometry.Bound()
}

// Validate checks the class and geometry of a single polygon.
func (p Polygon) Validate() error {
	if p.ID == "" {
		return &DataError{Reason: "polygon with empty id"}
	}
	if !p.Class.Valid() {
		return &DataError{Reason: fmt.Sprintf("polygon %s: invalid class code %d", p.ID, uint8(p.Class))}
	}
	switch g := p.Geometry.(type) {
	case orb.Polygon:
		return validatePolygon(p.ID, g)
	case orb.MultiPolygon:
		if len(g) == 0 {
			return &DataError{Reason: fmt.Sprintf("polygon %s: empty multipolygon", p.ID)}
		}
		for _, poly := range g {
			if err := validatePolygon(p.ID, poly); err != nil {
				return err
			}
		}
		return nil
	case nil:
		return &DataError{Reason: fmt.Sprintf("polygon %s: missing geometry", p.ID)}
	default:
		return &DataError{Reason: fmt.Sprintf("polygon %s: unsupported geometry %s", p.ID, g.GeoJSONType())}
	}
}

func validatePolygon(id string, poly orb.Polygon) error {
	if len(poly) == 0 {
		return &DataError{Reason: fmt.Sprintf("polygon %s: no rings", id)}
	}
	for i, ring := range poly {
		if len(ring) < 4 || !ring.Closed() {
			return &DataError{Reason: fmt.Sprintf("polygon %s: ring %d is not a closed ring of at least 4 points", id, i)}
		}
	}
	return nil
}

// ValidatePolygons checks every polygon and that IDs are unique.
func ValidatePolygons(polygons []Polygon) error {
	if len(polygons) == 0 {
		return &DataError{Reason: "empty polygon set"}
	}
	seen := make(map[string]struct{}, len(polygons))
	for _, p := range polygons {
		if err := p.Validate(); err != nil {
			return err
		}
		if _, dup := seen[p.ID]; dup {
			return &DataError{Reason: fmt.Sprintf("duplicate polygon id %s", p.ID)}
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

// ClassesOf returns the distinct classes present in polygons, ascending.
func ClassesOf(polygons []Polygon) []Class {
	set := map[Class]struct{}{}
	for _, p := range polygons {
		set[p.Class] = struct{}{}
	}
	out := make([]Class, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	SortClasses(out)
	return out
}
