// Package vector loads reference polygons from GeoJSON.
package vector

import (
	"fmt"
	"os"
	"strconv"

	"lcclass/internal/landcover"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// PolygonSet is the decoded polygon layer and its declared coordinate system.
// CRS is empty when the file does not declare one.
type PolygonSet struct {
	CRS      string
	Polygons []landcover.Polygon
}

// Load reads and decodes a GeoJSON FeatureCollection from path.
func Load(path string) (*PolygonSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read polygons: %w", err)
	}
	return Decode(data)
}

// Decode parses a FeatureCollection. Every feature needs an "id" (property or
// feature id) and a "classId" property holding a class code or class name.
func Decode(data []byte) (*PolygonSet, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, &landcover.DataError{Reason: "invalid GeoJSON", Err: err}
	}

	set := &PolygonSet{CRS: crsName(fc.ExtraMembers)}
	for i, f := range fc.Features {
		p, err := featurePolygon(i, f)
		if err != nil {
			return nil, err
		}
		set.Polygons = append(set.Polygons, p)
	}
	if err := landcover.ValidatePolygons(set.Polygons); err != nil {
		return nil, err
	}
	return set, nil
}

func featurePolygon(i int, f *geojson.Feature) (landcover.Polygon, error) {
	id := propString(f.Properties, "id")
	if id == "" && f.ID != nil {
		id = fmt.Sprint(f.ID)
	}
	if id == "" {
		return landcover.Polygon{}, &landcover.DataError{Reason: fmt.Sprintf("feature %d has no id", i)}
	}

	raw := propString(f.Properties, "classId")
	if raw == "" {
		return landcover.Polygon{}, &landcover.DataError{Reason: fmt.Sprintf("feature %s has no classId", id)}
	}
	class, err := landcover.ParseClass(raw)
	if err != nil {
		return landcover.Polygon{}, &landcover.DataError{Reason: fmt.Sprintf("feature %s", id), Err: err}
	}

	var g orb.Geometry
	switch geom := f.Geometry.(type) {
	case orb.Polygon, orb.MultiPolygon:
		g = geom
	case nil:
		return landcover.Polygon{}, &landcover.DataError{Reason: fmt.Sprintf("feature %s has no geometry", id)}
	default:
		return landcover.Polygon{}, &landcover.DataError{Reason: fmt.Sprintf("feature %s: geometry %s is not a polygon", id, geom.GeoJSONType())}
	}

	return landcover.Polygon{ID: id, Class: class, Geometry: g}, nil
}

// propString renders a string or numeric property as text.
func propString(props geojson.Properties, key string) string {
	v, ok := props[key]
	if !ok || v == nil {
		return ""
	}
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// crsName extracts the legacy {"crs":{"properties":{"name":...}}} member.
func crsName(extra geojson.Properties) string {
	crs, ok := extra["crs"].(map[string]interface{})
	if !ok {
		return ""
	}
	props, ok := crs["properties"].(map[string]interface{})
	if !ok {
		return ""
	}
	name, _ := props["name"].(string)
	return name
}
