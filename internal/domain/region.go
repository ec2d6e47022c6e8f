package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// RegionType tags the geometry of a RegionDescriptor.
type RegionType string

const (
	RegionPolygon   RegionType = "polygon"
	RegionRectangle RegionType = "rectangle"
)

// Point is a coordinate in source-image pixel space.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// RegionDescriptor describes the area of an image to recolor. It is a
// value object: persisted verbatim on the ProcessedAsset for replay, never
// as a row of its own.
//
// A polygon needs at least three points; the last point is implicitly
// connected back to the first. A rectangle needs exactly two points,
// interpreted as opposite corners in either order.
type RegionDescriptor struct {
	Type        RegionType `json:"type"`
	Coordinates []Point    `json:"coordinates"`
}

func (r RegionDescriptor) Validate() error {
	switch r.Type {
	case RegionPolygon:
		if len(r.Coordinates) < 3 {
			return Ef(KindInvalidRegion, "region.validate",
				"polygon requires at least 3 points, got %d", len(r.Coordinates))
		}
	case RegionRectangle:
		if len(r.Coordinates) != 2 {
			return Ef(KindInvalidRegion, "region.validate",
				"rectangle requires exactly 2 points, got %d", len(r.Coordinates))
		}
	default:
		return Ef(KindInvalidRegion, "region.validate", "unknown region type %q", r.Type)
	}
	return nil
}

// Value stores the descriptor as a JSON document.
func (r RegionDescriptor) Value() (driver.Value, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *RegionDescriptor) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return json.Unmarshal([]byte(v), r)
	case []byte:
		return json.Unmarshal(v, r)
	default:
		return fmt.Errorf("cannot scan %T into RegionDescriptor", src)
	}
}
