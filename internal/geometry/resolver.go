// Package geometry resolves service area references into geometries with
// computed areas. A reference is either the name of a GeoJSON boundary file
// or an inline longitude,latitude literal.
package geometry

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// Kind describes the shape of a resolved geometry.
type Kind string

const (
	// KindPolygon marks a resolved service area boundary.
	KindPolygon Kind = "polygon"
	// KindPoint marks a resolved inline coordinate pair.
	KindPoint Kind = "point"
)

// Resolution is the successful outcome of resolving a reference.
type Resolution struct {
	Kind            Kind
	Geometry        orb.Geometry
	AreaSquareMiles float64
}

// Resolver turns a geometry reference into a resolved geometry and area.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (Resolution, error)
}

// Inline point references are longitude-first decimal pairs.
var inlinePointRe = regexp.MustCompile(`^-?\d+(\.\d+)?,-?\d+(\.\d+)?$`)

// IsInlinePoint reports whether the reference is an inline lng,lat literal
// rather than a boundary file name.
func IsInlinePoint(ref string) bool {
	return inlinePointRe.MatchString(strings.TrimSpace(ref))
}

// ParseInlinePoint parses an inline lng,lat literal into a point.
func ParseInlinePoint(ref string) (orb.Point, error) {
	ref = strings.TrimSpace(ref)
	if !IsInlinePoint(ref) {
		return orb.Point{}, fmt.Errorf("not an inline point reference: %q", ref)
	}
	parts := strings.SplitN(ref, ",", 2)
	lng, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("parse longitude: %w", err)
	}
	lat, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("parse latitude: %w", err)
	}
	if lng < -180 || lng > 180 {
		return orb.Point{}, fmt.Errorf("longitude %v out of range", lng)
	}
	if lat < -90 || lat > 90 {
		return orb.Point{}, fmt.Errorf("latitude %v out of range", lat)
	}
	return orb.Point{lng, lat}, nil
}
