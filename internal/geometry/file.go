package geometry

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
)

const squareMetersPerSquareMile = 2589988.110336

// FileResolver resolves boundary references against a directory of GeoJSON
// files. Inline coordinate literals resolve without touching the filesystem.
type FileResolver struct {
	dir string
}

// NewFileResolver creates a resolver over a boundary file directory.
func NewFileResolver(dir string) (*FileResolver, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("geometry directory is required")
	}
	return &FileResolver{dir: filepath.Clean(dir)}, nil
}

// Resolve returns the geometry and area for a reference. Inline lng,lat
// literals resolve to zero-area points; anything else is looked up as a
// .geojson boundary file (the extension may be omitted in the reference).
func (r *FileResolver) Resolve(ctx context.Context, ref string) (Resolution, error) {
	if err := ctx.Err(); err != nil {
		return Resolution{}, err
	}
	if r == nil {
		return Resolution{}, fmt.Errorf("resolver is not configured")
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Resolution{}, fmt.Errorf("geometry reference is required")
	}

	if IsInlinePoint(ref) {
		point, err := ParseInlinePoint(ref)
		if err != nil {
			return Resolution{}, err
		}
		return Resolution{Kind: KindPoint, Geometry: point}, nil
	}

	name := ref
	if !strings.HasSuffix(name, ".geojson") {
		name += ".geojson"
	}
	if name != filepath.Base(name) {
		return Resolution{}, fmt.Errorf("geometry reference %q must not contain path separators", ref)
	}

	data, err := os.ReadFile(filepath.Join(r.dir, name))
	if err != nil {
		return Resolution{}, fmt.Errorf("read boundary file %s: %w", name, err)
	}

	geometry, err := decodeBoundary(data)
	if err != nil {
		return Resolution{}, fmt.Errorf("decode boundary file %s: %w", name, err)
	}

	return Resolution{
		Kind:            KindPolygon,
		Geometry:        geometry,
		AreaSquareMiles: math.Abs(geo.Area(geometry)) / squareMetersPerSquareMile,
	}, nil
}

// decodeBoundary accepts either a FeatureCollection or a single Feature and
// returns the first feature's geometry.
func decodeBoundary(data []byte) (orb.Geometry, error) {
	if collection, err := geojson.UnmarshalFeatureCollection(data); err == nil {
		if len(collection.Features) == 0 {
			return nil, fmt.Errorf("feature collection is empty")
		}
		return collection.Features[0].Geometry, nil
	}
	feature, err := geojson.UnmarshalFeature(data)
	if err != nil {
		return nil, fmt.Errorf("not a feature collection or feature: %w", err)
	}
	return feature.Geometry, nil
}
