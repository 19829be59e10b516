package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"

	geojson "github.com/paulmach/go.geojson"

	"github.com/sudorandom/dc-globe/pkg/logging"
	"github.com/sudorandom/dc-globe/pkg/utils"
)

type LatLng struct {
	Lat, Lng float64
}

// Polyline is one outline traced on the globe.
type Polyline []LatLng

// FetchBoundaries downloads (or reads from cacheDir) a GeoJSON feature
// collection and returns the outer ring of every polygon in it.
func FetchBoundaries(ctx context.Context, client *http.Client, url, cacheDir string) ([]Polyline, error) {
	r, err := utils.GetCachedReader(ctx, client, url, cacheDir)
	if err != nil {
		return nil, fmt.Errorf("fetch boundaries: %w", err)
	}
	defer func() {
		if err := r.Close(); err != nil {
			logging.Debug().Err(err).Msg("Error closing boundaries reader")
		}
	}()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read boundaries: %w", err)
	}
	return ParseBoundaries(data)
}

// ParseBoundaries extracts outlines from a GeoJSON feature collection. Only
// the outer ring of each polygon is kept; holes are not drawn.
func ParseBoundaries(data []byte) ([]Polyline, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse boundaries: %w", err)
	}

	var lines []Polyline
	skipped := 0
	for _, f := range fc.Features {
		if f.Geometry == nil {
			skipped++
			continue
		}
		switch {
		case f.Geometry.IsPolygon():
			if len(f.Geometry.Polygon) > 0 {
				lines = appendLine(lines, f.Geometry.Polygon[0])
			}
		case f.Geometry.IsMultiPolygon():
			for _, poly := range f.Geometry.MultiPolygon {
				if len(poly) > 0 {
					lines = appendLine(lines, poly[0])
				}
			}
		case f.Geometry.IsLineString():
			lines = appendLine(lines, f.Geometry.LineString)
		case f.Geometry.IsMultiLineString():
			for _, ls := range f.Geometry.MultiLineString {
				lines = appendLine(lines, ls)
			}
		default:
			skipped++
		}
	}
	if skipped > 0 {
		l := logging.Component("sources")
		l.Debug().Int("skipped", skipped).Msg("Ignored boundary features without outlines")
	}
	return lines, nil
}

func appendLine(lines []Polyline, coords [][]float64) []Polyline {
	line := make(Polyline, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			continue
		}
		line = append(line, LatLng{Lat: c[1], Lng: c[0]})
	}
	if len(line) < 2 {
		return lines
	}
	return append(lines, line)
}
