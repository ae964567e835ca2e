// Package geometry turns the textual gml:pos position of an address record
// into a reprojected point. The generic GML geometry machinery is not used:
// the dump encodes positions as a bare coordinate pair, which a point-only
// parser handles directly.
package geometry

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"golang.org/x/sync/errgroup"

	"github.com/prgtools/prg2geoparquet/internal/prg"
	"github.com/prgtools/prg2geoparquet/internal/proj"
)

// Located pairs a parsed record with its reprojected point geometry.
// The point is always lon/lat (EPSG:4326), WKB-encoded for the writer.
type Located struct {
	Record   prg.AddressRecord
	Geometry *geom.Point
	WKB      []byte
}

// ParsePos splits a gml:pos literal into its two coordinates. EPSG:2180 is
// northing-first, so the first number is the northing. Anything other than
// exactly two finite numbers is rejected.
func ParsePos(text string) (northing, easting float64, err error) {
	parts := strings.Fields(text)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("position %q: expected exactly 2 coordinates, got %d", text, len(parts))
	}
	northing, err = strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("position %q: %w", text, err)
	}
	easting, err = strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("position %q: %w", text, err)
	}
	if math.IsNaN(northing) || math.IsInf(northing, 0) || math.IsNaN(easting) || math.IsInf(easting, 0) {
		return 0, 0, fmt.Errorf("position %q: non-finite coordinate", text)
	}
	return northing, easting, nil
}

// Stage reprojects record positions from EPSG:2180 to lon/lat.
type Stage struct {
	tr      *proj.Transformer
	workers int
}

// NewStage creates a geometry stage with the given parallelism.
func NewStage(workers int) (*Stage, error) {
	tr, err := proj.NewTransformer(proj.SRID2180, proj.SRID4326)
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}
	return &Stage{tr: tr, workers: workers}, nil
}

// Point parses and reprojects one record's position. The source pair is
// flipped to (easting, northing) before it is interpreted as a point;
// skipping the flip would reproject a transposed location without any
// error surfacing.
func (s *Stage) Point(r *prg.AddressRecord) (*geom.Point, error) {
	northing, easting, err := ParsePos(r.RawPosition)
	if err != nil {
		return nil, fmt.Errorf("record %s/%s: %w", r.Identity.Namespace, r.Identity.LocalID, err)
	}
	lon, lat := s.tr.Transform(easting, northing)
	return geom.NewPointFlat(geom.XY, []float64{lon, lat}).SetSRID(proj.SRID4326), nil
}

// Locate reprojects all records in parallel chunks. A single malformed
// position fails the whole batch; a null or degenerate geometry is never
// emitted.
func (s *Stage) Locate(ctx context.Context, records []prg.AddressRecord) ([]Located, error) {
	out := make([]Located, len(records))

	chunk := (len(records) + s.workers - 1) / s.workers
	if chunk < 1 {
		chunk = 1
	}

	g, _ := errgroup.WithContext(ctx)
	for start := 0; start < len(records); start += chunk {
		start := start
		end := start + chunk
		if end > len(records) {
			end = len(records)
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				point, err := s.Point(&records[i])
				if err != nil {
					return err
				}
				data, err := wkb.Marshal(point, wkb.NDR)
				if err != nil {
					return fmt.Errorf("encoding WKB: %w", err)
				}
				out[i] = Located{Record: records[i], Geometry: point, WKB: data}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
