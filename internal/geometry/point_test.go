package geometry

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/prgtools/prg2geoparquet/internal/prg"
)

func TestParsePos(t *testing.T) {
	tests := []struct {
		name         string
		in           string
		wantNorthing float64
		wantEasting  float64
		wantErr      string
	}{
		{name: "valid", in: "485227.04 637742.12", wantNorthing: 485227.04, wantEasting: 637742.12},
		{name: "extra whitespace", in: "  485227.04\t637742.12 ", wantNorthing: 485227.04, wantEasting: 637742.12},
		{name: "one coordinate", in: "485227.04", wantErr: "exactly 2 coordinates"},
		{name: "three coordinates", in: "1 2 3", wantErr: "exactly 2 coordinates"},
		{name: "empty", in: "", wantErr: "exactly 2 coordinates"},
		{name: "non-numeric", in: "abc 637742.12", wantErr: "invalid syntax"},
		{name: "non-finite", in: "NaN 637742.12", wantErr: "non-finite"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			northing, easting, err := ParsePos(tt.in)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want mention of %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if northing != tt.wantNorthing || easting != tt.wantEasting {
				t.Errorf("got (%f, %f), want (%f, %f)", northing, easting, tt.wantNorthing, tt.wantEasting)
			}
		})
	}
}

func TestPointFlipsAxisOrder(t *testing.T) {
	stage, err := NewStage(1)
	if err != nil {
		t.Fatal(err)
	}

	// Easting 637742 is well east of the 500000 false easting, so the
	// longitude must land east of the 19E central meridian. Reading the
	// pair unflipped would put the point far outside Poland.
	r := prg.AddressRecord{
		Identity:    prg.Identity{Namespace: "PL.PZGIK.200", LocalID: "p1"},
		RawPosition: "485227.04 637742.12",
	}
	point, err := stage.Point(&r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	coords := point.FlatCoords()
	if len(coords) != 2 {
		t.Fatalf("expected 2 coordinates, got %d", len(coords))
	}
	lon, lat := coords[0], coords[1]
	if math.IsNaN(lon) || math.IsInf(lon, 0) || math.IsNaN(lat) || math.IsInf(lat, 0) {
		t.Fatalf("non-finite coordinates: (%f, %f)", lon, lat)
	}
	if lon <= 19.0 {
		t.Errorf("lon = %f, want east of the central meridian", lon)
	}
	if lon < 14.0 || lon > 24.2 || lat < 49.0 || lat > 55.0 {
		t.Errorf("point (%f, %f) outside Poland: axis order likely not flipped", lon, lat)
	}
	if point.SRID() != 4326 {
		t.Errorf("SRID = %d, want 4326", point.SRID())
	}
}

func TestLocate(t *testing.T) {
	stage, err := NewStage(4)
	if err != nil {
		t.Fatal(err)
	}

	records := make([]prg.AddressRecord, 10)
	for i := range records {
		records[i] = prg.AddressRecord{
			Identity:    prg.Identity{Namespace: "PL.PZGIK.200", LocalID: "p"},
			RawPosition: "485227.04 637742.12",
		}
	}

	located, err := stage.Locate(context.Background(), records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(located) != len(records) {
		t.Fatalf("expected %d located records, got %d", len(records), len(located))
	}
	for i := range located {
		if located[i].Geometry == nil {
			t.Fatalf("record %d has nil geometry", i)
		}
		// 21 bytes: byte order + type + two float64s.
		if len(located[i].WKB) != 21 {
			t.Errorf("record %d WKB length = %d, want 21", i, len(located[i].WKB))
		}
	}
}

func TestLocateFailsBatchOnMalformedPosition(t *testing.T) {
	stage, err := NewStage(2)
	if err != nil {
		t.Fatal(err)
	}

	records := []prg.AddressRecord{
		{Identity: prg.Identity{LocalID: "ok"}, RawPosition: "485227.04 637742.12"},
		{Identity: prg.Identity{LocalID: "broken"}, RawPosition: "485227.04"},
	}
	if _, err := stage.Locate(context.Background(), records); err == nil {
		t.Fatal("expected error for malformed position")
	}
}
