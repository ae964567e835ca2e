package geoparquet

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"

	"github.com/prgtools/prg2geoparquet/internal/projection"
)

func readTable(t *testing.T, path string) arrow.Table {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	table, err := pqarrow.ReadTable(context.Background(), f,
		parquet.NewReaderProperties(memory.DefaultAllocator),
		pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		t.Fatalf("reading %s back: %v", path, err)
	}
	t.Cleanup(table.Release)
	return table
}

func column(t *testing.T, table arrow.Table, name string) arrow.Array {
	t.Helper()
	indices := table.Schema().FieldIndices(name)
	if len(indices) != 1 {
		t.Fatalf("column %s not found", name)
	}
	chunks := table.Column(indices[0]).Data().Chunks()
	if len(chunks) != 1 {
		t.Fatalf("expected a single chunk for %s, got %d", name, len(chunks))
	}
	return chunks[0]
}

func TestGeoMetadata(t *testing.T) {
	doc, err := GeoMetadata("geometry")
	if err != nil {
		t.Fatal(err)
	}

	var parsed struct {
		Version       string `json:"version"`
		PrimaryColumn string `json:"primary_column"`
		Columns       map[string]struct {
			Encoding      string   `json:"encoding"`
			GeometryTypes []string `json:"geometry_types"`
			CRS           struct {
				Type string `json:"type"`
				ID   struct {
					Authority string `json:"authority"`
					Code      string `json:"code"`
				} `json:"id"`
				CoordinateSystem struct {
					Axis []struct {
						Direction string `json:"direction"`
					} `json:"axis"`
				} `json:"coordinate_system"`
			} `json:"crs"`
		} `json:"columns"`
	}
	if err := json.Unmarshal([]byte(doc), &parsed); err != nil {
		t.Fatalf("geo metadata is not valid JSON: %v", err)
	}

	if parsed.Version != "1.0.0" {
		t.Errorf("version = %q", parsed.Version)
	}
	if parsed.PrimaryColumn != "geometry" {
		t.Errorf("primary column = %q", parsed.PrimaryColumn)
	}
	col, ok := parsed.Columns["geometry"]
	if !ok {
		t.Fatal("geometry column metadata missing")
	}
	if col.Encoding != "WKB" {
		t.Errorf("encoding = %q", col.Encoding)
	}
	if len(col.GeometryTypes) != 1 || col.GeometryTypes[0] != "Point" {
		t.Errorf("geometry types = %v", col.GeometryTypes)
	}
	if col.CRS.Type != "GeographicCRS" || col.CRS.ID.Authority != "OGC" || col.CRS.ID.Code != "CRS84" {
		t.Errorf("crs = %+v", col.CRS.ID)
	}
	axes := col.CRS.CoordinateSystem.Axis
	if len(axes) != 2 || axes[0].Direction != "east" || axes[1].Direction != "north" {
		t.Errorf("axis order is not lon/lat: %+v", axes)
	}
}

func TestModeSchemasAreDisjoint(t *testing.T) {
	overture := map[string]bool{}
	for _, f := range overtureFields() {
		overture[f.Name] = true
	}

	shared := []string{}
	for _, f := range osmPolandFields() {
		if overture[f.Name] {
			shared = append(shared, f.Name)
		}
	}
	// The geometry column is the only semantic column carried under the
	// same name in both shapes.
	if len(shared) != 1 || shared[0] != "geometry" {
		t.Errorf("modes share columns beyond geometry: %v", shared)
	}

	if len(osmPolandFields()) != 3+projection.AdministrativeUnitDepth+14 {
		t.Errorf("osmpoland column count = %d", len(osmPolandFields()))
	}
	if len(overtureFields()) != 10 {
		t.Errorf("overture column count = %d", len(overtureFields()))
	}
}

func overtureRow() *projection.OvertureRow {
	place := "Warszawa"
	return &projection.OvertureRow{
		IDNamespace:         "PL.PZGIK.200",
		UniqueID:            "a",
		ObjectTimestamp:     time.Date(2013, 9, 27, 5, 22, 34, 0, time.UTC),
		AdministrativeUnits: []string{"Polska", "mazowieckie"},
		Place:               &place,
		HouseNumber:         "10A",
		Geometry:            []byte{0x01, 0x01, 0x00, 0x00, 0x00},
	}
}

func TestOvertureWriterWritesSingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addresses.parquet")

	w, err := NewOvertureWriter(path, 2)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if err := w.Write(overtureRow()); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	if w.Rows() != 5 {
		t.Errorf("rows = %d, want 5", w.Rows())
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("output file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("output file is empty")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after Close")
	}
}

func TestWriterOverwritesPreviousOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addresses.parquet")
	if err := os.WriteFile(path, []byte("previous run"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewOvertureWriter(path, 10)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(overtureRow()); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) == "previous run" {
		t.Error("previous output was not replaced")
	}
}

func TestAbortLeavesPreviousOutputUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addresses.parquet")
	if err := os.WriteFile(path, []byte("previous run"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewOvertureWriter(path, 10)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(overtureRow()); err != nil {
		t.Fatal(err)
	}
	w.Abort()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "previous run" {
		t.Error("abort must not touch the previous output")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after Abort")
	}
}

func TestOSMPolandWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.parquet")

	w, err := NewOSMPolandWriter(path, 100)
	if err != nil {
		t.Fatal(err)
	}
	version := time.Date(2013, 9, 27, 5, 22, 34, 0, time.UTC)
	unit := "Polska"
	row := &projection.OSMPolandRow{
		Namespace:     "PL.PZGIK.200",
		LocalID:       "a",
		VersionID:     version,
		HouseNumber:   "10A",
		Status:        "istniejacy",
		Geometry:      []byte{0x01},
		GMLIdentifier: "urn:prg:1",
		ValidFrom:     &version,
	}
	row.AdministrativeUnits[0] = &unit
	if err := w.Write(row); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("output file missing: %v", err)
	}
}

func osmPolandRow(localID string, components []string) *projection.OSMPolandRow {
	return &projection.OSMPolandRow{
		Namespace:  "PL.PZGIK.200",
		LocalID:    localID,
		VersionID:  time.Date(2013, 9, 27, 5, 22, 34, 0, time.UTC),
		Geometry:   []byte{0x01},
		Components: components,
	}
}

func TestListColumnsKeepNilAndEmptyApart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.parquet")

	w, err := NewOSMPolandWriter(path, 10)
	if err != nil {
		t.Fatal(err)
	}
	rows := []*projection.OSMPolandRow{
		osmPolandRow("none", nil),
		osmPolandRow("empty", []string{}),
		osmPolandRow("one", []string{"urn:prg:ulica:7339"}),
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	col := column(t, readTable(t, path), "komponent").(*array.List)
	if !col.IsNull(0) {
		t.Error("a record without components must write a null list")
	}
	if col.IsNull(1) {
		t.Error("an empty component list must not collapse to null")
	}
	offsets := col.Offsets()
	if n := offsets[2] - offsets[1]; n != 0 {
		t.Errorf("empty list length = %d", n)
	}
	if col.IsNull(2) {
		t.Error("a populated component list must not be null")
	}
	if n := offsets[3] - offsets[2]; n != 1 {
		t.Errorf("populated list length = %d", n)
	}
}

func TestOmittedScalarsWriteNull(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.parquet")

	w, err := NewOSMPolandWriter(path, 10)
	if err != nil {
		t.Fatal(err)
	}
	// A record the dump shipped without status, housenumber or identifier.
	if err := w.Write(osmPolandRow("bare", nil)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	table := readTable(t, path)
	for _, name := range []string{"status", "numerPorzadkowy", "gml:identifier"} {
		if !column(t, table, name).(*array.String).IsNull(0) {
			t.Errorf("omitted %s must be null, not empty", name)
		}
	}
	if column(t, table, "przestrzenNazw").(*array.String).IsNull(0) {
		t.Error("identity columns stay non-null")
	}
}

func TestOvertureNilUnitsWriteNull(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addresses.parquet")

	w, err := NewOvertureWriter(path, 10)
	if err != nil {
		t.Fatal(err)
	}
	row := overtureRow()
	row.AdministrativeUnits = nil
	row.HouseNumber = ""
	if err := w.Write(row); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	table := readTable(t, path)
	if !column(t, table, "administrative_units").(*array.List).IsNull(0) {
		t.Error("nil administrative units must write a null list")
	}
	if !column(t, table, "housenumber").(*array.String).IsNull(0) {
		t.Error("omitted housenumber must be null")
	}
}
