// Package geoparquet writes the projected record set as a single
// zstd-compressed GeoParquet file, one writer type per output shape. The
// CRS84 metadata document is embedded in the file so consumers do not have
// to guess the axis order of the geometry column.
package geoparquet

import (
	"fmt"
	"os"
	"time"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/compress"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"

	"github.com/prgtools/prg2geoparquet/internal/projection"
)

var timestampUTC = &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}

// geoSchema builds an arrow schema carrying the GeoParquet "geo" metadata.
func geoSchema(fields []arrow.Field) (*arrow.Schema, error) {
	geo, err := GeoMetadata("geometry")
	if err != nil {
		return nil, fmt.Errorf("rendering geo metadata: %w", err)
	}
	md := arrow.NewMetadata([]string{"geo"}, []string{geo})
	return arrow.NewSchema(fields, &md), nil
}

// fileWriter holds the pieces shared by both output shapes: a parquet
// writer over a temp file committed by rename, so an aborted run never
// replaces the previous output.
type fileWriter struct {
	path      string
	tmpPath   string
	file      *os.File
	writer    *pqarrow.FileWriter
	builder   *array.RecordBuilder
	batchSize int
	count     int
	total     int64
}

func newFileWriter(path string, schema *arrow.Schema, batchSize int) (*fileWriter, error) {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, err
	}

	writerProps := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Zstd),
		parquet.WithDictionaryDefault(false),
	)

	writer, err := pqarrow.NewFileWriter(schema, f, writerProps, pqarrow.DefaultWriterProps())
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, err
	}

	return &fileWriter{
		path:      path,
		tmpPath:   tmpPath,
		file:      f,
		writer:    writer,
		builder:   array.NewRecordBuilder(memory.DefaultAllocator, schema),
		batchSize: batchSize,
	}, nil
}

func (w *fileWriter) bump() error {
	w.count++
	w.total++
	if w.count >= w.batchSize {
		return w.flush()
	}
	return nil
}

func (w *fileWriter) flush() error {
	if w.count == 0 {
		return nil
	}
	rec := w.builder.NewRecord()
	defer rec.Release()
	err := w.writer.Write(rec)
	w.count = 0
	return err
}

// Close flushes remaining rows and moves the temp file over the target.
func (w *fileWriter) Close() error {
	if err := w.flush(); err != nil {
		return err
	}
	if err := w.writer.Close(); err != nil {
		return err
	}
	if err := w.file.Close(); err != nil {
		return err
	}
	return os.Rename(w.tmpPath, w.path)
}

// Abort discards the temp file, leaving any previous output untouched.
func (w *fileWriter) Abort() {
	w.writer.Close()
	w.file.Close()
	os.Remove(w.tmpPath)
}

// Rows returns the number of rows written so far.
func (w *fileWriter) Rows() int64 { return w.total }

func appendString(b array.Builder, s *string) {
	sb := b.(*array.StringBuilder)
	if s == nil {
		sb.AppendNull()
		return
	}
	sb.Append(*s)
}

func appendTimestamp(b array.Builder, t *time.Time) {
	tb := b.(*array.TimestampBuilder)
	if t == nil {
		tb.AppendNull()
		return
	}
	tb.Append(arrow.Timestamp(t.UnixMicro()))
}

func appendDate(b array.Builder, t *time.Time) {
	db := b.(*array.Date32Builder)
	if t == nil {
		db.AppendNull()
		return
	}
	db.Append(arrow.Date32FromTime(*t))
}

// appendOptional writes a null instead of an empty string for scalars the
// source record omitted.
func appendOptional(b array.Builder, s string) {
	sb := b.(*array.StringBuilder)
	if s == "" {
		sb.AppendNull()
		return
	}
	sb.Append(s)
}

// appendStringList keeps nil and empty apart: a record without any such
// element writes a null list, not a zero-length one.
func appendStringList(b array.Builder, values []string) {
	lb := b.(*array.ListBuilder)
	if values == nil {
		lb.AppendNull()
		return
	}
	lb.Append(true)
	vb := lb.ValueBuilder().(*array.StringBuilder)
	for _, v := range values {
		vb.Append(v)
	}
}

// OvertureWriter writes the minimal overture-shaped output.
type OvertureWriter struct {
	*fileWriter
}

func overtureFields() []arrow.Field {
	return []arrow.Field{
		{Name: "id_namespace", Type: arrow.BinaryTypes.String, Nullable: false},
		{Name: "unique_id", Type: arrow.BinaryTypes.String, Nullable: false},
		{Name: "object_timestamp", Type: timestampUTC, Nullable: false},
		{Name: "administrative_units", Type: arrow.ListOf(arrow.BinaryTypes.String), Nullable: true},
		{Name: "place", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "place_part", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "street", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "housenumber", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "postal_code", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "geometry", Type: arrow.BinaryTypes.Binary, Nullable: false},
	}
}

// NewOvertureWriter creates a GeoParquet writer for the overture shape.
func NewOvertureWriter(path string, batchSize int) (*OvertureWriter, error) {
	schema, err := geoSchema(overtureFields())
	if err != nil {
		return nil, err
	}
	w, err := newFileWriter(path, schema, batchSize)
	if err != nil {
		return nil, err
	}
	return &OvertureWriter{fileWriter: w}, nil
}

// Write appends one overture row.
func (w *OvertureWriter) Write(row *projection.OvertureRow) error {
	w.builder.Field(0).(*array.StringBuilder).Append(row.IDNamespace)
	w.builder.Field(1).(*array.StringBuilder).Append(row.UniqueID)
	w.builder.Field(2).(*array.TimestampBuilder).Append(arrow.Timestamp(row.ObjectTimestamp.UnixMicro()))
	appendStringList(w.builder.Field(3), row.AdministrativeUnits)
	appendString(w.builder.Field(4), row.Place)
	appendString(w.builder.Field(5), row.PlacePart)
	appendString(w.builder.Field(6), row.Street)
	appendOptional(w.builder.Field(7), row.HouseNumber)
	appendString(w.builder.Field(8), row.PostalCode)
	w.builder.Field(9).(*array.BinaryBuilder).Append(row.Geometry)
	return w.bump()
}

// OSMPolandWriter writes the full archival output with the original column
// names.
type OSMPolandWriter struct {
	*fileWriter
}

func osmPolandFields() []arrow.Field {
	fields := []arrow.Field{
		{Name: "przestrzenNazw", Type: arrow.BinaryTypes.String, Nullable: false},
		{Name: "lokalnyId", Type: arrow.BinaryTypes.String, Nullable: false},
		{Name: "wersjaId", Type: timestampUTC, Nullable: false},
	}
	for i := 0; i < projection.AdministrativeUnitDepth; i++ {
		fields = append(fields, arrow.Field{
			Name:     fmt.Sprintf("jednostkaAdmnistracyjna_%d", i),
			Type:     arrow.BinaryTypes.String,
			Nullable: true,
		})
	}
	fields = append(fields,
		arrow.Field{Name: "miejscowosc", Type: arrow.BinaryTypes.String, Nullable: true},
		arrow.Field{Name: "czescMiejscowosci", Type: arrow.BinaryTypes.String, Nullable: true},
		arrow.Field{Name: "ulica", Type: arrow.BinaryTypes.String, Nullable: true},
		arrow.Field{Name: "numerPorzadkowy", Type: arrow.BinaryTypes.String, Nullable: true},
		arrow.Field{Name: "kodPocztowy", Type: arrow.BinaryTypes.String, Nullable: true},
		arrow.Field{Name: "status", Type: arrow.BinaryTypes.String, Nullable: true},
		arrow.Field{Name: "geometry", Type: arrow.BinaryTypes.Binary, Nullable: false},
		arrow.Field{Name: "gml:identifier", Type: arrow.BinaryTypes.String, Nullable: true},
		arrow.Field{Name: "komponent", Type: arrow.ListOf(arrow.BinaryTypes.String), Nullable: true},
		arrow.Field{Name: "obiektEMUiA", Type: arrow.BinaryTypes.String, Nullable: true},
		arrow.Field{Name: "poczatekWersjiObiektu", Type: timestampUTC, Nullable: true},
		arrow.Field{Name: "koniecWersjiObiektu", Type: timestampUTC, Nullable: true},
		arrow.Field{Name: "prg-ad:waznyOd", Type: arrow.FixedWidthTypes.Date32, Nullable: true},
		arrow.Field{Name: "prg-ad:waznyDo", Type: arrow.FixedWidthTypes.Date32, Nullable: true},
	)
	return fields
}

// NewOSMPolandWriter creates a GeoParquet writer for the osmpoland shape.
func NewOSMPolandWriter(path string, batchSize int) (*OSMPolandWriter, error) {
	schema, err := geoSchema(osmPolandFields())
	if err != nil {
		return nil, err
	}
	w, err := newFileWriter(path, schema, batchSize)
	if err != nil {
		return nil, err
	}
	return &OSMPolandWriter{fileWriter: w}, nil
}

// Write appends one osmpoland row.
func (w *OSMPolandWriter) Write(row *projection.OSMPolandRow) error {
	w.builder.Field(0).(*array.StringBuilder).Append(row.Namespace)
	w.builder.Field(1).(*array.StringBuilder).Append(row.LocalID)
	w.builder.Field(2).(*array.TimestampBuilder).Append(arrow.Timestamp(row.VersionID.UnixMicro()))
	for i := 0; i < projection.AdministrativeUnitDepth; i++ {
		appendString(w.builder.Field(3+i), row.AdministrativeUnits[i])
	}
	base := 3 + projection.AdministrativeUnitDepth
	appendString(w.builder.Field(base), row.Place)
	appendString(w.builder.Field(base+1), row.PlacePart)
	appendString(w.builder.Field(base+2), row.Street)
	appendOptional(w.builder.Field(base+3), row.HouseNumber)
	appendString(w.builder.Field(base+4), row.PostalCode)
	appendOptional(w.builder.Field(base+5), row.Status)
	w.builder.Field(base+6).(*array.BinaryBuilder).Append(row.Geometry)
	appendOptional(w.builder.Field(base+7), row.GMLIdentifier)
	appendStringList(w.builder.Field(base+8), row.Components)
	appendString(w.builder.Field(base+9), row.EMUiARef)
	appendTimestamp(w.builder.Field(base+10), row.LifecycleStart)
	appendTimestamp(w.builder.Field(base+11), row.LifecycleEnd)
	appendDate(w.builder.Field(base+12), row.ValidFrom)
	appendDate(w.builder.Field(base+13), row.ValidTo)
	return w.bump()
}
