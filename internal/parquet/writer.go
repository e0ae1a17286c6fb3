package parquet

import (
	"encoding/json"
	"os"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/compress"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"

	"github.com/mvexel/osm-fourmore/internal/poi"
)

// POIWriter writes classified POIs to a Parquet file, one row per POI
// with the same columns the database table carries. Rows are buffered
// and flushed as row groups of batchSize.
type POIWriter struct {
	file      *os.File
	writer    *pqarrow.FileWriter
	builder   *array.RecordBuilder
	batchSize int
	count     int
}

// NewPOIWriter creates a new POI Parquet writer
func NewPOIWriter(path string, batchSize int) (*POIWriter, error) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "osm_id", Type: arrow.PrimitiveTypes.Int64, Nullable: false},
		{Name: "osm_type", Type: arrow.BinaryTypes.String, Nullable: false},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: false},
		{Name: "class", Type: arrow.BinaryTypes.String, Nullable: false},
		{Name: "subclass", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "lat", Type: arrow.PrimitiveTypes.Float64, Nullable: false},
		{Name: "lon", Type: arrow.PrimitiveTypes.Float64, Nullable: false},
		{Name: "tags", Type: arrow.BinaryTypes.String, Nullable: false},
		{Name: "address", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "phone", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "website", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "opening_hours", Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)

	f, err := os.Create(path)
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
		return nil, err
	}

	builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)

	return &POIWriter{
		file:      f,
		writer:    writer,
		builder:   builder,
		batchSize: batchSize,
	}, nil
}

// Write appends one POI
func (w *POIWriter) Write(p poi.POI) error {
	tagsJSON, err := json.Marshal(p.Tags)
	if err != nil {
		return err
	}

	w.builder.Field(0).(*array.Int64Builder).Append(p.OsmID)
	w.builder.Field(1).(*array.StringBuilder).Append(string(p.OsmType))
	w.builder.Field(2).(*array.StringBuilder).Append(p.Name)
	w.builder.Field(3).(*array.StringBuilder).Append(p.Class)
	appendNullable(w.builder.Field(4).(*array.StringBuilder), p.Subclass)
	w.builder.Field(5).(*array.Float64Builder).Append(p.Lat)
	w.builder.Field(6).(*array.Float64Builder).Append(p.Lon)
	w.builder.Field(7).(*array.StringBuilder).Append(string(tagsJSON))
	appendNullable(w.builder.Field(8).(*array.StringBuilder), p.Fields.Address)
	appendNullable(w.builder.Field(9).(*array.StringBuilder), p.Fields.Phone)
	appendNullable(w.builder.Field(10).(*array.StringBuilder), p.Fields.Website)
	appendNullable(w.builder.Field(11).(*array.StringBuilder), p.Fields.OpeningHours)

	w.count++
	if w.count >= w.batchSize {
		return w.flush()
	}
	return nil
}

func appendNullable(b *array.StringBuilder, s string) {
	if s == "" {
		b.AppendNull()
		return
	}
	b.Append(s)
}

func (w *POIWriter) flush() error {
	if w.count == 0 {
		return nil
	}
	rec := w.builder.NewRecord()
	defer rec.Release()
	err := w.writer.Write(rec)
	w.count = 0
	return err
}

// Close flushes buffered rows and closes the file
func (w *POIWriter) Close() error {
	if err := w.flush(); err != nil {
		return err
	}
	if err := w.writer.Close(); err != nil {
		return err
	}
	return w.file.Close()
}
