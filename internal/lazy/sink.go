package lazy

import (
	"context"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// SinkCSV streams the frame into a CSV file with a header row. An op-free
// frame is piped reader-to-writer batch by batch, never fully materialized;
// a sorted frame is a pipeline breaker and materializes before the
// batch-wise write.
func (f *Frame) SinkCSV(ctx context.Context, outputPath string) error {
	return f.sink(ctx, outputPath, func(out *os.File, schema *arrow.Schema) (batchWriter, error) {
		return csvSink{w: csv.NewWriter(out, schema, csv.WithHeader(true))}, nil
	})
}

// SinkParquet streams the frame into a Parquet file.
func (f *Frame) SinkParquet(ctx context.Context, outputPath string) error {
	return f.sink(ctx, outputPath, func(out *os.File, schema *arrow.Schema) (batchWriter, error) {
		fw, err := pqarrow.NewFileWriter(schema, out,
			parquet.NewWriterProperties(), pqarrow.DefaultWriterProps())
		if err != nil {
			return nil, err
		}
		return fw, nil
	})
}

// batchWriter is the consumer side of a streaming sink.
type batchWriter interface {
	Write(arrow.Record) error
	Close() error
}

type csvSink struct {
	w *csv.Writer
}

func (s csvSink) Write(rec arrow.Record) error { return s.w.Write(rec) }

func (s csvSink) Close() error {
	if err := s.w.Flush(); err != nil {
		return err
	}
	return s.w.Error()
}

func (f *Frame) sink(ctx context.Context, outputPath string, open func(*os.File, *arrow.Schema) (batchWriter, error)) error {
	out, err := os.Create(outputPath)
	if err != nil {
		return lazyErr(err)
	}
	defer out.Close()

	if f.sorted() {
		schema, recs, err := f.Collect(ctx, -1)
		if err != nil {
			return err
		}
		defer releaseAll(recs)
		w, err := open(out, schema)
		if err != nil {
			return lazyErr(err)
		}
		return f.writeBatches(w, recs...)
	}

	st, err := openStream(ctx, f.path, f.format)
	if err != nil {
		return lazyErr(err)
	}
	defer st.Release()

	schema := st.Schema()
	if schema == nil {
		return lazyErr(fmt.Errorf("cannot infer schema for %s", f.path))
	}
	w, err := open(out, schema)
	if err != nil {
		return lazyErr(err)
	}
	for st.Next() {
		if err := w.Write(st.Record()); err != nil {
			w.Close()
			return lazyErr(err)
		}
	}
	if err := st.Err(); err != nil {
		w.Close()
		return lazyErr(err)
	}
	return lazyErr(w.Close())
}

func (f *Frame) writeBatches(w batchWriter, recs ...arrow.Record) error {
	for _, rec := range recs {
		if rec.NumRows() == 0 {
			continue
		}
		if err := w.Write(rec); err != nil {
			w.Close()
			return lazyErr(err)
		}
	}
	return lazyErr(w.Close())
}
