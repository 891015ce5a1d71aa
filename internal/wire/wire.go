// Package wire serializes record batches to the Arrow IPC stream format,
// the sole data-interchange format at the engine boundary. Every
// data-bearing response is a self-describing schema-plus-batches stream;
// no row-oriented or text serialization leaves the engine.
package wire

import (
	"bytes"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// RecordSource yields record batches one at a time. Next reports whether a
// batch is available; the batch returned by Record is only valid until the
// next call to Next. Err surfaces any failure after iteration stops.
type RecordSource interface {
	Schema() *arrow.Schema
	Next() bool
	Record() arrow.Record
	Err() error
}

// EncodeStream writes every batch from src into an IPC stream, skipping
// empty batches. The producer is drained incrementally so the full result
// set is never materialized outside the returned buffer.
func EncodeStream(src RecordSource) ([]byte, error) {
	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(src.Schema()), ipc.WithAllocator(memory.DefaultAllocator))

	for src.Next() {
		rec := src.Record()
		if rec == nil || rec.NumRows() == 0 {
			continue
		}
		if err := w.Write(rec); err != nil {
			w.Close()
			return nil, fmt.Errorf("write ipc batch: %w", err)
		}
	}
	if err := src.Err(); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finish ipc stream: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeRecords serializes an already-materialized batch list.
func EncodeRecords(schema *arrow.Schema, recs []arrow.Record) ([]byte, error) {
	return EncodeStream(&sliceSource{schema: schema, recs: recs})
}

type sliceSource struct {
	schema *arrow.Schema
	recs   []arrow.Record
	cur    arrow.Record
}

func (s *sliceSource) Schema() *arrow.Schema { return s.schema }

func (s *sliceSource) Next() bool {
	if len(s.recs) == 0 {
		return false
	}
	s.cur, s.recs = s.recs[0], s.recs[1:]
	return true
}

func (s *sliceSource) Record() arrow.Record { return s.cur }
func (s *sliceSource) Err() error           { return nil }

// Decode recovers the schema and batches from an IPC stream. The receive
// side is not on the engine's hot path; it serves tests and presentation
// adapters. Returned records are retained and must be released by the
// caller.
func Decode(b []byte) (*arrow.Schema, []arrow.Record, error) {
	r, err := ipc.NewReader(bytes.NewReader(b), ipc.WithAllocator(memory.DefaultAllocator))
	if err != nil {
		return nil, nil, fmt.Errorf("open ipc stream: %w", err)
	}
	defer r.Release()

	var recs []arrow.Record
	for r.Next() {
		rec := r.Record()
		rec.Retain()
		recs = append(recs, rec)
	}
	if err := r.Err(); err != nil && err != io.EOF {
		for _, rec := range recs {
			rec.Release()
		}
		return nil, nil, fmt.Errorf("read ipc stream: %w", err)
	}
	return r.Schema(), recs, nil
}

// RowCount sums the rows across the batches of an encoded stream.
func RowCount(b []byte) (int64, error) {
	_, recs, err := Decode(b)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, rec := range recs {
		n += rec.NumRows()
		rec.Release()
	}
	return n, nil
}
