// Package lazy is the transient substrate: a named file scan plus a chain
// of deferred operations, evaluated on demand and never written to disk.
// Compute (sorting) runs through the gorilla DataFrame engine; scans stream
// through the Arrow file readers.
package lazy

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/quarrydata/quarry/internal/dataset"
)

type sortOp struct {
	columns   []string
	ascending []bool
}

// Frame is an immutable lazy computation graph: a source file and the
// operations applied to it. Every transformation returns a new Frame; the
// source is never mutated.
type Frame struct {
	path   string
	format dataset.Format
	ops    []sortOp
}

// Scan builds a Frame over a file, detecting the format by extension with
// the same rules as persistent import. Nothing is read yet beyond the
// existence check.
func Scan(path string) (*Frame, error) {
	format, err := dataset.DetectFormat(path)
	if err != nil {
		return nil, err
	}
	return &Frame{path: path, format: format}, nil
}

// Path returns the source file path.
func (f *Frame) Path() string { return f.path }

// Sort returns a new Frame with a deferred multi-column sort appended.
// Mismatched slice lengths zip to the shorter; binding layers are expected
// to reject the mismatch before it reaches the engine.
func (f *Frame) Sort(columns []string, descending []bool) *Frame {
	n := len(columns)
	if len(descending) < n {
		n = len(descending)
	}
	op := sortOp{columns: make([]string, n), ascending: make([]bool, n)}
	for i := 0; i < n; i++ {
		op.columns[i] = columns[i]
		op.ascending[i] = !descending[i]
	}

	ops := make([]sortOp, len(f.ops), len(f.ops)+1)
	copy(ops, f.ops)
	return &Frame{path: f.path, format: f.format, ops: append(ops, op)}
}

// Schema computes the frame's schema without forcing full evaluation; only
// enough of the source is read to infer it. Sorts do not alter the schema.
func (f *Frame) Schema(ctx context.Context) (*arrow.Schema, error) {
	st, err := openStream(ctx, f.path, f.format)
	if err != nil {
		return nil, lazyErr(err)
	}
	defer st.Release()

	schema := st.Schema()
	if schema == nil {
		return nil, dataset.Errf(dataset.CodeLazyEngine, "cannot infer schema for %s", f.path)
	}
	return schema, nil
}

// RowCount forces evaluation of the source and returns the exact row count.
// Deferred sorts are order-only and are skipped.
func (f *Frame) RowCount(ctx context.Context) (int64, error) {
	st, err := openStream(ctx, f.path, f.format)
	if err != nil {
		return 0, lazyErr(err)
	}
	defer st.Release()

	var n int64
	for st.Next() {
		n += st.Record().NumRows()
	}
	if err := st.Err(); err != nil {
		return 0, lazyErr(err)
	}
	return n, nil
}

// Collect evaluates the frame. A negative limit collects everything; a
// bounded limit on an op-free frame stops reading early. The caller must
// release the returned records.
func (f *Frame) Collect(ctx context.Context, limit int64) (*arrow.Schema, []arrow.Record, error) {
	if len(f.ops) == 0 {
		return f.collectScan(ctx, 0, limit)
	}
	return f.collectComputed(ctx, 0, limit)
}

// Slice evaluates the frame and returns rows [offset, offset+limit).
func (f *Frame) Slice(ctx context.Context, offset, limit int64) (*arrow.Schema, []arrow.Record, error) {
	if len(f.ops) == 0 {
		return f.collectScan(ctx, offset, limit)
	}
	return f.collectComputed(ctx, offset, limit)
}

// collectScan streams the source directly, skipping offset rows and
// stopping after limit rows. limit < 0 means unbounded.
func (f *Frame) collectScan(ctx context.Context, offset, limit int64) (*arrow.Schema, []arrow.Record, error) {
	st, err := openStream(ctx, f.path, f.format)
	if err != nil {
		return nil, nil, lazyErr(err)
	}
	defer st.Release()

	schema := st.Schema()
	if schema == nil {
		return nil, nil, dataset.Errf(dataset.CodeLazyEngine, "cannot infer schema for %s", f.path)
	}

	var recs []arrow.Record
	var pos, taken int64
	for st.Next() {
		rec := st.Record()
		rows := rec.NumRows()
		start := pos
		pos += rows

		if pos <= offset {
			continue
		}
		lo := int64(0)
		if offset > start {
			lo = offset - start
		}
		hi := rows
		if limit >= 0 {
			remaining := limit - taken
			if hi-lo > remaining {
				hi = lo + remaining
			}
		}
		if hi <= lo {
			break
		}

		if lo == 0 && hi == rows {
			rec.Retain()
			recs = append(recs, rec)
		} else {
			recs = append(recs, rec.NewSlice(lo, hi))
		}
		taken += hi - lo

		if limit >= 0 && taken >= limit {
			break
		}
	}
	if err := st.Err(); err != nil {
		releaseAll(recs)
		return nil, nil, lazyErr(err)
	}
	return schema, recs, nil
}

// collectComputed materializes the source into the gorilla engine, applies
// the deferred operation chain, and slices the result.
func (f *Frame) collectComputed(ctx context.Context, offset, limit int64) (*arrow.Schema, []arrow.Record, error) {
	st, err := openStream(ctx, f.path, f.format)
	if err != nil {
		return nil, nil, lazyErr(err)
	}

	df, err := dataFrameFromStream(st)
	st.Release()
	if err != nil {
		return nil, nil, lazyErr(err)
	}
	defer df.Release()

	lf := df.Lazy()
	for _, op := range f.ops {
		lf = lf.SortBy(op.columns, op.ascending)
	}
	out, err := lf.Collect()
	if err != nil {
		return nil, nil, lazyErr(err)
	}
	defer out.Release()

	total := int64(out.Len())
	lo := offset
	if lo > total {
		lo = total
	}
	hi := total
	if limit >= 0 && lo+limit < total {
		hi = lo + limit
	}
	if lo > 0 || hi < total {
		sliced := out.Slice(int(lo), int(hi))
		defer sliced.Release()
		schema, rec, err := recordFromDataFrame(sliced)
		if err != nil {
			return nil, nil, lazyErr(err)
		}
		return schema, []arrow.Record{rec}, nil
	}

	schema, rec, err := recordFromDataFrame(out)
	if err != nil {
		return nil, nil, lazyErr(err)
	}
	return schema, []arrow.Record{rec}, nil
}

// sorted reports whether the frame carries deferred compute.
func (f *Frame) sorted() bool { return len(f.ops) > 0 }

func releaseAll(recs []arrow.Record) {
	for _, rec := range recs {
		rec.Release()
	}
}

// lazyErr types an engine failure as LAZY_ENGINE_ERROR unless already typed.
func lazyErr(err error) error {
	if err == nil {
		return nil
	}
	if dataset.CodeOf(err) != "" {
		return err
	}
	return dataset.Wrap(dataset.CodeLazyEngine, err)
}
