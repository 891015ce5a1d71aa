package lazy

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/gorilla"
)

// columnValues accumulates one column's values across batches as a typed Go
// slice, the shape gorilla series are built from. Types outside gorilla's
// supported set travel as their string rendering; nulls flatten to zero
// values (the transient substrate trades null fidelity for a uniform
// compute engine, and the persistent substrate is the system of record).
type columnValues struct {
	name     string
	strings  []string
	int64s   []int64
	int32s   []int32
	float64s []float64
	float32s []float32
	bools    []bool
	kind     arrow.Type
}

func newColumnValues(f arrow.Field) *columnValues {
	c := &columnValues{name: f.Name}
	switch f.Type.ID() {
	case arrow.INT64, arrow.INT32, arrow.FLOAT64, arrow.FLOAT32, arrow.BOOL:
		c.kind = f.Type.ID()
	default:
		c.kind = arrow.STRING
	}
	return c
}

func (c *columnValues) appendFrom(col arrow.Array) {
	n := col.Len()
	switch c.kind {
	case arrow.INT64:
		a := col.(*array.Int64)
		for i := 0; i < n; i++ {
			c.int64s = append(c.int64s, a.Value(i))
		}
	case arrow.INT32:
		a := col.(*array.Int32)
		for i := 0; i < n; i++ {
			c.int32s = append(c.int32s, a.Value(i))
		}
	case arrow.FLOAT64:
		a := col.(*array.Float64)
		for i := 0; i < n; i++ {
			c.float64s = append(c.float64s, a.Value(i))
		}
	case arrow.FLOAT32:
		a := col.(*array.Float32)
		for i := 0; i < n; i++ {
			c.float32s = append(c.float32s, a.Value(i))
		}
	case arrow.BOOL:
		a := col.(*array.Boolean)
		for i := 0; i < n; i++ {
			c.bools = append(c.bools, a.Value(i))
		}
	default:
		for i := 0; i < n; i++ {
			if col.IsNull(i) {
				c.strings = append(c.strings, "")
				continue
			}
			c.strings = append(c.strings, col.ValueStr(i))
		}
	}
}

func (c *columnValues) series(mem memory.Allocator) gorilla.ISeries {
	switch c.kind {
	case arrow.INT64:
		return gorilla.NewSeries(c.name, c.int64s, mem)
	case arrow.INT32:
		return gorilla.NewSeries(c.name, c.int32s, mem)
	case arrow.FLOAT64:
		return gorilla.NewSeries(c.name, c.float64s, mem)
	case arrow.FLOAT32:
		return gorilla.NewSeries(c.name, c.float32s, mem)
	case arrow.BOOL:
		return gorilla.NewSeries(c.name, c.bools, mem)
	default:
		return gorilla.NewSeries(c.name, c.strings, mem)
	}
}

// dataFrameFromStream drains a record stream into a gorilla DataFrame.
// The caller owns the returned frame and must Release it.
func dataFrameFromStream(st recordStream) (*gorilla.DataFrame, error) {
	schema := st.Schema()
	if schema == nil {
		return nil, fmt.Errorf("scan produced no schema")
	}

	cols := make([]*columnValues, len(schema.Fields()))
	for i, f := range schema.Fields() {
		cols[i] = newColumnValues(f)
	}

	for st.Next() {
		rec := st.Record()
		for i := range cols {
			cols[i].appendFrom(rec.Column(i))
		}
	}
	if err := st.Err(); err != nil {
		return nil, err
	}

	mem := memory.NewGoAllocator()
	series := make([]gorilla.ISeries, len(cols))
	for i, c := range cols {
		series[i] = c.series(mem)
	}
	df := gorilla.NewDataFrame(series...)
	return df, nil
}

// recordFromDataFrame converts a gorilla DataFrame back into a single Arrow
// record. Column arrays are retained so the record outlives the frame.
func recordFromDataFrame(df *gorilla.DataFrame) (*arrow.Schema, arrow.Record, error) {
	names := df.Columns()
	fields := make([]arrow.Field, len(names))
	arrays := make([]arrow.Array, len(names))

	for i, name := range names {
		s, ok := df.Column(name)
		if !ok {
			return nil, nil, fmt.Errorf("column %q missing from collected frame", name)
		}
		arr := s.Array()
		arr.Retain()
		arrays[i] = arr
		fields[i] = arrow.Field{Name: name, Type: arr.DataType(), Nullable: true}
	}

	schema := arrow.NewSchema(fields, nil)
	rec := array.NewRecord(schema, arrays, int64(df.Len()))
	for _, arr := range arrays {
		arr.Release()
	}
	return schema, rec, nil
}
