package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/quarrydata/quarry/internal/wire"
)

// queryBatchSize is the number of rows per record batch on the read path.
const queryBatchSize = 1024

// QueryToIPC executes arbitrary SQL and streams the result set into the
// Arrow IPC stream format batch-by-batch, without materializing the full
// result in an intermediate row structure. This is the only read path.
func (s *Store) QueryToIPC(ctx context.Context, query string) ([]byte, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	src, err := newRowSource(rows, queryBatchSize)
	if err != nil {
		return nil, storeErr(err)
	}
	defer src.release()

	out, err := wire.EncodeStream(src)
	if err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

// TableChunkIPC returns a paginated slice of a table as IPC bytes.
func (s *Store) TableChunkIPC(ctx context.Context, tableName string, offset, limit uint64) ([]byte, error) {
	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d OFFSET %d", quoteIdent(tableName), limit, offset)
	return s.QueryToIPC(ctx, query)
}

// TablePreviewIPC returns the first limit rows of a table as IPC bytes.
func (s *Store) TablePreviewIPC(ctx context.Context, tableName string, limit uint64) ([]byte, error) {
	return s.TableChunkIPC(ctx, tableName, 0, limit)
}

// rowSource adapts *sql.Rows into a wire.RecordSource, scanning rows into
// Arrow builders and emitting a record per batch.
type rowSource struct {
	rows    *sql.Rows
	schema  *arrow.Schema
	builder *array.RecordBuilder
	dest    []any
	ptrs    []any
	cur     arrow.Record
	err     error
	batch   int
	done    bool
}

func newRowSource(rows *sql.Rows, batch int) (*rowSource, error) {
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	fields := make([]arrow.Field, len(colTypes))
	for i, ct := range colTypes {
		fields[i] = arrow.Field{
			Name:     ct.Name(),
			Type:     arrowTypeFor(ct.DatabaseTypeName()),
			Nullable: true,
		}
	}
	schema := arrow.NewSchema(fields, nil)

	return &rowSource{
		rows:    rows,
		schema:  schema,
		builder: array.NewRecordBuilder(memory.DefaultAllocator, schema),
		dest:    make([]any, len(colTypes)),
		ptrs:    make([]any, len(colTypes)),
		batch:   batch,
	}, nil
}

func (r *rowSource) Schema() *arrow.Schema { return r.schema }

func (r *rowSource) Next() bool {
	if r.cur != nil {
		r.cur.Release()
		r.cur = nil
	}
	if r.done || r.err != nil {
		return false
	}

	for i := range r.ptrs {
		r.ptrs[i] = &r.dest[i]
	}

	n := 0
	for n < r.batch {
		if !r.rows.Next() {
			r.done = true
			break
		}
		if err := r.rows.Scan(r.ptrs...); err != nil {
			r.err = err
			return false
		}
		for i, v := range r.dest {
			appendValue(r.builder.Field(i), v)
		}
		n++
	}
	if err := r.rows.Err(); err != nil {
		r.err = err
		return false
	}
	if n == 0 {
		return false
	}
	r.cur = r.builder.NewRecord()
	return true
}

func (r *rowSource) Record() arrow.Record { return r.cur }
func (r *rowSource) Err() error           { return r.err }

func (r *rowSource) release() {
	if r.cur != nil {
		r.cur.Release()
		r.cur = nil
	}
	r.builder.Release()
}

// arrowTypeFor maps a DuckDB type name onto the wire schema. Exotic widths
// (HUGEINT, DECIMAL, temporal types) travel as strings; the consumer sees
// the substrate-reported type names through TableInfo, not this mapping.
func arrowTypeFor(dbType string) arrow.DataType {
	t := strings.ToUpper(dbType)
	switch {
	case t == "BOOLEAN":
		return arrow.FixedWidthTypes.Boolean
	case t == "TINYINT", t == "SMALLINT", t == "INTEGER", t == "BIGINT",
		t == "UTINYINT", t == "USMALLINT", t == "UINTEGER":
		return arrow.PrimitiveTypes.Int64
	case t == "FLOAT", t == "REAL", t == "DOUBLE":
		return arrow.PrimitiveTypes.Float64
	default:
		return arrow.BinaryTypes.String
	}
}

func appendValue(b array.Builder, v any) {
	if v == nil {
		b.AppendNull()
		return
	}
	switch fb := b.(type) {
	case *array.BooleanBuilder:
		if bv, ok := v.(bool); ok {
			fb.Append(bv)
		} else {
			fb.AppendNull()
		}
	case *array.Int64Builder:
		if iv, ok := asInt64(v); ok {
			fb.Append(iv)
		} else {
			fb.AppendNull()
		}
	case *array.Float64Builder:
		if fv, ok := asFloat64(v); ok {
			fb.Append(fv)
		} else {
			fb.AppendNull()
		}
	case *array.StringBuilder:
		fb.Append(asString(v))
	default:
		b.AppendNull()
	}
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int16:
		return int64(n), true
	case int8:
		return int64(n), true
	case int:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		i, err := strconv.ParseInt(asString(v), 10, 64)
		return i, err == nil
	}
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		f, err := strconv.ParseFloat(asString(v), 64)
		return f, err == nil
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case time.Time:
		return s.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(v)
	}
}
