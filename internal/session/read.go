package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/quarrydata/quarry/internal/dataset"
	"github.com/quarrydata/quarry/internal/wire"
)

// PreviewIPC returns the first limit rows of a dataset as Arrow IPC stream
// bytes. The persistent path streams through the store's read path; the
// transient path forces a bounded collect.
func (s *Session) PreviewIPC(ctx context.Context, name string, limit uint64) ([]byte, error) {
	return s.ChunkIPC(ctx, name, 0, limit)
}

// ChunkIPC returns a paginated slice of a dataset as IPC bytes.
func (s *Session) ChunkIPC(ctx context.Context, name string, offset, limit uint64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, err := s.resolve(ctx, name)
	if err != nil {
		return nil, err
	}

	switch sub {
	case substratePersistent:
		return s.storage.TableChunkIPC(ctx, name, offset, limit)
	default:
		frame := s.transient[name]
		schema, recs, err := frame.Slice(ctx, int64(offset), int64(limit))
		if err != nil {
			return nil, err
		}
		defer func() {
			for _, rec := range recs {
				rec.Release()
			}
		}()
		return wire.EncodeRecords(schema, recs)
	}
}

// RowCount returns the total rows of a dataset: exact via COUNT(*) for
// persistent tables, a forced streamed evaluation for transient frames.
func (s *Session) RowCount(ctx context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, err := s.resolve(ctx, name)
	if err != nil {
		return 0, err
	}
	switch sub {
	case substratePersistent:
		return s.storage.TableRowCount(ctx, name)
	default:
		return s.transient[name].RowCount(ctx)
	}
}

// ExecuteSQL runs SQL against the active store, always materializing the
// result into a fresh sql_result_<counter> table so every execution is
// inspectable and reusable under a stable name. Returns the table name.
func (s *Session) ExecuteSQL(ctx context.Context, query string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.requireStore()
	if err != nil {
		return "", err
	}
	resultName := fmt.Sprintf("sql_result_%d", s.nextCounter())
	s.log.Info("executing sql", "sql_len", len(query), "result_table", resultName)
	return st.ExecuteSQLToTable(ctx, query, resultName)
}

// QueryIPC runs read-only SQL against the active store and streams the
// result as IPC bytes without materializing a table.
func (s *Session) QueryIPC(ctx context.Context, query string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.requireStore()
	if err != nil {
		return nil, err
	}
	return st.QueryToIPC(ctx, query)
}

// SummaryStatsIPC returns per-column statistics (count, null count, min,
// max, mean, stddev and friends) via the engine's native SUMMARIZE,
// persistent datasets only.
func (s *Session) SummaryStatsIPC(ctx context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.requireStore()
	if err != nil {
		return nil, err
	}
	ok, err := st.HasTable(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, dataset.Errf(dataset.CodeDatasetNotFound, "dataset not found: %s", name)
	}
	return st.QueryToIPC(ctx, fmt.Sprintf("SUMMARIZE SELECT * FROM %s", quoteIdent(name)))
}

// chartAggregates is the accepted aggregate set for AggregateForChart.
var chartAggregates = map[string]bool{
	"count": true, "sum": true, "avg": true, "min": true, "max": true,
}

// AggregateForChart builds label/value pairs for chart rendering:
// SELECT <group> AS label, <AGG>(<value>) AS value ... ORDER BY value DESC
// LIMIT <limit>. aggKind "count" needs no value column; every other kind
// requires one.
func (s *Session) AggregateForChart(ctx context.Context, name, groupCol, valueCol, aggKind string, limit uint64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.requireStore()
	if err != nil {
		return nil, err
	}
	ok, err := st.HasTable(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, dataset.Errf(dataset.CodeDatasetNotFound, "dataset not found: %s", name)
	}

	kind := strings.ToLower(aggKind)
	if !chartAggregates[kind] {
		return nil, dataset.Errf(dataset.CodeInvalidArgument, "unknown aggregation kind: %s", aggKind)
	}

	var aggExpr string
	switch {
	case kind == "count":
		aggExpr = "COUNT(*)"
	case valueCol != "":
		aggExpr = fmt.Sprintf("%s(%s)", strings.ToUpper(kind), quoteIdent(valueCol))
	default:
		return nil, dataset.Errf(dataset.CodeInvalidArgument, "aggregation %q requires a value column", aggKind)
	}

	query := fmt.Sprintf(
		"SELECT %s AS label, %s AS value FROM %s GROUP BY %s ORDER BY value DESC LIMIT %d",
		quoteIdent(groupCol), aggExpr, quoteIdent(name), quoteIdent(groupCol), limit)
	return st.QueryToIPC(ctx, query)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
