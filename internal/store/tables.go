package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/quarrydata/quarry/internal/dataset"
)

// ListTables returns the names of all user tables, sorted.
func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT table_name FROM information_schema.tables WHERE table_schema = 'main' ORDER BY table_name")
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, storeErr(err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return names, nil
}

// HasTable reports whether a table with the given name exists.
func (s *Store) HasTable(ctx context.Context, tableName string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = 'main' AND table_name = ?",
		tableName).Scan(&count)
	if err != nil {
		return false, storeErr(err)
	}
	return count > 0, nil
}

// TableInfo returns column names, substrate-reported column types (in
// schema order) and the exact row count for a table.
func (s *Store) TableInfo(ctx context.Context, tableName string) (dataset.Info, error) {
	rowCount, err := s.TableRowCount(ctx, tableName)
	if err != nil {
		return dataset.Info{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT column_name, data_type FROM information_schema.columns WHERE table_schema = 'main' AND table_name = ? ORDER BY ordinal_position",
		tableName)
	if err != nil {
		return dataset.Info{}, storeErr(err)
	}
	defer rows.Close()

	var names, types []string
	for rows.Next() {
		var n, t string
		if err := rows.Scan(&n, &t); err != nil {
			return dataset.Info{}, storeErr(err)
		}
		names = append(names, n)
		types = append(types, t)
	}
	if err := rows.Err(); err != nil {
		return dataset.Info{}, storeErr(err)
	}

	return dataset.Info{
		Name:          tableName,
		NumColumns:    len(names),
		ColumnNames:   names,
		ColumnTypes:   types,
		RowCount:      rowCount,
		RowCountKnown: true,
		Persistent:    true,
	}, nil
}

// TableRowCount returns the exact row count via COUNT(*).
func (s *Store) TableRowCount(ctx context.Context, tableName string) (int64, error) {
	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(tableName))
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, storeErr(err)
	}
	return count, nil
}

// EstimatedSizeBytes estimates a table's in-memory size from a fixed
// per-type byte width multiplied by the row count. Explicitly a heuristic,
// not measured memory.
func (s *Store) EstimatedSizeBytes(ctx context.Context, tableName string) (uint64, error) {
	info, err := s.TableInfo(ctx, tableName)
	if err != nil {
		return 0, err
	}
	if info.RowCount == 0 {
		return 0, nil
	}

	var bytesPerRow uint64
	for _, t := range info.ColumnTypes {
		bytesPerRow += columnWidth(t)
	}
	return uint64(info.RowCount) * bytesPerRow, nil
}

func columnWidth(colType string) uint64 {
	upper := strings.ToUpper(colType)
	switch {
	case strings.Contains(upper, "BIGINT"), strings.Contains(upper, "DOUBLE"),
		strings.Contains(upper, "TIMESTAMP"):
		return 8
	case strings.Contains(upper, "INTEGER"), strings.Contains(upper, "FLOAT"):
		return 4
	case strings.Contains(upper, "SMALLINT"):
		return 2
	case strings.Contains(upper, "BOOLEAN"), strings.Contains(upper, "TINYINT"):
		return 1
	case strings.Contains(upper, "VARCHAR"), strings.Contains(upper, "TEXT"),
		strings.Contains(upper, "BLOB"):
		// Variable-length payloads get a fixed placeholder width.
		return 64
	default:
		return 32
	}
}

// DropTable removes a table if it exists.
func (s *Store) DropTable(ctx context.Context, tableName string) error {
	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdent(tableName))
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return storeErr(err)
	}
	return nil
}
