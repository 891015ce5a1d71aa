package store

import (
	"context"
	"fmt"

	"github.com/quarrydata/quarry/internal/dataset"
)

// ImportFile loads a file into a persistent table using DuckDB's native
// readers, detecting the format by extension. The desired name is sanitized
// and the name actually used is returned; callers must use the returned
// name, since sanitization may have altered the requested one.
func (s *Store) ImportFile(ctx context.Context, filePath, tableName string) (string, error) {
	format, err := dataset.DetectFormat(filePath)
	if err != nil {
		return "", err
	}

	safeName := sanitizeTableName(tableName)

	var reader string
	switch format {
	case dataset.FormatCSV, dataset.FormatTSV:
		reader = fmt.Sprintf("read_csv(%s, auto_detect=true)", quotePath(filePath))
	case dataset.FormatParquet:
		reader = fmt.Sprintf("read_parquet(%s)", quotePath(filePath))
	case dataset.FormatIPC:
		// DuckDB scans Arrow IPC files directly from the path.
		reader = quotePath(filePath)
	}

	sql := fmt.Sprintf("CREATE OR REPLACE TABLE %s AS SELECT * FROM %s", quoteIdent(safeName), reader)
	if _, err := s.db.ExecContext(ctx, sql); err != nil {
		return "", storeErr(err)
	}
	return safeName, nil
}

// ExecuteSQLToTable materializes the result of an arbitrary SQL statement
// as a new table via CREATE OR REPLACE, which the engine applies
// atomically: on failure the prior same-named table (if any) is untouched.
// Returns the sanitized table name actually used.
func (s *Store) ExecuteSQLToTable(ctx context.Context, query, resultTable string) (string, error) {
	safeName := sanitizeTableName(resultTable)
	createSQL := fmt.Sprintf("CREATE OR REPLACE TABLE %s AS %s", quoteIdent(safeName), query)
	if _, err := s.db.ExecContext(ctx, createSQL); err != nil {
		return "", storeErr(err)
	}
	return safeName, nil
}
