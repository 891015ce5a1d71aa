package store

import (
	"context"
	"fmt"
)

// ExportCSV writes a table to a CSV file with a header row, via native COPY.
func (s *Store) ExportCSV(ctx context.Context, tableName, outputPath string) error {
	query := fmt.Sprintf("COPY %s TO %s (FORMAT CSV, HEADER TRUE)",
		quoteIdent(tableName), quotePath(outputPath))
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return storeErr(err)
	}
	return nil
}

// ExportParquet writes a table to a Parquet file via native COPY.
func (s *Store) ExportParquet(ctx context.Context, tableName, outputPath string) error {
	query := fmt.Sprintf("COPY %s TO %s (FORMAT PARQUET)",
		quoteIdent(tableName), quotePath(outputPath))
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return storeErr(err)
	}
	return nil
}
