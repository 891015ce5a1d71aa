// Package dataset holds the vocabulary shared by both storage substrates:
// dataset metadata, the engine's typed errors, and file-format detection.
package dataset

import (
	"os"
	"path/filepath"
	"strings"
)

// Info is a read-only view of a named dataset. It is recomputed on every
// query and never persisted.
type Info struct {
	Name        string
	NumColumns  int
	ColumnNames []string
	// ColumnTypes are the type names as reported by the owning substrate,
	// not normalized across substrates.
	ColumnTypes []string
	// RowCount is exact for persistent tables. For transient frames it is
	// not computed (RowCountKnown false) to avoid forcing evaluation.
	RowCount      int64
	RowCountKnown bool
	// Persistent marks which substrate owns the dataset.
	Persistent bool
	// EstimatedBytes is a per-type-width heuristic, persistent tables only.
	// Zero when unknown or empty.
	EstimatedBytes uint64
}

// Format identifies a supported tabular file format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatTSV     Format = "tsv"
	FormatParquet Format = "parquet"
	FormatIPC     Format = "ipc"
)

// DetectFormat maps a file path to its format by extension, after checking
// the file exists. Both substrates use this identically so import and scan
// fail the same way.
func DetectFormat(path string) (Format, error) {
	if _, err := os.Stat(path); err != nil {
		return "", Errf(CodeFileNotFound, "file not found: %s", path)
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "csv":
		return FormatCSV, nil
	case "tsv":
		return FormatTSV, nil
	case "parquet", "pq":
		return FormatParquet, nil
	case "ipc", "arrow", "feather":
		return FormatIPC, nil
	default:
		return "", Errf(CodeUnsupportedFormat, "unsupported file format: %s", ext)
	}
}

// Stem returns the file name without directory or extension, for use in
// generated dataset names. Falls back to "dataset" for degenerate paths.
func Stem(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		return "dataset"
	}
	return stem
}
