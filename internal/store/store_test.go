package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/quarrydata/quarry/internal/dataset"
	"github.com/quarrydata/quarry/internal/wire"
)

const testCSV = `name,age,city,score
Alice,30,New York,95.5
Bob,25,San Francisco,88.0
Charlie,35,Chicago,72.3
Diana,28,Boston,91.1
Eve,32,Seattle,85.7
`

func writeTestCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "people.csv")
	if err := os.WriteFile(path, []byte(testCSV), 0o644); err != nil {
		t.Fatalf("write test csv: %v", err)
	}
	return path
}

func openScratch(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestImportFile_CSV(t *testing.T) {
	ctx := context.Background()
	s := openScratch(t)

	name, err := s.ImportFile(ctx, writeTestCSV(t), "test_data")
	if err != nil {
		t.Fatalf("ImportFile() failed: %v", err)
	}
	if name != "test_data" {
		t.Errorf("got table name %q, want test_data", name)
	}

	tables, err := s.ListTables(ctx)
	if err != nil {
		t.Fatalf("ListTables() failed: %v", err)
	}
	found := false
	for _, tbl := range tables {
		if tbl == "test_data" {
			found = true
		}
	}
	if !found {
		t.Errorf("imported table missing from ListTables: %v", tables)
	}

	info, err := s.TableInfo(ctx, "test_data")
	if err != nil {
		t.Fatalf("TableInfo() failed: %v", err)
	}
	if info.RowCount != 5 {
		t.Errorf("row count = %d, want 5", info.RowCount)
	}
	if info.NumColumns != 4 {
		t.Errorf("column count = %d, want 4", info.NumColumns)
	}
}

func TestImportFile_SanitizesName(t *testing.T) {
	ctx := context.Background()
	s := openScratch(t)

	name, err := s.ImportFile(ctx, writeTestCSV(t), "my data-set!")
	if err != nil {
		t.Fatalf("ImportFile() failed: %v", err)
	}
	if name != "my_data_set_" {
		t.Errorf("sanitized name = %q, want my_data_set_", name)
	}
}

func TestImportFile_UnsupportedFormat(t *testing.T) {
	ctx := context.Background()
	s := openScratch(t)

	path := filepath.Join(t.TempDir(), "data.xlsx")
	if err := os.WriteFile(path, []byte("junk"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := s.ImportFile(ctx, path, "bad")
	if !dataset.IsCode(err, dataset.CodeUnsupportedFormat) {
		t.Errorf("got %v, want UNSUPPORTED_FORMAT", err)
	}
}

func TestImportFile_FileNotFound(t *testing.T) {
	ctx := context.Background()
	s := openScratch(t)

	_, err := s.ImportFile(ctx, filepath.Join(t.TempDir(), "missing.csv"), "bad")
	if !dataset.IsCode(err, dataset.CodeFileNotFound) {
		t.Errorf("got %v, want FILE_NOT_FOUND", err)
	}
}

func TestQueryToIPC(t *testing.T) {
	ctx := context.Background()
	s := openScratch(t)
	if _, err := s.ImportFile(ctx, writeTestCSV(t), "test_data"); err != nil {
		t.Fatal(err)
	}

	b, err := s.QueryToIPC(ctx, "SELECT * FROM test_data WHERE age > 28")
	if err != nil {
		t.Fatalf("QueryToIPC() failed: %v", err)
	}
	if len(b) == 0 {
		t.Fatal("empty ipc payload")
	}

	n, err := wire.RowCount(b)
	if err != nil {
		t.Fatalf("decode ipc: %v", err)
	}
	if n != 3 {
		t.Errorf("rows = %d, want 3", n)
	}
}

func TestTableChunkIPC_Pagination(t *testing.T) {
	ctx := context.Background()
	s := openScratch(t)
	if _, err := s.ImportFile(ctx, writeTestCSV(t), "test_data"); err != nil {
		t.Fatal(err)
	}

	var total int64
	for _, off := range []uint64{0, 2, 4} {
		b, err := s.TableChunkIPC(ctx, "test_data", off, 2)
		if err != nil {
			t.Fatalf("TableChunkIPC(%d) failed: %v", off, err)
		}
		n, err := wire.RowCount(b)
		if err != nil {
			t.Fatal(err)
		}
		total += n
	}
	if total != 5 {
		t.Errorf("chunks cover %d rows, want 5", total)
	}
}

func TestExecuteSQLToTable(t *testing.T) {
	ctx := context.Background()
	s := openScratch(t)
	if _, err := s.ImportFile(ctx, writeTestCSV(t), "people"); err != nil {
		t.Fatal(err)
	}

	name, err := s.ExecuteSQLToTable(ctx, "SELECT name, score FROM people WHERE age > 28", "high_age")
	if err != nil {
		t.Fatalf("ExecuteSQLToTable() failed: %v", err)
	}
	if name != "high_age" {
		t.Errorf("result table = %q, want high_age", name)
	}

	info, err := s.TableInfo(ctx, "high_age")
	if err != nil {
		t.Fatal(err)
	}
	if info.NumColumns != 2 {
		t.Errorf("column count = %d, want 2", info.NumColumns)
	}
	if info.RowCount == 0 {
		t.Error("result table is empty")
	}
}

func TestDropTable(t *testing.T) {
	ctx := context.Background()
	s := openScratch(t)
	if _, err := s.ImportFile(ctx, writeTestCSV(t), "to_drop"); err != nil {
		t.Fatal(err)
	}

	if err := s.DropTable(ctx, "to_drop"); err != nil {
		t.Fatalf("DropTable() failed: %v", err)
	}

	ok, err := s.HasTable(ctx, "to_drop")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("table still present after drop")
	}

	// Dropping a missing table is not an error.
	if err := s.DropTable(ctx, "to_drop"); err != nil {
		t.Errorf("second DropTable() failed: %v", err)
	}
}

func TestEstimatedSizeBytes(t *testing.T) {
	ctx := context.Background()
	s := openScratch(t)
	if _, err := s.ImportFile(ctx, writeTestCSV(t), "sized"); err != nil {
		t.Fatal(err)
	}

	size, err := s.EstimatedSizeBytes(ctx, "sized")
	if err != nil {
		t.Fatalf("EstimatedSizeBytes() failed: %v", err)
	}
	// 5 rows of (VARCHAR 64 + BIGINT 8 + VARCHAR 64 + DOUBLE 8).
	if size != 5*(64+8+64+8) {
		t.Errorf("estimated size = %d, want %d", size, 5*(64+8+64+8))
	}
}

func TestExportCSV(t *testing.T) {
	ctx := context.Background()
	s := openScratch(t)
	if _, err := s.ImportFile(ctx, writeTestCSV(t), "export_test"); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "out.csv")
	if err := s.ExportCSV(ctx, "export_test", out); err != nil {
		t.Fatalf("ExportCSV() failed: %v", err)
	}

	content, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "Alice") {
		t.Error("exported csv missing data")
	}
}

func TestPersistence_AcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "project.duckdb")
	csvPath := writeTestCSV(t)

	s1, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, err := s1.ImportFile(ctx, csvPath, "persistent_data"); err != nil {
		t.Fatal(err)
	}
	s1.Close()

	s2, err := Open(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close()

	count, err := s2.TableRowCount(ctx, "persistent_data")
	if err != nil {
		t.Fatal(err)
	}
	if count != 5 {
		t.Errorf("row count after reopen = %d, want 5", count)
	}

	b, err := s2.TablePreviewIPC(ctx, "persistent_data", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(b) == 0 {
		t.Error("empty preview payload")
	}
}
