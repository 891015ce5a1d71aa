package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	return path
}

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		file string
		want Format
	}{
		{"data.csv", FormatCSV},
		{"data.CSV", FormatCSV},
		{"data.tsv", FormatTSV},
		{"data.parquet", FormatParquet},
		{"data.pq", FormatParquet},
		{"data.ipc", FormatIPC},
		{"data.arrow", FormatIPC},
		{"data.feather", FormatIPC},
	}
	for _, tc := range cases {
		t.Run(tc.file, func(t *testing.T) {
			got, err := DetectFormat(touch(t, tc.file))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDetectFormat_Unsupported(t *testing.T) {
	_, err := DetectFormat(touch(t, "data.xlsx"))
	assert.True(t, IsCode(err, CodeUnsupportedFormat))
}

func TestDetectFormat_MissingFile(t *testing.T) {
	_, err := DetectFormat(filepath.Join(t.TempDir(), "nope.csv"))
	assert.True(t, IsCode(err, CodeFileNotFound))
}

func TestStem(t *testing.T) {
	assert.Equal(t, "sales", Stem("/data/sales.csv"))
	assert.Equal(t, "sales.2024", Stem("sales.2024.parquet"))
	assert.Equal(t, "dataset", Stem(".csv"))
}

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("disk gone")
	err := Wrap(CodeStore, cause)

	assert.True(t, IsCode(err, CodeStore))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk gone")

	assert.Nil(t, Wrap(CodeStore, nil))
}

func TestCodeOf_Chain(t *testing.T) {
	inner := Errf(CodeDatasetNotFound, "dataset not found: x")
	outer := fmt.Errorf("while previewing: %w", inner)

	assert.Equal(t, CodeDatasetNotFound, CodeOf(outer))
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("untyped")))
}
