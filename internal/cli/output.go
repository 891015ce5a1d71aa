package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/quarrydata/quarry/internal/wire"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation failure (dataset not found, bad filter, etc.)
	ExitCommandError = 2 // Command error (invalid paths, project not found, etc.)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(map[string]interface{}{
			"status": "ok",
			"data":   data,
		})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Table renders Arrow IPC stream bytes as an aligned text table, or as a
// row-array JSON document when the format is json.
func (f *OutputFormatter) Table(ipcBytes []byte) error {
	schema, recs, err := wire.Decode(ipcBytes)
	if err != nil {
		return err
	}
	defer func() {
		for _, rec := range recs {
			rec.Release()
		}
	}()

	cols := make([]string, schema.NumFields())
	for i, field := range schema.Fields() {
		cols[i] = field.Name
	}

	if f.Format == "json" {
		var rows []map[string]string
		for _, rec := range recs {
			for i := 0; i < int(rec.NumRows()); i++ {
				row := make(map[string]string, len(cols))
				for j, name := range cols {
					row[name] = rec.Column(j).ValueStr(i)
				}
				rows = append(rows, row)
			}
		}
		return json.NewEncoder(f.Writer).Encode(map[string]interface{}{
			"status":  "ok",
			"columns": cols,
			"rows":    rows,
		})
	}

	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(cols, "\t"))
	for _, rec := range recs {
		for i := 0; i < int(rec.NumRows()); i++ {
			vals := make([]string, len(cols))
			for j := range cols {
				vals[j] = rec.Column(j).ValueStr(i)
			}
			fmt.Fprintln(tw, strings.Join(vals, "\t"))
		}
	}
	return tw.Flush()
}
