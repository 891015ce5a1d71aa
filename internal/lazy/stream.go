package lazy

import (
	"context"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/quarrydata/quarry/internal/dataset"
)

// scanBatchSize is the row chunk size used by the file readers.
const scanBatchSize = 8192

// recordStream yields the batches of a scanned file. Records are valid only
// until the next call to Next unless retained.
type recordStream interface {
	Schema() *arrow.Schema
	Next() bool
	Record() arrow.Record
	Err() error
	Release()
}

func openStream(ctx context.Context, path string, format dataset.Format) (recordStream, error) {
	switch format {
	case dataset.FormatCSV:
		return openCSV(path, ',')
	case dataset.FormatTSV:
		return openCSV(path, '\t')
	case dataset.FormatParquet:
		return openParquet(ctx, path)
	case dataset.FormatIPC:
		return openIPC(path)
	default:
		return nil, dataset.Errf(dataset.CodeUnsupportedFormat, "unsupported file format: %s", format)
	}
}

// csvStream wraps the inferring CSV reader. The schema is only known after
// the first batch has been read, so the stream primes one record up front.
type csvStream struct {
	f      *os.File
	r      *csv.Reader
	peeked arrow.Record
	served bool
	cur    arrow.Record
}

func openCSV(path string, comma rune) (*csvStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := csv.NewInferringReader(f,
		csv.WithAllocator(memory.DefaultAllocator),
		csv.WithHeader(true),
		csv.WithComma(comma),
		csv.WithChunk(scanBatchSize),
		csv.WithNullReader(true),
	)

	s := &csvStream{f: f, r: r}
	if r.Next() {
		rec := r.Record()
		rec.Retain()
		s.peeked = rec
	}
	return s, nil
}

func (s *csvStream) Schema() *arrow.Schema { return s.r.Schema() }

func (s *csvStream) Next() bool {
	if s.served && s.peeked != nil {
		s.peeked.Release()
		s.peeked = nil
	}
	if s.peeked != nil {
		s.cur = s.peeked
		s.served = true
		return true
	}
	if s.r.Next() {
		s.cur = s.r.Record()
		return true
	}
	s.cur = nil
	return false
}

func (s *csvStream) Record() arrow.Record { return s.cur }
func (s *csvStream) Err() error           { return s.r.Err() }

func (s *csvStream) Release() {
	if s.peeked != nil {
		s.peeked.Release()
		s.peeked = nil
	}
	s.r.Release()
	s.f.Close()
}

// parquetStream adapts the pqarrow record reader.
type parquetStream struct {
	pf *file.Reader
	rr pqarrow.RecordReader
}

func openParquet(ctx context.Context, path string) (*parquetStream, error) {
	pf, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, err
	}
	fr, err := pqarrow.NewFileReader(pf,
		pqarrow.ArrowReadProperties{BatchSize: scanBatchSize},
		memory.DefaultAllocator)
	if err != nil {
		pf.Close()
		return nil, err
	}
	rr, err := fr.GetRecordReader(ctx, nil, nil)
	if err != nil {
		pf.Close()
		return nil, err
	}
	return &parquetStream{pf: pf, rr: rr}, nil
}

func (s *parquetStream) Schema() *arrow.Schema { return s.rr.Schema() }
func (s *parquetStream) Next() bool            { return s.rr.Next() }
func (s *parquetStream) Record() arrow.Record  { return s.rr.Record() }
func (s *parquetStream) Err() error            { return s.rr.Err() }

func (s *parquetStream) Release() {
	s.rr.Release()
	s.pf.Close()
}

// ipcStream reads the Arrow IPC file format (.ipc/.arrow/.feather).
type ipcStream struct {
	f   *os.File
	fr  *ipc.FileReader
	cur arrow.Record
	err error
}

func openIPC(path string) (*ipcStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fr, err := ipc.NewFileReader(f, ipc.WithAllocator(memory.DefaultAllocator))
	if err != nil {
		f.Close()
		return nil, err
	}
	return &ipcStream{f: f, fr: fr}, nil
}

func (s *ipcStream) Schema() *arrow.Schema { return s.fr.Schema() }

func (s *ipcStream) Next() bool {
	if s.err != nil {
		return false
	}
	rec, err := s.fr.Read()
	if err == io.EOF {
		s.cur = nil
		return false
	}
	if err != nil {
		s.err = err
		return false
	}
	s.cur = rec
	return true
}

func (s *ipcStream) Record() arrow.Record { return s.cur }
func (s *ipcStream) Err() error           { return s.err }

func (s *ipcStream) Release() {
	s.fr.Close()
	s.f.Close()
}
