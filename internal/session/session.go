// Package session is the engine façade. It presents one dataset-name
// namespace over two substrates (persistent DuckDB tables and transient
// lazy frames) and guarantees every read path terminates in Arrow IPC
// stream bytes regardless of which substrate answered.
//
// The session is one logical unit of mutable state shared across concurrent
// callers: every operation holds the session lock for its duration. There
// is no per-dataset locking; operations run to completion or failure
// atomically from the caller's point of view.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/quarrydata/quarry/internal/dataset"
	"github.com/quarrydata/quarry/internal/lazy"
	"github.com/quarrydata/quarry/internal/store"
)

// Session manages all dataset operations. Create with New or NewScratch.
type Session struct {
	mu sync.Mutex

	id string

	// storage is nil until a project is created or opened.
	storage   *store.Store
	transient map[string]*lazy.Frame

	// counter feeds every name-generation site. Monotonic, never reused
	// within a session lifetime, atomic independent of the session lock.
	counter atomic.Uint64

	log *slog.Logger
}

// New creates a session with no active project. Persistent operations fail
// with NO_PROJECT_OPEN until NewProject or OpenProject is called; ScanFile
// works immediately.
func New() *Session {
	id := uuid.NewString()
	return &Session{
		id:        id,
		transient: make(map[string]*lazy.Frame),
		log:       slog.Default().With("session_id", id),
	}
}

// NewScratch creates a session over an in-memory store, for throwaway
// analysis without a project file.
func NewScratch() (*Session, error) {
	s := New()
	st, err := store.OpenInMemory()
	if err != nil {
		return nil, err
	}
	s.storage = st
	return s, nil
}

// Close releases the active store, if any.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.storage == nil {
		return nil
	}
	err := s.storage.Close()
	s.storage = nil
	return err
}

// NewProject creates (or reopens) a project file and makes it the active
// store. Transient datasets are scoped to the previous store and cleared.
func (s *Session) NewProject(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.switchStore(path)
}

// OpenProject opens an existing project file and returns the table names
// that become immediately available. Transient datasets are invalidated.
func (s *Session) OpenProject(ctx context.Context, path string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.switchStore(path); err != nil {
		return nil, err
	}
	tables, err := s.storage.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	s.log.Info("project opened", "path", path, "table_count", len(tables))
	return tables, nil
}

func (s *Session) switchStore(path string) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	if s.storage != nil {
		s.storage.Close()
	}
	s.storage = st
	s.transient = make(map[string]*lazy.Frame)
	return nil
}

// ProjectPath returns the active project file path, or "" when no project
// is open.
func (s *Session) ProjectPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.storage == nil {
		return ""
	}
	return s.storage.Path()
}

func (s *Session) requireStore() (*store.Store, error) {
	if s.storage == nil {
		return nil, dataset.Errf(dataset.CodeNoProjectOpen, "no project open")
	}
	return s.storage, nil
}

func (s *Session) nextCounter() uint64 {
	return s.counter.Add(1)
}

func (s *Session) generateName(filePath string) string {
	return fmt.Sprintf("%s_%d", dataset.Stem(filePath), s.nextCounter())
}

// substrate tags the result of a name lookup so the fixed precedence
// (persistent wins) stays visible at the one call site every operation
// shares.
type substrate int

const (
	substrateNone substrate = iota
	substratePersistent
	substrateTransient
)

// resolve looks a dataset name up in the persistent store first, then the
// transient table. Callers must hold the session lock.
func (s *Session) resolve(ctx context.Context, name string) (substrate, error) {
	if s.storage != nil {
		ok, err := s.storage.HasTable(ctx, name)
		if err != nil {
			return substrateNone, err
		}
		if ok {
			return substratePersistent, nil
		}
	}
	if _, ok := s.transient[name]; ok {
		return substrateTransient, nil
	}
	return substrateNone, dataset.Errf(dataset.CodeDatasetNotFound, "dataset not found: %s", name)
}

// ImportFile loads a file into the active store as a persistent table.
// With an empty name, one is derived from the file stem plus the counter,
// which is unique without consulting existing names. Returns the name
// actually used.
func (s *Session) ImportFile(ctx context.Context, filePath, tableName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.requireStore()
	if err != nil {
		return "", err
	}
	if tableName == "" {
		tableName = s.generateName(filePath)
	}
	s.log.Info("importing file", "path", filePath, "table", tableName)
	return st.ImportFile(ctx, filePath, tableName)
}

// ScanFile registers a lazy frame over a file without touching the
// persistent store. Format detection and failure modes match ImportFile.
func (s *Session) ScanFile(filePath string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frame, err := lazy.Scan(filePath)
	if err != nil {
		return "", err
	}
	name := s.generateName(filePath)
	s.transient[name] = frame
	return name, nil
}

// RegisterFrame registers an existing lazy frame under a name.
func (s *Session) RegisterFrame(name string, frame *lazy.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transient[name] = frame
}

// ListDatasets returns the union of persistent table names and transient
// keys, sorted and deduplicated.
func (s *Session) ListDatasets(ctx context.Context) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.transient))
	for name := range s.transient {
		names = append(names, name)
	}
	if s.storage != nil {
		if tables, err := s.storage.ListTables(ctx); err == nil {
			names = append(names, tables...)
		}
	}
	sort.Strings(names)
	return dedup(names)
}

func dedup(sorted []string) []string {
	out := sorted[:0]
	for i, name := range sorted {
		if i == 0 || name != sorted[i-1] {
			out = append(out, name)
		}
	}
	return out
}

// ListTables lists only the persistent tables.
func (s *Session) ListTables(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.requireStore()
	if err != nil {
		return nil, err
	}
	return st.ListTables(ctx)
}

// DatasetInfo returns metadata for a dataset. The persistent path carries
// an exact row count and a size estimate; the transient path computes the
// schema without forcing full evaluation and leaves the row count unknown.
func (s *Session) DatasetInfo(ctx context.Context, name string) (dataset.Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, err := s.resolve(ctx, name)
	if err != nil {
		return dataset.Info{}, err
	}

	switch sub {
	case substratePersistent:
		info, err := s.storage.TableInfo(ctx, name)
		if err != nil {
			return dataset.Info{}, err
		}
		if size, err := s.storage.EstimatedSizeBytes(ctx, name); err == nil {
			info.EstimatedBytes = size
		}
		return info, nil

	default:
		frame := s.transient[name]
		schema, err := frame.Schema(ctx)
		if err != nil {
			return dataset.Info{}, err
		}
		info := dataset.Info{
			Name:       name,
			NumColumns: schema.NumFields(),
			Persistent: false,
		}
		for _, f := range schema.Fields() {
			info.ColumnNames = append(info.ColumnNames, f.Name)
			info.ColumnTypes = append(info.ColumnTypes, f.Type.String())
		}
		return info, nil
	}
}

// RemoveDataset drops the persistent table if present, else removes the
// transient entry. Reports whether anything was removed; a name in neither
// substrate is not an error.
func (s *Session) RemoveDataset(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.storage != nil {
		ok, err := s.storage.HasTable(ctx, name)
		if err != nil {
			return false, err
		}
		if ok {
			if err := s.storage.DropTable(ctx, name); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	if _, ok := s.transient[name]; ok {
		delete(s.transient, name)
		return true, nil
	}
	return false, nil
}
