// SPDX-License-Identifier: MPL-2.0

package bottle

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/siliconalloy/alloy/internal/issue"
	"github.com/siliconalloy/alloy/internal/runtime"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const (
	// MetadataFile is the record file inside each bottle directory.
	MetadataFile = "bottle.json"
	// PrefixDir is the wine prefix inside each bottle directory.
	PrefixDir = "prefix"
)

type (
	// Store persists bottle records under root/<id>/{bottle.json,prefix/}.
	// It is safe for concurrent use; callers that read, modify and write one
	// record hold Lock(id) around the sequence.
	Store struct {
		root   string
		logger *log.Logger
		now    func() time.Time
		newID  func() uuid.UUID
		locks  Locks
	}

	// Option configures a Store.
	Option func(*Store)
)

// WithLogger sets the logger used for skipped entries and lifecycle events.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock replaces time.Now for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDSource replaces uuid.New for new identifiers.
func WithIDSource(newID func() uuid.UUID) Option {
	return func(s *Store) { s.newID = newID }
}

// NewStore returns a store rooted at root, creating the directory.
func NewStore(root string, opts ...Option) (*Store, error) {
	s := &Store{
		root:   root,
		logger: log.New(io.Discard),
		now:    time.Now,
		newID:  uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, issue.IO("create bottle root", err)
	}
	return s, nil
}

// Root is the directory holding every bottle.
func (s *Store) Root() string { return s.root }

// Dir is the directory of bottle id. No I/O is performed.
func (s *Store) Dir(id uuid.UUID) string { return filepath.Join(s.root, id.String()) }

// Prefix is the wine prefix of bottle id. No I/O is performed and the path
// may not exist.
func (s *Store) Prefix(id uuid.UUID) string { return filepath.Join(s.Dir(id), PrefixDir) }

// Lock serializes mutations of one bottle; see Locks.
func (s *Store) Lock(id uuid.UUID) (unlock func()) { return s.locks.Lock(id) }

// Create slugs name, allocates a fresh identifier and writes the bottle
// directory, prefix and metadata. Nothing is left on disk when it fails.
func (s *Store) Create(name string, rt runtime.WineRuntime) (Record, error) {
	slug, err := ParseName(name)
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		ID:          s.newID(),
		Name:        slug,
		CreatedAt:   uint64(max(s.now().Unix(), 0)),
		WineRuntime: rt,
		Environment: nil,
	}

	dir := s.Dir(rec.ID)
	// Mkdir rather than MkdirAll: an existing directory means a reused id.
	if err := os.Mkdir(dir, 0o755); err != nil {
		return Record{}, issue.IO("create bottle directory", err)
	}
	if err := s.populate(dir, rec); err != nil {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			s.logger.Warn("failed to clean up bottle directory", "path", dir, "error", rmErr)
		}
		return Record{}, err
	}

	s.logger.Info("created bottle", "bottle", rec.ID, "name", rec.Name, "runtime", rec.WineRuntime.Label)
	return rec, nil
}

func (s *Store) populate(dir string, rec Record) error {
	if err := os.Mkdir(filepath.Join(dir, PrefixDir), 0o755); err != nil {
		return issue.IO("create wine prefix directory", err)
	}
	return writeRecord(dir, rec)
}

// List returns every readable record sorted by name (then id). Directories
// with a missing or unparsable bottle.json are logged and skipped.
func (s *Store) List() ([]Record, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Record{}, nil
		}
		return nil, issue.IO("read bottle root", err)
	}

	records := make([]Record, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(s.root, entry.Name())
		rec, err := readRecord(dir)
		if err != nil {
			s.logger.Warn("ignored bottle directory", "path", dir, "error", err)
			continue
		}
		if rec.ID.String() != entry.Name() {
			s.logger.Warn("ignored bottle directory", "path", dir, "error", fmt.Sprintf("metadata id %s does not match directory", rec.ID))
			continue
		}
		records = append(records, rec)
	}

	slices.SortFunc(records, func(a, b Record) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID.String(), b.ID.String()))
	})
	return records, nil
}

// Record loads bottle id, failing with issue.ErrNotFound when it has no metadata.
func (s *Store) Record(id uuid.UUID) (Record, error) {
	rec, err := readRecord(s.Dir(id))
	if errors.Is(err, fs.ErrNotExist) {
		return Record{}, issue.NotFound("bottle", id)
	}
	return rec, err
}

// Update replaces the metadata of an existing bottle. It never creates a
// bottle: a missing directory is issue.ErrNotFound.
func (s *Store) Update(id uuid.UUID, rec Record) error {
	if rec.ID != id {
		return issue.InvalidInput("record id %s does not match bottle %s", rec.ID, id)
	}
	dir := s.Dir(id)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return issue.NotFound("bottle", id)
	}
	return writeRecord(dir, rec)
}

// Remove deletes the bottle directory, prefix contents included.
func (s *Store) Remove(id uuid.UUID) error {
	dir := s.Dir(id)
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return issue.NotFound("bottle", id)
		}
		return issue.IO("stat bottle "+id.String(), err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return issue.IO("remove bottle "+id.String(), err)
	}
	s.logger.Info("deleted bottle", "bottle", id)
	return nil
}

func readRecord(dir string) (Record, error) {
	data, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Record{}, err
		}
		return Record{}, issue.IO("read bottle metadata", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, issue.IO("parse "+filepath.Join(dir, MetadataFile), err)
	}
	return rec, nil
}

// writeRecord replaces bottle.json through a temporary file and rename so
// readers never observe a partial document.
func writeRecord(dir string, rec Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return issue.IO("encode bottle metadata", err)
	}

	tmp, err := os.CreateTemp(dir, "."+MetadataFile+".*")
	if err != nil {
		return issue.IO("write bottle metadata", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return issue.IO("write bottle metadata", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return issue.IO("write bottle metadata", err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, MetadataFile)); err != nil {
		_ = os.Remove(tmpName)
		return issue.IO("write bottle metadata", err)
	}
	return nil
}
