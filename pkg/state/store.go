// Package state persists the per-item delivery state as a single JSON
// file. Updates are buffered in memory and committed in one atomic
// write-new-then-replace step, so an interrupted run can never leave a
// mixture of old and new state on disk.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-pkgz/lgr"

	"gamenews/pkg/domain"
)

// Store is the durable map of previously delivered items, keyed by the
// composite "{platform}:{game}:{id}". A single writer mutates it at
// end-of-cycle only.
type Store struct {
	path    string
	records map[string]domain.StateRecord
	dryRun  bool
}

// NewStore creates a store backed by the given file path
func NewStore(path string, dryRun bool) *Store {
	return &Store{path: path, records: make(map[string]domain.StateRecord), dryRun: dryRun}
}

// Load reads the persisted mapping. A missing or unparsable file yields
// an empty store, forcing baseline mode upstream; corruption is never
// fatal because the next successful cycle rewrites the file whole.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			lgr.Printf("[INFO] state file %s not found, starting with empty state", s.path)
			return nil
		}
		lgr.Printf("[WARN] state file %s unreadable, starting with empty state: %v", s.path, err)
		return nil
	}

	records := make(map[string]domain.StateRecord)
	if err := json.Unmarshal(data, &records); err != nil {
		lgr.Printf("[WARN] state file %s corrupted, starting with empty state: %v", s.path, err)
		return nil
	}
	s.records = records
	return nil
}

// Get returns the record for a key, if present
func (s *Store) Get(key string) (domain.StateRecord, bool) {
	rec, ok := s.records[key]
	return rec, ok
}

// Put buffers a record update in memory until Save commits it
func (s *Store) Put(key string, rec domain.StateRecord) {
	s.records[key] = rec
}

// Len returns the number of tracked items
func (s *Store) Len() int {
	return len(s.records)
}

// Save commits all buffered updates in one atomic replace. This is the
// only cycle-fatal failure point: dedup correctness cannot be
// guaranteed without durable state.
func (s *Store) Save() error {
	if s.dryRun {
		lgr.Printf("[INFO] dry-run, would write state file %s with %d records", s.path, len(s.records))
		return nil
	}

	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
