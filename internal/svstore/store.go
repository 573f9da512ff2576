// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package svstore

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"modernc.org/kv"

	"github.com/czakarian/svpop/internal/variant"
)

// Store is an ordered, disk-backed row store keyed by CanonicalKey,
// holding either a loaded per-sample table or the running merged
// table. Because iteration is always key-ordered, the accumulator's
// re-sort after each fold is a no-op.
type Store struct {
	db   *kv.DB
	path string

	// index maps a row's ID to its canonical key bytes, giving O(1)
	// by-ID access without a second on-disk index. By-ID access is
	// only meaningful for per-sample tables, where the loader enforces
	// ID uniqueness; the running merged table, which can legitimately
	// hold one lead and one support row under the same Record.ID, is
	// only ever iterated.
	index map[string][]byte

	pending int
	inTx    bool
	keep    bool
}

const batchSize = 500

// Open creates a fresh Store backed by a temporary file under dir.
func Open(dir, prefix string) (*Store, error) {
	f, err := os.CreateTemp(dir, prefix+"-*.kv")
	if err != nil {
		return nil, fmt.Errorf("svstore: create temp file: %w", err)
	}
	path := f.Name()
	f.Close()
	os.Remove(path)

	db, err := kv.Create(path, &kv.Options{Compare: CompareCanonical})
	if err != nil {
		return nil, fmt.Errorf("svstore: create %s: %w", path, err)
	}
	return &Store{db: db, path: path, index: make(map[string][]byte)}, nil
}

// Close releases the underlying kv.DB, removing its backing file
// unless Keep was called.
func (s *Store) Close() error {
	if s.inTx {
		if err := s.db.Commit(); err != nil {
			s.db.Close()
			if !s.keep {
				os.Remove(s.path)
			}
			return err
		}
	}
	err := s.db.Close()
	if !s.keep {
		os.Remove(s.path)
	}
	return err
}

// Len reports the number of rows currently indexed.
func (s *Store) Len() int { return len(s.index) }

func (s *Store) beginIfNeeded() error {
	if s.inTx {
		return nil
	}
	if err := s.db.BeginTransaction(); err != nil {
		return err
	}
	s.inTx = true
	return nil
}

func (s *Store) maybeFlush() error {
	s.pending++
	if s.pending < batchSize {
		return nil
	}
	return s.Flush()
}

// Flush commits any pending transaction, making prior Put/Delete calls
// visible to Iterate/Get. Callers that want every write committed
// immediately (small tables) may call Flush after each write; large
// tables should rely on the internal batching and a final Flush.
func (s *Store) Flush() error {
	if !s.inTx {
		return nil
	}
	err := s.db.Commit()
	s.inTx = false
	s.pending = 0
	return err
}

// rowValue is the JSON-encoded value stored alongside CanonicalKey;
// the sort key stays minimal and the full record rides in the value
// for round-tripping and for svaudit's dump.
type rowValue struct {
	Record  variant.Record
	Support variant.Support
}

// Put inserts m under its CanonicalKey, overwriting only a row with
// the same key, and points the by-ID index for m.ID at it.
func (s *Store) Put(m variant.Merged) error {
	if err := s.beginIfNeeded(); err != nil {
		return err
	}
	key := CanonicalKey(m)
	val, err := json.Marshal(rowValue{Record: m.Record, Support: m.Support})
	if err != nil {
		return fmt.Errorf("svstore: marshal %s: %w", m.ID, err)
	}
	if err := s.db.Set(key, val); err != nil {
		return fmt.Errorf("svstore: set %s: %w", m.ID, err)
	}
	s.index[m.ID] = key
	return s.maybeFlush()
}

// Delete removes the row with the given ID, if present.
func (s *Store) Delete(id string) error {
	key, ok := s.index[id]
	if !ok {
		return nil
	}
	if err := s.beginIfNeeded(); err != nil {
		return err
	}
	if err := s.db.Delete(key); err != nil {
		return fmt.Errorf("svstore: delete %s: %w", id, err)
	}
	delete(s.index, id)
	return s.maybeFlush()
}

// Get looks up a row by ID.
func (s *Store) Get(id string) (variant.Merged, bool, error) {
	key, ok := s.index[id]
	if !ok {
		return variant.Merged{}, false, nil
	}
	if err := s.Flush(); err != nil {
		return variant.Merged{}, false, err
	}
	raw, err := s.db.Get(nil, key)
	if err != nil {
		return variant.Merged{}, false, fmt.Errorf("svstore: get %s: %w", id, err)
	}
	if raw == nil {
		return variant.Merged{}, false, nil
	}
	var rv rowValue
	if err := json.Unmarshal(raw, &rv); err != nil {
		return variant.Merged{}, false, fmt.Errorf("svstore: unmarshal %s: %w", id, err)
	}
	return variant.Merged{Record: rv.Record, Support: rv.Support}, true, nil
}

// Has reports whether id is currently indexed.
func (s *Store) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// IDs returns every indexed ID, in no particular order.
func (s *Store) IDs() []string {
	ids := make([]string, 0, len(s.index))
	for id := range s.index {
		ids = append(ids, id)
	}
	return ids
}

// Iterate walks every row in canonical-key order, calling fn on each.
// Iterate stops and returns fn's error as soon as fn returns a
// non-nil error.
func (s *Store) Iterate(fn func(variant.Merged) error) error {
	if err := s.Flush(); err != nil {
		return err
	}
	it, err := s.db.SeekFirst()
	if err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("svstore: seek first: %w", err)
	}
	for {
		_, v, err := it.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("svstore: iterate: %w", err)
		}
		var rv rowValue
		if err := json.Unmarshal(v, &rv); err != nil {
			return fmt.Errorf("svstore: unmarshal row: %w", err)
		}
		if err := fn(variant.Merged{Record: rv.Record, Support: rv.Support}); err != nil {
			return err
		}
	}
}

// All materializes every row in canonical-key order.
func (s *Store) All() ([]variant.Merged, error) {
	var out []variant.Merged
	err := s.Iterate(func(m variant.Merged) error {
		out = append(out, m)
		return nil
	})
	return out, err
}

// Path reports the backing file's path, used by svmerge's -work flag
// to keep the store around for svaudit after the run completes.
func (s *Store) Path() string { return s.path }

// Keep disables the automatic removal of the backing file on Close,
// for -work mode.
func (s *Store) Keep() { s.keep = true }
