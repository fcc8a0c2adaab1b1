// SPDX-License-Identifier: MIT

// Package registry persists resolved configuration snapshots so a training
// run can be traced back to the exact configuration it was launched with.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/confplane/expconf/internal/metrics"
)

// ErrNotFound is returned when no snapshot exists for the requested key.
var ErrNotFound = errors.New("snapshot not found")

const (
	snapshotPrefix    = "snap:"
	fingerprintPrefix = "fp:"
)

// Snapshot is one stored resolved configuration.
type Snapshot struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Source      string    `json:"source,omitempty"`
	Fingerprint string    `json:"fingerprint"`
	Resolved    []byte    `json:"resolved"`
}

// Store is a Badger-backed snapshot store.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the store at the given directory.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Put stores a snapshot. A missing ID or CreatedAt is filled in. If a
// snapshot with the same fingerprint already exists, that one is returned
// instead of storing a duplicate.
func (s *Store) Put(snap *Snapshot) (*Snapshot, error) {
	if existing, err := s.FindByFingerprint(snap.Fingerprint); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}

	buf, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(snapshotPrefix+snap.ID), buf); err != nil {
			return err
		}
		return txn.Set([]byte(fingerprintPrefix+snap.Fingerprint), []byte(snap.ID))
	})
	if err != nil {
		return nil, fmt.Errorf("store snapshot: %w", err)
	}
	metrics.SnapshotsStoredTotal.Inc()
	return snap, nil
}

// Get returns the snapshot with the given ID.
func (s *Store) Get(id string) (*Snapshot, error) {
	var out Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(snapshotPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	return &out, nil
}

// FindByFingerprint returns the snapshot whose resolved content has the
// given fingerprint.
func (s *Store) FindByFingerprint(fp string) (*Snapshot, error) {
	var id string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(fingerprintPrefix + fp))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup fingerprint %s: %w", fp, err)
	}
	return s.Get(id)
}

// List returns all snapshots, newest first.
func (s *Store) List() ([]*Snapshot, error) {
	var out []*Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(snapshotPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var snap Snapshot
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &snap)
			}); err != nil {
				return err
			}
			out = append(out, &snap)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
