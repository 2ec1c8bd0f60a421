// Package tablestore persists Q-table snapshots so a trained table can be
// reused by the bot or to continue training.
package tablestore

import (
	"errors"
	"fmt"
	"time"

	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/qlearning"
)

var (
	// ErrPersistenceNotConfigured is returned when loading from a store that keeps nothing
	ErrPersistenceNotConfigured = errors.New("persistence layer not configured")
	// ErrInvalidPersistenceType is returned when an unknown persistence type is specified
	ErrInvalidPersistenceType = errors.New("invalid persistence type")
	// ErrEncoderMismatch is returned when a table was trained with a different state encoder
	ErrEncoderMismatch = errors.New("snapshot encoder mismatch")
)

// PersistenceType represents the type of persistence backend
type PersistenceType string

const (
	// PersistenceTypeNone disables persistence
	PersistenceTypeNone PersistenceType = "none"
	// PersistenceTypeJSON writes a single JSON document
	PersistenceTypeJSON PersistenceType = "json"
	// PersistenceTypeParquet writes zstd-compressed (state_key, action, value) rows
	PersistenceTypeParquet PersistenceType = "parquet"
)

// Snapshot is a point-in-time copy of a Q-table plus what is needed to use
// it again. A table is only meaningful with the encoder that produced its keys.
type Snapshot struct {
	RunID   string            `json:"run_id,omitempty"`
	Encoder string            `json:"encoder"`
	Episode int               `json:"episode"`
	SavedAt time.Time         `json:"saved_at"`
	Entries []qlearning.Entry `json:"entries"`
}

// NewSnapshot copies table into a snapshot.
func NewSnapshot(table *qlearning.Table, encoder, runID string, episode int) Snapshot {
	return Snapshot{
		RunID:   runID,
		Encoder: encoder,
		Episode: episode,
		SavedAt: time.Now().UTC(),
		Entries: table.Snapshot(),
	}
}

// Store defines the interface for persisting table snapshots
type Store interface {
	// Save replaces whatever the store held with snap
	Save(snap Snapshot) error

	// Load returns the last saved snapshot
	Load() (Snapshot, error)

	// Path describes where snapshots go, for logging
	Path() string
}

// NullStore keeps nothing.
type NullStore struct{}

func (NullStore) Save(Snapshot) error { return nil }

func (NullStore) Load() (Snapshot, error) { return Snapshot{}, ErrPersistenceNotConfigured }

func (NullStore) Path() string { return "" }

// NewStore creates a store based on configuration
func NewStore(kind PersistenceType, path string) (Store, error) {
	switch kind {
	case PersistenceTypeNone, "":
		return NullStore{}, nil
	case PersistenceTypeJSON:
		if path == "" {
			return nil, fmt.Errorf("%w: json store needs a path", ErrInvalidPersistenceType)
		}
		return NewJSONStore(path), nil
	case PersistenceTypeParquet:
		if path == "" {
			return nil, fmt.Errorf("%w: parquet store needs a path", ErrInvalidPersistenceType)
		}
		return NewParquetStore(path), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidPersistenceType, kind)
	}
}

// LoadTable loads the last snapshot from store and rebuilds the table. An
// empty encoder skips the encoder check.
func LoadTable(store Store, encoder string) (*qlearning.Table, Snapshot, error) {
	snap, err := store.Load()
	if err != nil {
		return nil, Snapshot{}, err
	}
	if encoder != "" && snap.Encoder != "" && snap.Encoder != encoder {
		return nil, snap, fmt.Errorf("%w: table uses %q, want %q", ErrEncoderMismatch, snap.Encoder, encoder)
	}
	table, err := qlearning.TableFromEntries(snap.Entries)
	if err != nil {
		return nil, snap, fmt.Errorf("rebuild table from %s: %w", store.Path(), err)
	}
	return table, snap, nil
}
