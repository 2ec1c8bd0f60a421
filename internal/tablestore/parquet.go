package tablestore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/qlearning"
)

const (
	schemaVersion = "qtable_v1"

	metaSchema  = "schema"
	metaEncoder = "encoder"
	metaEpisode = "episode"
	metaRunID   = "run_id"
	metaSavedAt = "saved_at"
)

// ParquetStore writes one (state_key, action, value) row per table entry.
// Snapshot fields other than the entries travel as key/value metadata.
type ParquetStore struct {
	path string
}

func NewParquetStore(path string) *ParquetStore {
	return &ParquetStore{path: path}
}

func (s *ParquetStore) Path() string { return s.path }

func (s *ParquetStore) Save(snap Snapshot) error {
	return writeAtomic(s.path, func(tmpPath string) error {
		return parquet.WriteFile(tmpPath, snap.Entries,
			parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
			parquet.KeyValueMetadata(metaSchema, schemaVersion),
			parquet.KeyValueMetadata(metaEncoder, snap.Encoder),
			parquet.KeyValueMetadata(metaEpisode, strconv.Itoa(snap.Episode)),
			parquet.KeyValueMetadata(metaRunID, snap.RunID),
			parquet.KeyValueMetadata(metaSavedAt, snap.SavedAt.Format(time.RFC3339Nano)),
		)
	})
}

func (s *ParquetStore) Load() (Snapshot, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return Snapshot{}, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return Snapshot{}, err
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return Snapshot{}, fmt.Errorf("open parquet %s: %w", s.path, err)
	}

	if schema, ok := pf.Lookup(metaSchema); ok && schema != schemaVersion {
		return Snapshot{}, fmt.Errorf("unsupported snapshot schema %q in %s", schema, s.path)
	}

	snap := Snapshot{}
	snap.Encoder, _ = pf.Lookup(metaEncoder)
	snap.RunID, _ = pf.Lookup(metaRunID)
	if v, ok := pf.Lookup(metaEpisode); ok {
		if snap.Episode, err = strconv.Atoi(v); err != nil {
			return Snapshot{}, fmt.Errorf("bad episode metadata %q: %w", v, err)
		}
	}
	if v, ok := pf.Lookup(metaSavedAt); ok {
		if snap.SavedAt, err = time.Parse(time.RFC3339Nano, v); err != nil {
			return Snapshot{}, fmt.Errorf("bad saved_at metadata %q: %w", v, err)
		}
	}

	reader := parquet.NewGenericReader[qlearning.Entry](pf)
	defer reader.Close()

	snap.Entries = make([]qlearning.Entry, 0, int(reader.NumRows()))
	buf := make([]qlearning.Entry, 256)
	for {
		n, err := reader.Read(buf)
		snap.Entries = append(snap.Entries, buf[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Snapshot{}, fmt.Errorf("read parquet %s: %w", s.path, err)
		}
	}
	return snap, nil
}
