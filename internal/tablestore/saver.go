package tablestore

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// SaverStats contains statistics about save operations
type SaverStats struct {
	Saved        int64
	Skipped      int64
	Failed       int64
	LastSaveTime time.Time
	LastEpisode  int
	LastError    string
}

// Saver writes snapshots in the background. At most one save is in flight;
// a request that arrives while one is running is dropped, since a newer
// snapshot will follow. Failures are logged and never returned to the
// training loop.
type Saver struct {
	store  Store
	logger zerolog.Logger

	inFlight atomic.Bool
	wg       sync.WaitGroup

	mu    sync.Mutex
	stats SaverStats
}

// NewSaver creates a background saver for store
func NewSaver(store Store, logger zerolog.Logger) *Saver {
	return &Saver{
		store:  store,
		logger: logger.With().Str("component", "table_saver").Str("path", store.Path()).Logger(),
	}
}

// SaveAsync starts saving snap and returns immediately. It reports whether
// the save was started.
func (s *Saver) SaveAsync(snap Snapshot) bool {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.mu.Lock()
		s.stats.Skipped++
		s.mu.Unlock()
		s.logger.Debug().Int("episode", snap.Episode).Msg("Save already in flight, skipping snapshot")
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.inFlight.Store(false)
		s.save(snap)
	}()
	return true
}

// Save writes snap synchronously, after any in-flight save has finished.
func (s *Saver) Save(snap Snapshot) error {
	s.wg.Wait()
	return s.save(snap)
}

func (s *Saver) save(snap Snapshot) error {
	start := time.Now()
	err := s.store.Save(snap)

	s.mu.Lock()
	if err != nil {
		s.stats.Failed++
		s.stats.LastError = err.Error()
	} else {
		s.stats.Saved++
		s.stats.LastSaveTime = time.Now()
		s.stats.LastEpisode = snap.Episode
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().Err(err).Int("episode", snap.Episode).Msg("Failed to save Q-table snapshot")
		return err
	}
	s.logger.Debug().
		Int("episode", snap.Episode).
		Int("entries", len(snap.Entries)).
		Dur("took", time.Since(start)).
		Msg("Saved Q-table snapshot")
	return nil
}

// Wait blocks until the in-flight save, if any, has finished.
func (s *Saver) Wait() {
	s.wg.Wait()
}

// Stats returns save statistics
func (s *Saver) Stats() SaverStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
