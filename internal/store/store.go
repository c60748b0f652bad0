// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/seekmark/seekmark/internal/clock"
	xlog "github.com/seekmark/seekmark/internal/log"
	"github.com/seekmark/seekmark/internal/metrics"
)

// Store applies the persistence policy on top of a Backend: structural
// validation, SavedAt stamping and capacity-bounded eviction. Storage
// failures are logged and degraded to failed operations; they never
// propagate as errors to callers.
//
// All mutating calls are serialized by a mutex so the capacity check,
// eviction and insert behave as one atomic step even when the backend
// performs I/O between them.
type Store struct {
	mu       sync.Mutex
	backend  Backend
	clk      clock.Clock
	capacity func() int
	logger   zerolog.Logger
}

// New creates a Store. capacity is read on every save so the limit can be
// hot-reloaded.
func New(backend Backend, capacity func() int, clk clock.Clock) *Store {
	return &Store{
		backend:  backend,
		clk:      clk,
		capacity: capacity,
		logger:   xlog.WithComponent("store"),
	}
}

// Save validates and persists rec, stamping SavedAt. Invalid records are
// rejected without side effects. When the insert would exceed capacity,
// the oldest-SavedAt records are evicted first. Returns true only after a
// successful write.
//
// Pause and throttle gating are the caller's concern; Save only enforces
// structural validity and capacity.
func (s *Store) Save(ctx context.Context, rec Record) bool {
	if err := rec.Validate(); err != nil {
		s.logger.Debug().
			Err(err).
			Str(xlog.FieldEvent, "store.save_rejected").
			Str(xlog.FieldVideoID, rec.VideoID).
			Msg("rejected invalid record")
		metrics.IncSave("invalid")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec.SavedAt = s.clk.Now().UnixMilli()

	existing, err := s.backend.Get(ctx, rec.VideoID)
	if err != nil {
		s.warn(err, "store.save_failed", rec.VideoID)
		metrics.IncSave("error")
		return false
	}

	// Overwrites never exceed capacity, only fresh inserts do.
	if existing == nil {
		if !s.evictToFitLocked(ctx) {
			metrics.IncSave("error")
			return false
		}
	}

	if err := s.backend.Put(ctx, rec); err != nil {
		s.warn(err, "store.save_failed", rec.VideoID)
		metrics.IncSave("error")
		return false
	}

	s.logger.Debug().
		Str(xlog.FieldEvent, "store.saved").
		Str(xlog.FieldVideoID, rec.VideoID).
		Float64(xlog.FieldPosition, rec.Time).
		Msg("saved playback position")
	metrics.IncSave("saved")
	return true
}

// evictToFitLocked makes room for one insert. Re-checked here, directly
// before the write, so a capacity observed earlier cannot go stale.
func (s *Store) evictToFitLocked(ctx context.Context) bool {
	max := s.capacity()
	if max < 1 {
		max = 1
	}

	count, err := s.backend.Count(ctx)
	if err != nil {
		s.warn(err, "store.count_failed", "")
		return false
	}
	if count < max {
		return true
	}

	records, err := s.backend.List(ctx)
	if err != nil {
		s.warn(err, "store.list_failed", "")
		return false
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].SavedAt < records[j].SavedAt
	})

	// Evict until one slot is free: count becomes max-1, then we insert.
	toEvict := count - (max - 1)
	if toEvict > len(records) {
		toEvict = len(records)
	}
	for _, victim := range records[:toEvict] {
		if _, err := s.backend.Delete(ctx, victim.VideoID); err != nil {
			s.warn(err, "store.evict_failed", victim.VideoID)
			return false
		}
	}
	if toEvict > 0 {
		s.logger.Info().
			Str(xlog.FieldEvent, "store.evicted").
			Int(xlog.FieldEvicted, toEvict).
			Int(xlog.FieldRecords, count-toEvict).
			Msg("evicted oldest records to stay within capacity")
		metrics.AddEvictions(toEvict)
	}
	return true
}

// Load returns the raw stored record for videoID, or nil when absent or
// when the backend fails. Load applies no reconciliation; that is the
// resolver's job.
func (s *Store) Load(ctx context.Context, videoID string) *Record {
	if videoID == "" {
		return nil
	}
	rec, err := s.backend.Get(ctx, videoID)
	if err != nil {
		s.warn(err, "store.load_failed", videoID)
		return nil
	}
	return rec
}

// Delete removes the record for videoID. Returns false when absent or on
// backend failure.
func (s *Store) Delete(ctx context.Context, videoID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok, err := s.backend.Delete(ctx, videoID)
	if err != nil {
		s.warn(err, "store.delete_failed", videoID)
		return false
	}
	return ok
}

// Clear removes every record.
func (s *Store) Clear(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Clear(ctx); err != nil {
		s.warn(err, "store.clear_failed", "")
		return false
	}
	return true
}

// List returns all records, newest first.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	records, err := s.backend.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].SavedAt > records[j].SavedAt
	})
	return records, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	return s.backend.Count(ctx)
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) warn(err error, event, videoID string) {
	evt := s.logger.Warn().Err(err).Str(xlog.FieldEvent, event)
	if videoID != "" {
		evt = evt.Str(xlog.FieldVideoID, videoID)
	}
	evt.Msg("storage operation failed")
}
