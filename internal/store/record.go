// SPDX-License-Identifier: MIT

// Package store persists per-video playback position records. A policy
// layer (Store) enforces validation and capacity-bounded eviction on top
// of pluggable Backend implementations.
package store

import (
	"errors"
	"fmt"
	"math"
)

// Record is one persisted playback position, keyed by video id.
type Record struct {
	VideoID string `json:"videoId"`
	// Time is the playback position in seconds.
	Time float64 `json:"time"`
	// SavedAt is the wall-clock write time in milliseconds since epoch.
	// Eviction removes the oldest SavedAt first.
	SavedAt int64 `json:"savedAt"`
	// Title is best-effort display text, never authoritative.
	Title string `json:"title,omitempty"`
	// Duration is the video length in seconds at save time, 0 if unknown.
	Duration float64 `json:"duration"`
}

// ErrInvalidRecord is returned by Validate for records that must not be
// persisted.
var ErrInvalidRecord = errors.New("invalid record")

// Validate rejects records that would corrupt the store: empty ids and
// NaN, infinite or negative positions.
func (r Record) Validate() error {
	if r.VideoID == "" {
		return fmt.Errorf("%w: empty video id", ErrInvalidRecord)
	}
	if math.IsNaN(r.Time) || math.IsInf(r.Time, 0) {
		return fmt.Errorf("%w: time is not a finite number", ErrInvalidRecord)
	}
	if r.Time < 0 {
		return fmt.Errorf("%w: negative time %v", ErrInvalidRecord, r.Time)
	}
	return nil
}
