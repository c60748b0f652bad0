// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2"
)

// FileBackend persists the full record map as one human-inspectable JSON
// file, written atomically on every mutation. The in-memory map is the
// source of truth between writes.
type FileBackend struct {
	mu   sync.Mutex
	path string
	data map[string]Record
}

// NewFileBackend opens (or creates) the JSON file at path.
func NewFileBackend(path string) (*FileBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	b := &FileBackend{path: path, data: make(map[string]Record)}

	raw, err := os.ReadFile(path) // #nosec G304 -- path derives from the configured data dir
	if os.IsNotExist(err) {
		return b, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read timestamp file: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &b.data); err != nil {
			return nil, fmt.Errorf("parse timestamp file: %w", err)
		}
	}
	return b, nil
}

func (b *FileBackend) persistLocked() error {
	buf, err := json.MarshalIndent(b.data, "", "  ")
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(b.path, buf, 0o600); err != nil {
		return fmt.Errorf("write timestamp file: %w", err)
	}
	return nil
}

func (b *FileBackend) Put(_ context.Context, rec Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	prev, existed := b.data[rec.VideoID]
	b.data[rec.VideoID] = rec
	if err := b.persistLocked(); err != nil {
		// Roll the map back so memory and disk stay consistent.
		if existed {
			b.data[rec.VideoID] = prev
		} else {
			delete(b.data, rec.VideoID)
		}
		return err
	}
	return nil
}

func (b *FileBackend) Get(_ context.Context, videoID string) (*Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.data[videoID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (b *FileBackend) Delete(_ context.Context, videoID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	prev, ok := b.data[videoID]
	if !ok {
		return false, nil
	}
	delete(b.data, videoID)
	if err := b.persistLocked(); err != nil {
		b.data[videoID] = prev
		return false, err
	}
	return true, nil
}

func (b *FileBackend) List(_ context.Context) ([]Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Record, 0, len(b.data))
	for _, rec := range b.data {
		out = append(out, rec)
	}
	return out, nil
}

func (b *FileBackend) Count(_ context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data), nil
}

func (b *FileBackend) Clear(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	prev := b.data
	b.data = make(map[string]Record)
	if err := b.persistLocked(); err != nil {
		b.data = prev
		return err
	}
	return nil
}

func (b *FileBackend) Close() error { return nil }

var _ Backend = (*FileBackend)(nil)
