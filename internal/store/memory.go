package store

import (
	"context"
	"sync"
)

// MemoryBackend keeps records in a map. Used in tests and as the
// fallback when no durable backend is configured.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string]Record
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string]Record)}
}

func (b *MemoryBackend) Put(_ context.Context, rec Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[rec.VideoID] = rec
	return nil
}

func (b *MemoryBackend) Get(_ context.Context, videoID string) (*Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	rec, ok := b.data[videoID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (b *MemoryBackend) Delete(_ context.Context, videoID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.data[videoID]
	delete(b.data, videoID)
	return ok, nil
}

func (b *MemoryBackend) List(_ context.Context) ([]Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Record, 0, len(b.data))
	for _, rec := range b.data {
		out = append(out, rec)
	}
	return out, nil
}

func (b *MemoryBackend) Count(_ context.Context) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.data), nil
}

func (b *MemoryBackend) Clear(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = make(map[string]Record)
	return nil
}

func (b *MemoryBackend) Close() error { return nil }

var _ Backend = (*MemoryBackend)(nil)
