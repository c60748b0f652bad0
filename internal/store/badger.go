package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

var badgerPrefix = []byte("ts:")

// BadgerBackend persists records in an embedded BadgerDB, one JSON value
// per video id under the "ts:" prefix.
type BadgerBackend struct {
	db *badger.DB
}

// OpenBadgerBackend opens (or creates) a BadgerDB at dir.
func OpenBadgerBackend(dir string) (*BadgerBackend, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &BadgerBackend{db: db}, nil
}

func badgerKey(videoID string) []byte {
	return append(append([]byte{}, badgerPrefix...), videoID...)
}

func (b *BadgerBackend) Put(_ context.Context, rec Record) error {
	buf, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(rec.VideoID), buf)
	})
}

func (b *BadgerBackend) Get(_ context.Context, videoID string) (*Record, error) {
	var rec Record
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(videoID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (b *BadgerBackend) Delete(_ context.Context, videoID string) (bool, error) {
	existed := false
	err := b.db.Update(func(txn *badger.Txn) error {
		key := badgerKey(videoID)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		existed = true
		return txn.Delete(key)
	})
	if err != nil {
		return false, err
	}
	return existed, nil
}

func (b *BadgerBackend) List(ctx context.Context) ([]Record, error) {
	var out []Record
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(badgerPrefix); it.ValidForPrefix(badgerPrefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			var rec Record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				continue
			}
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

func (b *BadgerBackend) Count(_ context.Context) (int, error) {
	n := 0
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(badgerPrefix); it.ValidForPrefix(badgerPrefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

func (b *BadgerBackend) Clear(_ context.Context) error {
	return b.db.DropPrefix(badgerPrefix)
}

func (b *BadgerBackend) Close() error { return b.db.Close() }

var _ Backend = (*BadgerBackend)(nil)
