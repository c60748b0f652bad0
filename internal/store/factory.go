package store

import (
	"fmt"
	"path/filepath"
)

// OpenBackend creates a backend by name. dataDir is the daemon data
// directory; file and badger backends live inside it.
func OpenBackend(backend, dataDir string, redisOpts RedisOptions) (Backend, error) {
	switch backend {
	case "", "file":
		return NewFileBackend(filepath.Join(dataDir, "timestamps.json"))
	case "memory":
		return NewMemoryBackend(), nil
	case "badger":
		return OpenBadgerBackend(filepath.Join(dataDir, "timestamps.badger"))
	case "redis":
		return NewRedisBackend(redisOpts)
	default:
		return nil, fmt.Errorf("unknown store backend: %s (supported: memory, file, badger, redis)", backend)
	}
}
