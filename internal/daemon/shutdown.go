// SPDX-License-Identifier: MIT

package daemon

import (
	"sync"

	"github.com/rs/zerolog"

	xlog "github.com/seekmark/seekmark/internal/log"
)

// shutdownRegistry collects cleanup handles from every component that
// holds a resource. closeAll invokes them in reverse registration order
// and tolerates individual failures so one broken handle cannot keep
// the rest from running.
type shutdownRegistry struct {
	logger zerolog.Logger

	mu      sync.Mutex
	entries []shutdownEntry
}

type shutdownEntry struct {
	name string
	fn   func() error
}

func newShutdownRegistry() *shutdownRegistry {
	return &shutdownRegistry{logger: xlog.WithComponent("daemon.shutdown")}
}

func (r *shutdownRegistry) register(name string, fn func() error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, shutdownEntry{name: name, fn: fn})
}

func (r *shutdownRegistry) closeAll() {
	r.mu.Lock()
	entries := r.entries
	r.entries = nil
	r.mu.Unlock()

	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if err := e.fn(); err != nil {
			r.logger.Warn().
				Err(err).
				Str(xlog.FieldEvent, "daemon.shutdown_failed").
				Str("handle", e.name).
				Msg("cleanup handle failed")
			continue
		}
		r.logger.Debug().
			Str(xlog.FieldEvent, "daemon.shutdown_ok").
			Str("handle", e.name).
			Msg("cleanup handle finished")
	}
}
