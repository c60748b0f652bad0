// SPDX-License-Identifier: MIT

package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/seekmark/seekmark/internal/history"
	xlog "github.com/seekmark/seekmark/internal/log"
	"github.com/seekmark/seekmark/internal/metrics"
	"github.com/seekmark/seekmark/internal/store"
)

// Config wires the server to the engine. Journal may be nil when the
// history feature is disabled.
type Config struct {
	Session *Session
	Store   *store.Store
	Journal *history.Journal

	// ForceSave persists the current position bypassing the save gates.
	ForceSave func(ctx context.Context) bool
	// Restore re-runs restoration for the page's current video.
	Restore func(ctx context.Context)
	// Signal feeds a raw navigation hint to the watcher.
	Signal func(source string)

	RateLimitRPS   int
	RateLimitBurst int
	Version        string
}

// Server is the localhost bridge API.
type Server struct {
	cfg    Config
	router chi.Router
	logger zerolog.Logger
}

// New builds the router with its middleware stack.
func New(cfg Config) *Server {
	s := &Server{
		cfg:    cfg,
		logger: xlog.WithComponent("bridge"),
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(s.requestLogger)
	// Two fixed windows: a short-burst ceiling per second and the
	// sustained rate over a minute.
	if cfg.RateLimitBurst > 0 {
		r.Use(httprate.Limit(
			cfg.RateLimitBurst,
			time.Second,
			httprate.WithKeyFuncs(httprate.KeyByIP),
		))
	}
	if cfg.RateLimitRPS > 0 {
		r.Use(httprate.Limit(
			cfg.RateLimitRPS*60,
			time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
		))
	}

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/snapshot", s.handleSnapshot)
		r.Post("/signal", s.handleSignal)
		r.Get("/commands", s.handleCommands)

		r.Route("/timestamps", func(r chi.Router) {
			r.Get("/", s.handleListTimestamps)
			r.Delete("/", s.handleClearTimestamps)
			r.Get("/{videoID}", s.handleGetTimestamp)
			r.Put("/{videoID}", s.handlePutTimestamp)
			r.Delete("/{videoID}", s.handleDeleteTimestamp)
		})

		r.Get("/history", s.handleHistory)

		r.Route("/actions", func(r chi.Router) {
			r.Post("/save", s.handleActionSave)
			r.Post("/restore", s.handleActionRestore)
		})
	})

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Snapshot and command polling happen every couple of seconds;
		// logging them would drown everything else.
		if r.URL.Path == "/v1/snapshot" || r.URL.Path == "/v1/commands" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		s.logger.Info().
			Str(xlog.FieldEvent, "bridge.request").
			Str("method", r.Method).
			Str(xlog.FieldPath, r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug().
			Err(err).
			Str(xlog.FieldEvent, "bridge.encode_failed").
			Msg("could not encode response body")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, detail string) {
	s.writeJSON(w, status, map[string]string{"error": code, "detail": detail})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.cfg.Version})
}

// handleSnapshot ingests a page state report and returns any queued
// commands, saving the page script a second round trip.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	var snap Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_snapshot", err.Error())
		return
	}
	s.cfg.Session.Update(snap)
	if s.cfg.Signal != nil {
		s.cfg.Signal("snapshot")
	}

	if n, err := s.cfg.Store.Count(r.Context()); err == nil {
		metrics.SetStoredRecords(n)
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"commands": s.cfg.Session.DrainCommands(),
	})
}

func (s *Server) handleSignal(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Source string `json:"source"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_signal", err.Error())
		return
	}
	if body.Source == "" {
		body.Source = "page"
	}
	if s.cfg.Signal != nil {
		s.cfg.Signal(body.Source)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCommands(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"commands": s.cfg.Session.DrainCommands(),
	})
}

func (s *Server) handleListTimestamps(w http.ResponseWriter, r *http.Request) {
	records, err := s.cfg.Store.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "store_failed", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"timestamps": records})
}

func (s *Server) handleGetTimestamp(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	rec := s.cfg.Store.Load(r.Context(), videoID)
	if rec == nil {
		s.writeError(w, http.StatusNotFound, "not_found", "no timestamp for video "+videoID)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handlePutTimestamp(w http.ResponseWriter, r *http.Request) {
	var rec store.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_record", err.Error())
		return
	}
	rec.VideoID = chi.URLParam(r, "videoID")
	if !s.cfg.Store.Save(r.Context(), rec) {
		s.writeError(w, http.StatusUnprocessableEntity, "rejected", "record failed validation or persistence")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTimestamp(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	if !s.cfg.Store.Delete(r.Context(), videoID) {
		s.writeError(w, http.StatusNotFound, "not_found", "no timestamp for video "+videoID)
		return
	}
	if s.cfg.Journal != nil {
		if err := s.cfg.Journal.Append(r.Context(), history.KindDelete, videoID, 0, "api"); err != nil {
			s.logger.Warn().Err(err).Str(xlog.FieldEvent, "bridge.journal_failed").Msg("could not journal delete")
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearTimestamps(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Store.Clear(r.Context()) {
		s.writeError(w, http.StatusInternalServerError, "store_failed", "clear failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Journal == nil {
		s.writeError(w, http.StatusNotFound, "history_disabled", "history is disabled in the configuration")
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}
	events, err := s.cfg.Journal.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "history_failed", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (s *Server) handleActionSave(w http.ResponseWriter, r *http.Request) {
	if s.cfg.ForceSave == nil {
		s.writeError(w, http.StatusNotImplemented, "unavailable", "save action not wired")
		return
	}
	saved := s.cfg.ForceSave(r.Context())
	s.writeJSON(w, http.StatusOK, map[string]bool{"saved": saved})
}

func (s *Server) handleActionRestore(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Restore == nil {
		s.writeError(w, http.StatusNotImplemented, "unavailable", "restore action not wired")
		return
	}
	s.cfg.Restore(r.Context())
	w.WriteHeader(http.StatusAccepted)
}
