package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig wraps all validation failures.
var ErrInvalidConfig = errors.New("invalid configuration")

var validBackends = map[string]bool{
	"memory": true,
	"file":   true,
	"badger": true,
	"redis":  true,
}

// Validate checks the full configuration. It returns the first problem
// found, wrapped in ErrInvalidConfig.
func Validate(cfg AppConfig) error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if cfg.DataDir == "" {
		return fail("data_dir must not be empty")
	}
	if cfg.ListenAddr == "" {
		return fail("listen_addr must not be empty")
	}
	if !validBackends[cfg.StoreBackend] {
		return fail("store_backend %q unknown (supported: memory, file, badger, redis)", cfg.StoreBackend)
	}
	if cfg.StoreBackend == "redis" && cfg.Redis.Addr == "" {
		return fail("redis.addr required for the redis store backend")
	}
	if cfg.RateLimitRPS <= 0 {
		return fail("rate_limit_rps must be positive")
	}
	if cfg.RateLimitBurst <= 0 {
		return fail("rate_limit_burst must be positive")
	}

	s := cfg.Settings
	if s.MaxStoredTimestamps < 1 {
		return fail("settings.max_stored_timestamps must be at least 1")
	}
	if s.MinSaveInterval < 0 {
		return fail("settings.min_save_interval must not be negative")
	}
	if s.DeadZone < 0 {
		return fail("settings.dead_zone must not be negative")
	}
	if s.NearEndWindow < 0 {
		return fail("settings.near_end_window must not be negative")
	}
	if s.URLOverrideDelta < 0 {
		return fail("settings.url_override_delta must not be negative")
	}
	if s.SaveDeltaSeconds < 0 {
		return fail("settings.save_delta_seconds must not be negative")
	}
	if s.PollBaseInterval <= 0 {
		return fail("settings.poll_base_interval must be positive")
	}
	if s.PollMaxInterval < s.PollBaseInterval {
		return fail("settings.poll_max_interval must be >= poll_base_interval")
	}
	if s.StablePollThreshold < 1 {
		return fail("settings.stable_poll_threshold must be at least 1")
	}
	if s.SettleDelay <= 0 {
		return fail("settings.settle_delay must be positive")
	}
	if s.NavPollInterval <= 0 {
		return fail("settings.nav_poll_interval must be positive")
	}
	if s.VideoIDParam == "" {
		return fail("settings.video_id_param must not be empty")
	}
	if s.TimeParam == "" {
		return fail("settings.time_param must not be empty")
	}
	return nil
}
