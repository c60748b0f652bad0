// SPDX-License-Identifier: MIT

// Package config loads and validates the daemon configuration with
// precedence ENV > file > defaults, and supports hot reloading.
package config

import "time"

// Settings is the user-facing settings bag consumed by the engine
// components. It is hot-reloadable as a unit.
type Settings struct {
	// Feature toggles
	AutoSave               bool
	SaveOnPause            bool
	SmartURLHandling       bool
	RemoveTimestampFromURL bool
	Notifications          bool

	// Save policy
	MinSaveInterval     time.Duration
	MaxStoredTimestamps int
	DeadZone            time.Duration
	SaveDeltaSeconds    float64

	// Restore policy
	NearEndWindow    time.Duration
	URLOverrideDelta time.Duration

	// Scheduling
	PollBaseInterval    time.Duration
	PollMaxInterval     time.Duration
	StablePollThreshold int
	SettleDelay         time.Duration
	NavPollInterval     time.Duration

	// URL layout of the host site
	VideoIDParam string
	TimeParam    string
}

// RedisConfig holds connection settings for the redis store backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AppConfig is the full daemon configuration.
type AppConfig struct {
	DataDir    string
	ListenAddr string
	LogLevel   string
	LogService string

	// StoreBackend selects the timestamp persistence backend:
	// memory, file, badger or redis.
	StoreBackend string
	Redis        RedisConfig

	HistoryEnabled bool

	RateLimitRPS   int
	RateLimitBurst int

	Settings Settings

	// Version is injected by the loader, never read from file or ENV.
	Version string
}

// DefaultSettings returns the settings defaults matching the documented
// save/restore policy.
func DefaultSettings() Settings {
	return Settings{
		AutoSave:               true,
		SaveOnPause:            false,
		SmartURLHandling:       true,
		RemoveTimestampFromURL: false,
		Notifications:          true,

		MinSaveInterval:     30 * time.Second,
		MaxStoredTimestamps: 100,
		DeadZone:            30 * time.Second,
		SaveDeltaSeconds:    5,

		NearEndWindow:    30 * time.Second,
		URLOverrideDelta: 30 * time.Second,

		PollBaseInterval:    2 * time.Second,
		PollMaxInterval:     5 * time.Second,
		StablePollThreshold: 5,
		SettleDelay:         1200 * time.Millisecond,
		NavPollInterval:     time.Second,

		VideoIDParam: "v",
		TimeParam:    "t",
	}
}
