// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence ENV > file > defaults.
type Loader struct {
	configPath string
	version    string
}

// NewLoader creates a new configuration loader. configPath may be empty, in
// which case only ENV and defaults apply.
func NewLoader(configPath, version string) *Loader {
	return &Loader{configPath: configPath, version: version}
}

// Load loads configuration in Strict Validated Order:
// defaults -> file (strict) -> ENV -> validate.
func (l *Loader) Load() (AppConfig, error) {
	cfg := defaults()
	cfg.Version = l.version

	if l.configPath != "" {
		fc, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFile(&cfg, fc); err != nil {
			return cfg, fmt.Errorf("merge config file: %w", err)
		}
	}

	mergeEnv(&cfg)

	// DataDir must be absolute to survive working-directory changes.
	if abs, err := filepath.Abs(cfg.DataDir); err == nil {
		cfg.DataDir = abs
	}

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func defaults() AppConfig {
	dataDir := "/tmp/seekmark"
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		dataDir = filepath.Join(home, ".seekmark")
	}
	return AppConfig{
		DataDir:        dataDir,
		ListenAddr:     "127.0.0.1:8732",
		LogLevel:       "info",
		LogService:     "seekmark",
		StoreBackend:   "file",
		HistoryEnabled: true,
		RateLimitRPS:   50,
		RateLimitBurst: 100,
		Settings:       DefaultSettings(),
	}
}

// fileConfig mirrors AppConfig for YAML decoding. Pointer fields
// distinguish "absent" from zero values; durations are strings.
type fileConfig struct {
	DataDir        *string       `yaml:"data_dir"`
	ListenAddr     *string       `yaml:"listen_addr"`
	LogLevel       *string       `yaml:"log_level"`
	LogService     *string       `yaml:"log_service"`
	StoreBackend   *string       `yaml:"store_backend"`
	Redis          *fileRedis    `yaml:"redis"`
	HistoryEnabled *bool         `yaml:"history_enabled"`
	RateLimitRPS   *int          `yaml:"rate_limit_rps"`
	RateLimitBurst *int          `yaml:"rate_limit_burst"`
	Settings       *fileSettings `yaml:"settings"`
}

type fileRedis struct {
	Addr     *string `yaml:"addr"`
	Password *string `yaml:"password"`
	DB       *int    `yaml:"db"`
}

type fileSettings struct {
	AutoSave               *bool    `yaml:"auto_save"`
	SaveOnPause            *bool    `yaml:"save_on_pause"`
	SmartURLHandling       *bool    `yaml:"smart_url_handling"`
	RemoveTimestampFromURL *bool    `yaml:"remove_timestamp_from_url"`
	Notifications          *bool    `yaml:"notifications"`
	MinSaveInterval        *string  `yaml:"min_save_interval"`
	MaxStoredTimestamps    *int     `yaml:"max_stored_timestamps"`
	DeadZone               *string  `yaml:"dead_zone"`
	SaveDeltaSeconds       *float64 `yaml:"save_delta_seconds"`
	NearEndWindow          *string  `yaml:"near_end_window"`
	URLOverrideDelta       *string  `yaml:"url_override_delta"`
	PollBaseInterval       *string  `yaml:"poll_base_interval"`
	PollMaxInterval        *string  `yaml:"poll_max_interval"`
	StablePollThreshold    *int     `yaml:"stable_poll_threshold"`
	SettleDelay            *string  `yaml:"settle_delay"`
	NavPollInterval        *string  `yaml:"nav_poll_interval"`
	VideoIDParam           *string  `yaml:"video_id_param"`
	TimeParam              *string  `yaml:"time_param"`
}

func (l *Loader) loadFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is operator supplied
	if err != nil {
		return nil, err
	}
	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &fc, nil
}

func mergeFile(cfg *AppConfig, fc *fileConfig) error {
	setString(&cfg.DataDir, fc.DataDir)
	setString(&cfg.ListenAddr, fc.ListenAddr)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.LogService, fc.LogService)
	setString(&cfg.StoreBackend, fc.StoreBackend)
	setBool(&cfg.HistoryEnabled, fc.HistoryEnabled)
	setInt(&cfg.RateLimitRPS, fc.RateLimitRPS)
	setInt(&cfg.RateLimitBurst, fc.RateLimitBurst)

	if fc.Redis != nil {
		setString(&cfg.Redis.Addr, fc.Redis.Addr)
		setString(&cfg.Redis.Password, fc.Redis.Password)
		setInt(&cfg.Redis.DB, fc.Redis.DB)
	}

	if fc.Settings == nil {
		return nil
	}
	s := fc.Settings
	setBool(&cfg.Settings.AutoSave, s.AutoSave)
	setBool(&cfg.Settings.SaveOnPause, s.SaveOnPause)
	setBool(&cfg.Settings.SmartURLHandling, s.SmartURLHandling)
	setBool(&cfg.Settings.RemoveTimestampFromURL, s.RemoveTimestampFromURL)
	setBool(&cfg.Settings.Notifications, s.Notifications)
	setInt(&cfg.Settings.MaxStoredTimestamps, s.MaxStoredTimestamps)
	setFloat(&cfg.Settings.SaveDeltaSeconds, s.SaveDeltaSeconds)
	setInt(&cfg.Settings.StablePollThreshold, s.StablePollThreshold)
	setString(&cfg.Settings.VideoIDParam, s.VideoIDParam)
	setString(&cfg.Settings.TimeParam, s.TimeParam)

	for _, d := range []struct {
		dst  *time.Duration
		src  *string
		name string
	}{
		{&cfg.Settings.MinSaveInterval, s.MinSaveInterval, "min_save_interval"},
		{&cfg.Settings.DeadZone, s.DeadZone, "dead_zone"},
		{&cfg.Settings.NearEndWindow, s.NearEndWindow, "near_end_window"},
		{&cfg.Settings.URLOverrideDelta, s.URLOverrideDelta, "url_override_delta"},
		{&cfg.Settings.PollBaseInterval, s.PollBaseInterval, "poll_base_interval"},
		{&cfg.Settings.PollMaxInterval, s.PollMaxInterval, "poll_max_interval"},
		{&cfg.Settings.SettleDelay, s.SettleDelay, "settle_delay"},
		{&cfg.Settings.NavPollInterval, s.NavPollInterval, "nav_poll_interval"},
	} {
		if err := setDuration(d.dst, d.src); err != nil {
			return fmt.Errorf("settings.%s: %w", d.name, err)
		}
	}
	return nil
}

func mergeEnv(cfg *AppConfig) {
	cfg.DataDir = ParseString("SEEKMARK_DATA", cfg.DataDir)
	cfg.ListenAddr = ParseString("SEEKMARK_LISTEN", cfg.ListenAddr)
	cfg.LogLevel = ParseString("SEEKMARK_LOG_LEVEL", cfg.LogLevel)
	cfg.LogService = ParseString("SEEKMARK_LOG_SERVICE", cfg.LogService)
	cfg.StoreBackend = ParseString("SEEKMARK_STORE_BACKEND", cfg.StoreBackend)
	cfg.Redis.Addr = ParseString("SEEKMARK_REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = ParseString("SEEKMARK_REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = ParseInt("SEEKMARK_REDIS_DB", cfg.Redis.DB)
	cfg.HistoryEnabled = ParseBool("SEEKMARK_HISTORY", cfg.HistoryEnabled)
	cfg.RateLimitRPS = ParseInt("SEEKMARK_RATE_LIMIT_RPS", cfg.RateLimitRPS)
	cfg.RateLimitBurst = ParseInt("SEEKMARK_RATE_LIMIT_BURST", cfg.RateLimitBurst)

	s := &cfg.Settings
	s.AutoSave = ParseBool("SEEKMARK_AUTO_SAVE", s.AutoSave)
	s.SaveOnPause = ParseBool("SEEKMARK_SAVE_ON_PAUSE", s.SaveOnPause)
	s.SmartURLHandling = ParseBool("SEEKMARK_SMART_URL", s.SmartURLHandling)
	s.RemoveTimestampFromURL = ParseBool("SEEKMARK_STRIP_URL_TIME", s.RemoveTimestampFromURL)
	s.Notifications = ParseBool("SEEKMARK_NOTIFICATIONS", s.Notifications)
	s.MinSaveInterval = ParseDuration("SEEKMARK_MIN_SAVE_INTERVAL", s.MinSaveInterval)
	s.MaxStoredTimestamps = ParseInt("SEEKMARK_MAX_TIMESTAMPS", s.MaxStoredTimestamps)
	s.DeadZone = ParseDuration("SEEKMARK_DEAD_ZONE", s.DeadZone)
	s.SaveDeltaSeconds = ParseFloat("SEEKMARK_SAVE_DELTA", s.SaveDeltaSeconds)
	s.NearEndWindow = ParseDuration("SEEKMARK_NEAR_END_WINDOW", s.NearEndWindow)
	s.URLOverrideDelta = ParseDuration("SEEKMARK_URL_OVERRIDE_DELTA", s.URLOverrideDelta)
	s.PollBaseInterval = ParseDuration("SEEKMARK_POLL_BASE", s.PollBaseInterval)
	s.PollMaxInterval = ParseDuration("SEEKMARK_POLL_MAX", s.PollMaxInterval)
	s.StablePollThreshold = ParseInt("SEEKMARK_STABLE_POLLS", s.StablePollThreshold)
	s.SettleDelay = ParseDuration("SEEKMARK_SETTLE_DELAY", s.SettleDelay)
	s.NavPollInterval = ParseDuration("SEEKMARK_NAV_POLL", s.NavPollInterval)
	s.VideoIDParam = ParseString("SEEKMARK_VIDEO_ID_PARAM", s.VideoIDParam)
	s.TimeParam = ParseString("SEEKMARK_TIME_PARAM", s.TimeParam)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *string) error {
	if src == nil {
		return nil
	}
	d, err := time.ParseDuration(*src)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
