package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ParseString returns the environment value for key, or defaultVal if unset
// or empty after trimming.
func ParseString(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

// ParseBool parses a boolean environment value. Unset or unparseable values
// yield defaultVal.
func ParseBool(key string, defaultVal bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// ParseInt parses an integer environment value. Unset or unparseable values
// yield defaultVal.
func ParseInt(key string, defaultVal int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// ParseFloat parses a float environment value. Unset or unparseable values
// yield defaultVal.
func ParseFloat(key string, defaultVal float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// ParseDuration parses a duration environment value ("30s", "1200ms").
// Unset or unparseable values yield defaultVal.
func ParseDuration(key string, defaultVal time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return parsed
}
