// Package config reads service configuration from a YAML file with
// environment overrides.
//
// Keys are dotted paths ("otp.rate_limit.window"). Every key can be overridden
// by an environment variable prefixed with APP_ and with dots replaced by
// underscores (APP_OTP_RATE_LIMIT_WINDOW).
package config

import (
	"io"
	"time"
)

// TimeConfig defines helpers for retrieving time-based configuration values.
type TimeConfig interface {
	// GetSecond reads an integer number of seconds.
	GetSecond(key string) time.Duration
	// GetMinute reads an integer number of minutes.
	GetMinute(key string) time.Duration
	// GetDuration reads a Go duration string such as "90s" or "15m". A bare
	// integer is taken as seconds. Invalid values yield 0.
	GetDuration(key string) time.Duration
}

// Config defines a set of methods for retrieving configuration values of various types.
// Missing keys return the zero value; callers apply their own defaults.
type Config interface {
	io.Closer
	TimeConfig

	GetInt(key string) int
	GetInt64(key string) int64
	GetFloat64(key string) float64
	GetBool(key string) bool
	GetString(key string) string

	// GetBinary decodes a base64 value.
	GetBinary(key string) []byte

	// GetArray reads "<element1>,<element2>,..." with blanks trimmed and empty
	// elements dropped.
	GetArray(key string) []string

	// GetMap reads "<key1>:<value1>,<key2>:<value2>,...".
	GetMap(key string) map[string]string
}
