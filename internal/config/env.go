package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// String returns the trimmed value of key or defaultValue when unset.
func String(key, defaultValue string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultValue
}

// Int reads a positive integer. Unset, invalid or non-positive values
// fall back to defaultValue.
func Int(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return defaultValue
	}
	return n
}

// Duration reads a Go duration string such as "90s" or "24h".
// Negative or unparsable values fall back to defaultValue.
func Duration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return defaultValue
	}
	return d
}

// Fields splits a whitespace separated argument list, returning
// defaultValue when the variable is unset.
func Fields(key string, defaultValue []string) []string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	return strings.Fields(value)
}
