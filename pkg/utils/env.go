package utils

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

func GetEnvTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func GetEnvTrimmedOrDefault(key, defaultValue string) string {
	v := strings.TrimSpace(os.Getenv(key))

	if v == "" {
		return defaultValue
	}

	return v
}

// GetPositiveIntEnv falls back to defaultValue when the variable is unset, malformed or not positive.
func GetPositiveIntEnv(key string, defaultValue int) int {
	raw := GetEnvTrimmed(key)
	if raw == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return defaultValue
	}

	return parsed
}

// GetPositiveDurationEnv parses values such as "60s" or "1m".
func GetPositiveDurationEnv(key string, defaultValue time.Duration) time.Duration {
	raw := GetEnvTrimmed(key)
	if raw == "" {
		return defaultValue
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return defaultValue
	}

	return parsed
}

func GetBoolEnv(key string, defaultValue bool) bool {
	raw := GetEnvTrimmed(key)
	if raw == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultValue
	}

	return parsed
}
