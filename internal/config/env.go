// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	xglog "github.com/ManuGH/stalker2m3u/internal/log"
	"github.com/rs/zerolog"
)

// Environment keys.
const (
	EnvSession        = "STALKER_SESSION"
	EnvPortal         = "STALKER_PORTAL"
	EnvMAC            = "STALKER_MAC"
	EnvTimezone       = "STALKER_TIMEZONE"
	EnvEndpoint       = "STALKER_ENDPOINT"
	EnvCacheDir       = "STALKER_CACHE_DIR"
	EnvTokenTTL       = "STALKER_TOKEN_TTL"
	EnvCatalogTTL     = "STALKER_CATALOG_TTL"
	EnvPlaylistTTL    = "STALKER_PLAYLIST_TTL"
	EnvRequestTimeout = "STALKER_REQUEST_TIMEOUT"
	EnvPacingEnabled  = "STALKER_PACING_ENABLED"
	EnvPacingMin      = "STALKER_PACING_MIN"
	EnvPacingMax      = "STALKER_PACING_MAX"
	EnvMaxRPS         = "STALKER_MAX_RPS"
	EnvRetries        = "STALKER_RETRIES"
	EnvRetryInitial   = "STALKER_RETRY_INITIAL"
	EnvRetryMax       = "STALKER_RETRY_MAX"
	EnvMaxPages       = "STALKER_MAX_PAGES"
	EnvAcceptPartial  = "STALKER_ACCEPT_PARTIAL"
	EnvStaleFallback  = "STALKER_STALE_FALLBACK"
	EnvOutput         = "STALKER_OUTPUT"
	EnvMetricsFile    = "STALKER_METRICS_FILE"
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogService     = "LOG_SERVICE"
)

// sensitiveKey reports whether a key's value must not be logged. The MAC
// identifies the subscriber account on the portal.
func sensitiveKey(key string) bool {
	k := strings.ToLower(key)
	switch {
	case strings.HasSuffix(k, "_ttl"):
		return false
	case strings.Contains(k, "token"), strings.Contains(k, "password"):
		return true
	default:
		return strings.HasSuffix(k, "_mac")
	}
}

// lookup returns the raw value of key when it is set and non-empty, logging
// which source wins.
func lookup(logger zerolog.Logger, key string, def any) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logger.Debug().
			Str("key", key).
			Interface("default", def).
			Str(xglog.FieldSource, "default").
			Msg("using default value")
		return "", false
	}
	ev := logger.Debug().Str("key", key).Str(xglog.FieldSource, "environment")
	if sensitiveKey(key) {
		ev = ev.Bool("sensitive", true)
	} else {
		ev = ev.Str("value", v)
	}
	ev.Msg("using environment variable")
	return v, true
}

func invalid(logger zerolog.Logger, key, value, kind string, def any) {
	logger.Warn().
		Str("key", key).
		Str("value", value).
		Interface("default", def).
		Msgf("invalid %s in environment variable, using default", kind)
}

// ParseString reads a string from the environment or returns defaultValue.
// An empty variable counts as unset.
func ParseString(key, defaultValue string) string {
	if v, ok := lookup(xglog.WithComponent("config"), key, defaultValue); ok {
		return v
	}
	return defaultValue
}

// ParseInt reads an integer and falls back to defaultValue on parse errors.
func ParseInt(key string, defaultValue int) int {
	logger := xglog.WithComponent("config")
	v, ok := lookup(logger, key, defaultValue)
	if !ok {
		return defaultValue
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		invalid(logger, key, v, "integer", defaultValue)
		return defaultValue
	}
	return i
}

// ParseFloat reads a float64 and falls back to defaultValue on parse errors.
func ParseFloat(key string, defaultValue float64) float64 {
	logger := xglog.WithComponent("config")
	v, ok := lookup(logger, key, defaultValue)
	if !ok {
		return defaultValue
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		invalid(logger, key, v, "float", defaultValue)
		return defaultValue
	}
	return f
}

// ParseDuration reads a Go duration ("5s", "6h"). A bare integer is taken
// as seconds.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	logger := xglog.WithComponent("config")
	v, ok := lookup(logger, key, defaultValue.String())
	if !ok {
		return defaultValue
	}
	v = strings.TrimSpace(v)
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	invalid(logger, key, v, "duration", defaultValue.String())
	return defaultValue
}

// ParseBool accepts true/false, 1/0, yes/no and on/off in any case.
func ParseBool(key string, defaultValue bool) bool {
	logger := xglog.WithComponent("config")
	v, ok := lookup(logger, key, defaultValue)
	if !ok {
		return defaultValue
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		invalid(logger, key, v, "boolean", defaultValue)
		return defaultValue
	}
}
