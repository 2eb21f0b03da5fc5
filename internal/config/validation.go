// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"regexp"
	"time"

	"github.com/ManuGH/stalker2m3u/internal/validate"
)

var sessionPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Validate checks a fully merged AppConfig and reports every problem at once.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.URL("Portal", cfg.Portal, []string{"http", "https"})
	v.MAC("MAC", cfg.MAC)
	if cfg.Session != "" {
		v.Pattern("Session", cfg.Session, sessionPattern, "letters, digits, '.', '_' and '-' only")
		if cfg.Session == "." || cfg.Session == ".." {
			v.AddError("Session", "must not be a relative path element", cfg.Session)
		}
	}
	v.NotEmpty("Timezone", cfg.Timezone)
	v.NotEmpty("Endpoint", cfg.Endpoint)
	v.NotEmpty("CacheDir", cfg.CacheDir)

	v.DurationRange("TokenTTL", cfg.TokenTTL, time.Second, 7*24*time.Hour)
	v.DurationRange("CatalogTTL", cfg.CatalogTTL, time.Second, 30*24*time.Hour)
	v.DurationRange("PlaylistTTL", cfg.PlaylistTTL, time.Second, 30*24*time.Hour)
	v.DurationRange("RequestTimeout", cfg.RequestTimeout, time.Second, 5*time.Minute)

	if cfg.Pacing.Enabled {
		v.DurationRange("Pacing.Min", cfg.Pacing.Min, 0, time.Minute)
		v.DurationRange("Pacing.Max", cfg.Pacing.Max, 0, time.Minute)
		if cfg.Pacing.Min > cfg.Pacing.Max {
			v.AddError("Pacing.Min", "must not exceed Pacing.Max", cfg.Pacing.Min.String())
		}
	}
	v.FloatRange("Pacing.MaxRPS", cfg.Pacing.MaxRPS, 0, 100)

	v.Range("Retry.Attempts", cfg.Retry.Attempts, 1, 10)
	v.DurationRange("Retry.Initial", cfg.Retry.Initial, time.Millisecond, time.Minute)
	v.DurationRange("Retry.Max", cfg.Retry.Max, time.Millisecond, 5*time.Minute)
	if cfg.Retry.Initial > cfg.Retry.Max {
		v.AddError("Retry.Initial", "must not exceed Retry.Max", cfg.Retry.Initial.String())
	}
	v.Range("MaxPages", cfg.MaxPages, 1, 100000)

	if _, err := validate.ParseLogLevel(cfg.LogLevel); err != nil {
		v.AddError("LogLevel", "must be one of trace, debug, info, warn, error", cfg.LogLevel)
	}

	return v.Err()
}
