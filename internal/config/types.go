// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads stalker2m3u settings with precedence
// flags > environment > YAML file > defaults.
package config

import "time"

// AppConfig is the effective, validated configuration of one invocation.
type AppConfig struct {
	Version string

	// Session identity
	Session  string // cache namespace; derived from portal/MAC/timezone when empty
	Portal   string
	MAC      string
	Timezone string
	Endpoint string

	// Cache
	CacheDir    string
	TokenTTL    time.Duration
	CatalogTTL  time.Duration
	PlaylistTTL time.Duration

	// Portal requests
	RequestTimeout time.Duration
	Pacing         PacingConfig
	Retry          RetryConfig
	MaxPages       int

	// Refresh policy
	AcceptPartial bool
	StaleFallback bool

	Output      string
	MetricsFile string

	LogLevel   string
	LogService string
}

type PacingConfig struct {
	Enabled bool
	Min     time.Duration
	Max     time.Duration
	MaxRPS  float64 // 0 disables the rate ceiling
}

type RetryConfig struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
}

// FileConfig mirrors the YAML file. Pointer fields distinguish "absent"
// from zero values.
type FileConfig struct {
	Session     string      `yaml:"session,omitempty"`
	Portal      string      `yaml:"portal,omitempty"`
	MAC         string      `yaml:"mac,omitempty"`
	Timezone    string      `yaml:"timezone,omitempty"`
	Endpoint    string      `yaml:"endpoint,omitempty"`
	Cache       CacheFile   `yaml:"cache,omitempty"`
	Request     RequestFile `yaml:"request,omitempty"`
	Pacing      PacingFile  `yaml:"pacing,omitempty"`
	Refresh     RefreshFile `yaml:"refresh,omitempty"`
	Output      string      `yaml:"output,omitempty"`
	MetricsFile string      `yaml:"metricsFile,omitempty"`
	Logging     LoggingFile `yaml:"logging,omitempty"`
}

type CacheFile struct {
	Dir         string         `yaml:"dir,omitempty"`
	TokenTTL    *time.Duration `yaml:"tokenTTL,omitempty"`
	CatalogTTL  *time.Duration `yaml:"catalogTTL,omitempty"`
	PlaylistTTL *time.Duration `yaml:"playlistTTL,omitempty"`
}

type RequestFile struct {
	Timeout      *time.Duration `yaml:"timeout,omitempty"`
	Retries      *int           `yaml:"retries,omitempty"`
	RetryInitial *time.Duration `yaml:"retryInitial,omitempty"`
	RetryMax     *time.Duration `yaml:"retryMax,omitempty"`
	MaxPages     *int           `yaml:"maxPages,omitempty"`
}

type PacingFile struct {
	Enabled *bool          `yaml:"enabled,omitempty"`
	Min     *time.Duration `yaml:"min,omitempty"`
	Max     *time.Duration `yaml:"max,omitempty"`
	MaxRPS  *float64       `yaml:"maxRPS,omitempty"`
}

type RefreshFile struct {
	AcceptPartial *bool `yaml:"acceptPartial,omitempty"`
	StaleFallback *bool `yaml:"staleFallback,omitempty"`
}

type LoggingFile struct {
	Level   string `yaml:"level,omitempty"`
	Service string `yaml:"service,omitempty"`
}
