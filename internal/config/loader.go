// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ManuGH/stalker2m3u/internal/cache"
	"github.com/ManuGH/stalker2m3u/internal/platform/httpx"
	"github.com/ManuGH/stalker2m3u/internal/stalker"
	"gopkg.in/yaml.v3"
)

// Override adjusts the configuration after environment variables have been
// applied. Command line flags use it to take the highest precedence.
type Override func(*AppConfig)

// Loader builds an AppConfig from defaults, an optional YAML file and the
// environment.
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{}
}

func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

func (l *Loader) envString(key, def string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, def)
}

func (l *Loader) envBool(key string, def bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, def)
}

func (l *Loader) envInt(key string, def int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, def)
}

func (l *Loader) envFloat(key string, def float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, def)
}

func (l *Loader) envDuration(key string, def time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, def)
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		Timezone:       stalker.DefaultTimezone,
		Endpoint:       stalker.DefaultEndpoint,
		CacheDir:       "cache",
		TokenTTL:       cache.DefaultTokenTTL,
		CatalogTTL:     cache.DefaultCatalogTTL,
		PlaylistTTL:    cache.DefaultPlaylistTTL,
		RequestTimeout: httpx.DefaultTimeout,
		Pacing: PacingConfig{
			Enabled: true,
			Min:     stalker.DefaultPacingMin,
			Max:     stalker.DefaultPacingMax,
			MaxRPS:  stalker.DefaultMaxRPS,
		},
		Retry: RetryConfig{
			Attempts: stalker.DefaultRetryPolicy.MaxAttempts,
			Initial:  stalker.DefaultRetryPolicy.InitialInterval,
			Max:      stalker.DefaultRetryPolicy.MaxInterval,
		},
		MaxPages:      stalker.DefaultMaxPages,
		StaleFallback: true,
		LogLevel:      "info",
		LogService:    "stalker2m3u",
	}
}

// Load resolves the configuration: defaults, then the file, then the
// environment, then overrides. The result is validated.
func (l *Loader) Load(overrides ...Override) (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		mergeFile(&cfg, fileCfg)
	}

	l.mergeEnv(&cfg)
	for _, o := range overrides {
		o(&cfg)
	}

	cfg.Portal = strings.TrimRight(strings.TrimSpace(cfg.Portal), "/")
	cfg.MAC = strings.ToUpper(strings.TrimSpace(cfg.MAC))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if abs, err := filepath.Abs(cfg.CacheDir); err == nil && cfg.CacheDir != "" {
		cfg.CacheDir = abs
	}
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile parses a YAML file strictly: unknown keys and trailing documents
// are errors.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return &fileCfg, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setPtr[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func mergeFile(cfg *AppConfig, f *FileConfig) {
	setString(&cfg.Session, f.Session)
	setString(&cfg.Portal, f.Portal)
	setString(&cfg.MAC, f.MAC)
	setString(&cfg.Timezone, f.Timezone)
	setString(&cfg.Endpoint, f.Endpoint)

	setString(&cfg.CacheDir, f.Cache.Dir)
	setPtr(&cfg.TokenTTL, f.Cache.TokenTTL)
	setPtr(&cfg.CatalogTTL, f.Cache.CatalogTTL)
	setPtr(&cfg.PlaylistTTL, f.Cache.PlaylistTTL)

	setPtr(&cfg.RequestTimeout, f.Request.Timeout)
	setPtr(&cfg.Retry.Attempts, f.Request.Retries)
	setPtr(&cfg.Retry.Initial, f.Request.RetryInitial)
	setPtr(&cfg.Retry.Max, f.Request.RetryMax)
	setPtr(&cfg.MaxPages, f.Request.MaxPages)

	setPtr(&cfg.Pacing.Enabled, f.Pacing.Enabled)
	setPtr(&cfg.Pacing.Min, f.Pacing.Min)
	setPtr(&cfg.Pacing.Max, f.Pacing.Max)
	setPtr(&cfg.Pacing.MaxRPS, f.Pacing.MaxRPS)

	setPtr(&cfg.AcceptPartial, f.Refresh.AcceptPartial)
	setPtr(&cfg.StaleFallback, f.Refresh.StaleFallback)

	setString(&cfg.Output, f.Output)
	setString(&cfg.MetricsFile, f.MetricsFile)
	setString(&cfg.LogLevel, f.Logging.Level)
	setString(&cfg.LogService, f.Logging.Service)
}

// mergeEnv applies environment variables; unset keys keep the current value.
func (l *Loader) mergeEnv(cfg *AppConfig) {
	cfg.Session = l.envString(EnvSession, cfg.Session)
	cfg.Portal = l.envString(EnvPortal, cfg.Portal)
	cfg.MAC = l.envString(EnvMAC, cfg.MAC)
	cfg.Timezone = l.envString(EnvTimezone, cfg.Timezone)
	cfg.Endpoint = l.envString(EnvEndpoint, cfg.Endpoint)

	cfg.CacheDir = l.envString(EnvCacheDir, cfg.CacheDir)
	cfg.TokenTTL = l.envDuration(EnvTokenTTL, cfg.TokenTTL)
	cfg.CatalogTTL = l.envDuration(EnvCatalogTTL, cfg.CatalogTTL)
	cfg.PlaylistTTL = l.envDuration(EnvPlaylistTTL, cfg.PlaylistTTL)

	cfg.RequestTimeout = l.envDuration(EnvRequestTimeout, cfg.RequestTimeout)
	cfg.Pacing.Enabled = l.envBool(EnvPacingEnabled, cfg.Pacing.Enabled)
	cfg.Pacing.Min = l.envDuration(EnvPacingMin, cfg.Pacing.Min)
	cfg.Pacing.Max = l.envDuration(EnvPacingMax, cfg.Pacing.Max)
	cfg.Pacing.MaxRPS = l.envFloat(EnvMaxRPS, cfg.Pacing.MaxRPS)
	cfg.Retry.Attempts = l.envInt(EnvRetries, cfg.Retry.Attempts)
	cfg.Retry.Initial = l.envDuration(EnvRetryInitial, cfg.Retry.Initial)
	cfg.Retry.Max = l.envDuration(EnvRetryMax, cfg.Retry.Max)
	cfg.MaxPages = l.envInt(EnvMaxPages, cfg.MaxPages)

	cfg.AcceptPartial = l.envBool(EnvAcceptPartial, cfg.AcceptPartial)
	cfg.StaleFallback = l.envBool(EnvStaleFallback, cfg.StaleFallback)
	cfg.Output = l.envString(EnvOutput, cfg.Output)
	cfg.MetricsFile = l.envString(EnvMetricsFile, cfg.MetricsFile)
	cfg.LogLevel = l.envString(EnvLogLevel, cfg.LogLevel)
	cfg.LogService = l.envString(EnvLogService, cfg.LogService)
}
