// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"github.com/ManuGH/stalker2m3u/internal/config"
	"github.com/ManuGH/stalker2m3u/internal/jobs"
	xglog "github.com/ManuGH/stalker2m3u/internal/log"
	"github.com/ManuGH/stalker2m3u/internal/platform/httpx"
	"github.com/ManuGH/stalker2m3u/internal/stalker"
	"github.com/urfave/cli/v2"
)

// settings is the resolved configuration plus the session identity.
type settings struct {
	cfg config.AppConfig
	id  stalker.Identity
}

// loadSettings resolves configuration from the file, the environment, the
// global flags and, for refresh, the positional session arguments.
func loadSettings(c *cli.Context) (settings, error) {
	overrides, err := flagOverrides(c)
	if err != nil {
		return settings{}, err
	}

	cfg, err := config.NewLoader(c.String("config"), version).Load(overrides...)
	if err != nil {
		return settings{}, cli.Exit(err.Error(), 2)
	}

	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Output:  c.App.ErrWriter,
		Service: cfg.LogService,
		Version: version,
	})

	id, err := stalker.NewIdentity(cfg.Session, cfg.Portal, cfg.MAC, cfg.Timezone)
	if err != nil {
		return settings{}, cli.Exit(err.Error(), 2)
	}
	return settings{cfg: cfg, id: id}, nil
}

func flagOverrides(c *cli.Context) ([]config.Override, error) {
	var out []config.Override
	str := func(name string, dst func(*config.AppConfig) *string) {
		if c.IsSet(name) {
			v := c.String(name)
			out = append(out, func(cfg *config.AppConfig) { *dst(cfg) = v })
		}
	}
	str("session", func(cfg *config.AppConfig) *string { return &cfg.Session })
	str("portal", func(cfg *config.AppConfig) *string { return &cfg.Portal })
	str("mac", func(cfg *config.AppConfig) *string { return &cfg.MAC })
	str("timezone", func(cfg *config.AppConfig) *string { return &cfg.Timezone })
	str("endpoint", func(cfg *config.AppConfig) *string { return &cfg.Endpoint })
	str("cache-dir", func(cfg *config.AppConfig) *string { return &cfg.CacheDir })
	str("output", func(cfg *config.AppConfig) *string { return &cfg.Output })
	str("metrics-file", func(cfg *config.AppConfig) *string { return &cfg.MetricsFile })
	str("log-level", func(cfg *config.AppConfig) *string { return &cfg.LogLevel })

	if c.IsSet("accept-partial") {
		v := c.Bool("accept-partial")
		out = append(out, func(cfg *config.AppConfig) { cfg.AcceptPartial = v })
	}
	if c.IsSet("stale-fallback") {
		v := c.Bool("stale-fallback")
		out = append(out, func(cfg *config.AppConfig) { cfg.StaleFallback = v })
	}
	if c.Bool("no-pacing") {
		out = append(out, func(cfg *config.AppConfig) { cfg.Pacing.Enabled = false })
	}

	// refresh <session> <portal> <mac> [<timezone>]
	if c.Command != nil && c.Command.Name == "refresh" {
		args := c.Args().Slice()
		switch len(args) {
		case 0:
		case 3, 4:
			out = append(out, func(cfg *config.AppConfig) {
				cfg.Session, cfg.Portal, cfg.MAC = args[0], args[1], args[2]
				if len(args) == 4 {
					cfg.Timezone = args[3]
				}
			})
		default:
			return nil, cli.Exit("refresh: expected <session> <portal> <mac> [<timezone>]", 2)
		}
	}
	return out, nil
}

func (s settings) jobsConfig() jobs.Config {
	return jobs.Config{
		TokenTTL:      s.cfg.TokenTTL,
		CatalogTTL:    s.cfg.CatalogTTL,
		PlaylistTTL:   s.cfg.PlaylistTTL,
		AcceptPartial: s.cfg.AcceptPartial,
		StaleFallback: s.cfg.StaleFallback,
		Output:        s.cfg.Output,
	}
}

func (s settings) clientOptions() []stalker.Option {
	return []stalker.Option{
		stalker.WithHTTPClient(httpx.NewClient(s.cfg.RequestTimeout)),
		stalker.WithPacer(s.pacer()),
		stalker.WithEndpoint(s.cfg.Endpoint),
		stalker.WithMaxPages(s.cfg.MaxPages),
		stalker.WithRetryPolicy(stalker.RetryPolicy{
			MaxAttempts:     s.cfg.Retry.Attempts,
			InitialInterval: s.cfg.Retry.Initial,
			MaxInterval:     s.cfg.Retry.Max,
		}),
	}
}

func (s settings) pacer() stalker.Pacer {
	p := s.cfg.Pacing
	switch {
	case p.Enabled:
		return stalker.NewJitterPacer(p.Min, p.Max, p.MaxRPS)
	case p.MaxRPS > 0:
		return stalker.NewJitterPacer(0, 0, p.MaxRPS)
	default:
		return stalker.NoPacing
	}
}
