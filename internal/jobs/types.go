// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package jobs drives a playlist refresh run against a portal session.
package jobs

import (
	"context"
	"time"

	"github.com/ManuGH/stalker2m3u/internal/stalker"
)

// Stage names a step of a refresh run.
type Stage string

const (
	StageToken    Stage = "token"
	StageProfile  Stage = "profile"
	StageCatalog  Stage = "catalog"
	StagePlaylist Stage = "playlist"
	StageOutput   Stage = "output"
)

// Source tells where a stage's artifact came from.
type Source string

const (
	SourceCache   Source = "cache"   // fresh cache entry
	SourceNetwork Source = "network" // fetched from the portal in this run
	SourceRender  Source = "render"  // rendered in this run
	SourceStale   Source = "stale"   // expired cache entry used after a failure
	SourcePartial Source = "partial" // incomplete catalog accepted for this run
)

// Config holds the refresh policy.
type Config struct {
	TokenTTL    time.Duration
	CatalogTTL  time.Duration
	PlaylistTTL time.Duration

	AcceptPartial bool // use an incomplete catalog instead of failing
	StaleFallback bool // fall back to expired cache entries when a stage fails

	Output string // optional extra copy of the playlist
}

// Status describes a finished refresh run.
type Status struct {
	RunID        string           `json:"run_id"`
	LastRun      time.Time        `json:"last_run"`
	Duration     time.Duration    `json:"duration"`
	Channels     int              `json:"channels"`
	Sources      map[Stage]Source `json:"sources"`
	Partial      bool             `json:"partial,omitempty"`
	PlaylistPath string           `json:"playlist_path"`
	Cached       bool             `json:"cached"` // playlist is stored at PlaylistPath
	Output       string           `json:"output,omitempty"`

	Playlist []byte `json:"-"`
}

// Degraded reports whether any stage used a stale or partial artifact.
func (s *Status) Degraded() bool {
	for _, src := range s.Sources {
		if src == SourceStale || src == SourcePartial {
			return true
		}
	}
	return false
}

// Portal is the part of stalker.Client a refresh needs.
type Portal interface {
	Handshake(ctx context.Context) (string, error)
	UseToken(token string) error
	Profile(ctx context.Context, token string) stalker.Profile
	FetchCatalog(ctx context.Context, token string) (stalker.Catalog, error)
}

// Store is the part of cache.FileStore a refresh needs.
type Store interface {
	Read(key string, ttl time.Duration) ([]byte, bool, error)
	ReadStale(key string) ([]byte, time.Time, bool, error)
	Write(key string, blob []byte) error
	Path(key string) string
}
