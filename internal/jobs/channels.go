// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package jobs

import (
	"bytes"
	"context"

	"github.com/ManuGH/stalker2m3u/internal/cache"
	"github.com/ManuGH/stalker2m3u/internal/playlist"
	"github.com/ManuGH/stalker2m3u/internal/stalker"
)

// LoadChannels returns the entries of the session playlist. A missing or
// expired playlist triggers a refresh first.
func LoadChannels(ctx context.Context, cfg Config, cacheDir string, id stalker.Identity, opts ...stalker.Option) ([]playlist.Entry, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	store, err := cache.New(cacheDir, id.Label)
	if err != nil {
		return nil, err
	}
	return loadChannelsWith(ctx, cfg, func() Portal { return stalker.New(id, opts...) }, store, id.Label)
}

func loadChannelsWith(ctx context.Context, cfg Config, portal func() Portal, store Store, session string) ([]playlist.Entry, error) {
	doc, ok, err := store.Read(cache.ArtifactPlaylist, cfg.PlaylistTTL)
	if err != nil || !ok {
		status, rerr := refreshWith(ctx, cfg, portal(), store, session)
		if rerr != nil {
			return nil, rerr
		}
		doc = status.Playlist
	}
	return playlist.Parse(bytes.NewReader(doc))
}
