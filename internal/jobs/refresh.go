// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/stalker2m3u/internal/cache"
	xglog "github.com/ManuGH/stalker2m3u/internal/log"
	"github.com/ManuGH/stalker2m3u/internal/metrics"
	"github.com/ManuGH/stalker2m3u/internal/playlist"
	"github.com/ManuGH/stalker2m3u/internal/stalker"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// StageError reports the stage a refresh run failed in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// Refresh runs token, profile, catalog and playlist stages for id, reusing
// cache entries that are still fresh.
func Refresh(ctx context.Context, cfg Config, cacheDir string, id stalker.Identity, opts ...stalker.Option) (*Status, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	store, err := cache.New(cacheDir, id.Label)
	if err != nil {
		return nil, err
	}
	return refreshWith(ctx, cfg, stalker.New(id, opts...), store, id.Label)
}

type run struct {
	cfg    Config
	portal Portal
	store  Store
	logger zerolog.Logger
	status *Status
}

// refreshWith is separated for tests that inject portal and store.
func refreshWith(ctx context.Context, cfg Config, portal Portal, store Store, session string) (*Status, error) {
	start := time.Now()
	runID := uuid.NewString()
	ctx = xglog.ContextWithRunID(ctx, runID)
	ctx = xglog.ContextWithSession(ctx, session)

	r := &run{
		cfg:    cfg,
		portal: portal,
		store:  store,
		logger: xglog.WithComponentFromContext(ctx, "jobs"),
		status: &Status{
			RunID:        runID,
			LastRun:      start,
			Sources:      make(map[Stage]Source),
			PlaylistPath: store.Path(cache.ArtifactPlaylist),
		},
	}
	r.logger.Info().Str(xglog.FieldEvent, "refresh.start").Msg("starting refresh")

	status, err := r.execute(ctx)
	metrics.ObserveRefreshDuration(time.Since(start).Seconds())
	if err != nil {
		var se *StageError
		if errors.As(err, &se) {
			metrics.IncRefreshFailure(string(se.Stage))
		}
		r.logger.Error().Err(err).Str(xglog.FieldEvent, "refresh.failed").Msg("refresh failed")
		return nil, err
	}

	status.Duration = time.Since(start)
	metrics.MarkRefreshSuccess()
	r.logger.Info().
		Str(xglog.FieldEvent, "refresh.success").
		Int("channels", status.Channels).
		Bool("degraded", status.Degraded()).
		Dur("duration", status.Duration).
		Msg("refresh completed")
	return status, nil
}

func (r *run) execute(ctx context.Context) (*Status, error) {
	token, err := r.token(ctx)
	if err != nil {
		return nil, &StageError{Stage: StageToken, Err: err}
	}

	// The profile call registers the device; its content is not used.
	profile := r.portal.Profile(ctx, token)
	r.logger.Debug().Str(xglog.FieldEvent, "profile.done").Int(xglog.FieldItems, len(profile)).Msg("profile stage done")

	catalog, err := r.catalog(ctx, token)
	if err != nil {
		return nil, &StageError{Stage: StageCatalog, Err: err}
	}
	r.status.Channels = len(catalog)
	metrics.RecordCatalogChannels(len(catalog))

	doc, err := r.playlist(catalog)
	if err != nil {
		return nil, &StageError{Stage: StagePlaylist, Err: err}
	}
	r.status.Playlist = doc

	if r.cfg.Output != "" {
		path, err := outputPath(r.cfg.Output)
		if err != nil {
			return nil, &StageError{Stage: StageOutput, Err: err}
		}
		if err := writeOutput(ctx, path, doc); err != nil {
			return nil, &StageError{Stage: StageOutput, Err: err}
		}
		r.status.Output = path
		r.logger.Info().Str(xglog.FieldEvent, "playlist.output").Str(xglog.FieldPath, path).Msg("playlist copy written")
	}
	return r.status, nil
}

// cached returns a fresh cache entry. Read failures are logged and treated
// as a miss.
func (r *run) cached(key string, ttl time.Duration) ([]byte, bool) {
	blob, ok, err := r.store.Read(key, ttl)
	if err != nil {
		r.logger.Warn().Err(err).
			Str(xglog.FieldEvent, "cache.read_failed").
			Str(xglog.FieldArtifact, key).
			Msg("cache read failed, treating as miss")
		return nil, false
	}
	return blob, ok
}

// stale returns an expired entry when stale fallback is enabled.
func (r *run) stale(key string) ([]byte, bool) {
	if !r.cfg.StaleFallback {
		return nil, false
	}
	blob, mtime, ok, err := r.store.ReadStale(key)
	if err != nil || !ok {
		return nil, false
	}
	r.logger.Warn().
		Str(xglog.FieldEvent, "cache.stale_fallback").
		Str(xglog.FieldArtifact, key).
		Str(xglog.FieldSource, string(SourceStale)).
		Dur(xglog.FieldAge, time.Since(mtime)).
		Msg("using expired cache entry")
	return blob, true
}

// persist writes an artifact. Failures are logged and returned.
func (r *run) persist(key string, blob []byte) error {
	if err := r.store.Write(key, blob); err != nil {
		r.logger.Error().Err(err).
			Str(xglog.FieldEvent, "cache.write_failed").
			Str(xglog.FieldArtifact, key).
			Msg("cache write failed, continuing with in-memory data")
		return err
	}
	return nil
}

func (r *run) token(ctx context.Context) (string, error) {
	if blob, ok := r.cached(cache.ArtifactToken, r.cfg.TokenTTL); ok && len(blob) > 0 {
		token := string(blob)
		if err := r.portal.UseToken(token); err != nil {
			return "", err
		}
		r.status.Sources[StageToken] = SourceCache
		return token, nil
	}

	token, err := r.portal.Handshake(ctx)
	if err != nil {
		if blob, ok := r.stale(cache.ArtifactToken); ok && len(blob) > 0 {
			if uerr := r.portal.UseToken(string(blob)); uerr == nil {
				r.status.Sources[StageToken] = SourceStale
				return string(blob), nil
			}
		}
		return "", err
	}
	_ = r.persist(cache.ArtifactToken, []byte(token))
	r.status.Sources[StageToken] = SourceNetwork
	return token, nil
}

func (r *run) catalog(ctx context.Context, token string) (stalker.Catalog, error) {
	if blob, ok := r.cached(cache.ArtifactChannels, r.cfg.CatalogTTL); ok {
		var c stalker.Catalog
		err := json.Unmarshal(blob, &c)
		if err == nil {
			r.status.Sources[StageCatalog] = SourceCache
			return c, nil
		}
		r.logger.Warn().Err(err).
			Str(xglog.FieldEvent, "cache.corrupt").
			Str(xglog.FieldArtifact, cache.ArtifactChannels).
			Msg("cached catalog is unreadable, refetching")
	}

	catalog, err := r.portal.FetchCatalog(ctx, token)
	if err == nil {
		if blob, merr := json.Marshal(catalog); merr == nil {
			_ = r.persist(cache.ArtifactChannels, blob)
		}
		r.status.Sources[StageCatalog] = SourceNetwork
		return catalog, nil
	}

	var pce *stalker.PartialCatalogError
	if errors.As(err, &pce) && r.cfg.AcceptPartial && len(catalog) > 0 {
		r.logger.Warn().Err(err).
			Str(xglog.FieldEvent, "catalog.partial_accepted").
			Int(xglog.FieldItems, len(catalog)).
			Msg("using incomplete catalog for this run only")
		r.status.Sources[StageCatalog] = SourcePartial
		r.status.Partial = true
		return catalog, nil
	}

	if blob, ok := r.stale(cache.ArtifactChannels); ok {
		var c stalker.Catalog
		if uerr := json.Unmarshal(blob, &c); uerr == nil {
			r.status.Sources[StageCatalog] = SourceStale
			return c, nil
		}
	}
	return nil, err
}

func (r *run) playlist(catalog stalker.Catalog) ([]byte, error) {
	if doc, ok := r.cached(cache.ArtifactPlaylist, r.cfg.PlaylistTTL); ok {
		r.status.Sources[StagePlaylist] = SourceCache
		r.status.Cached = true
		return doc, nil
	}

	items := FromCatalog(catalog)
	doc := playlist.Render(items)
	metrics.RecordPlaylistEntries(len(items))
	r.status.Sources[StagePlaylist] = SourceRender

	// A playlist from an incomplete or stale catalog must not outlive this
	// run, or later runs would serve it as fresh.
	if r.status.Partial || r.status.Sources[StageCatalog] == SourceStale {
		return doc, nil
	}
	if err := r.persist(cache.ArtifactPlaylist, doc); err != nil {
		if r.cfg.Output == "" {
			return nil, fmt.Errorf("no playlist artifact could be written: %w", err)
		}
		return doc, nil
	}
	r.status.Cached = true
	r.logger.Info().
		Str(xglog.FieldEvent, "playlist.write").
		Str(xglog.FieldPath, r.status.PlaylistPath).
		Int("channels", len(items)).
		Msg("playlist written")
	return doc, nil
}

// FromCatalog maps channels onto playlist items in catalog order.
func FromCatalog(c stalker.Catalog) []playlist.Item {
	items := make([]playlist.Item, len(c))
	for i, ch := range c {
		items[i] = playlist.Item{Name: ch.Name, URL: ch.Cmd}
	}
	return items
}
