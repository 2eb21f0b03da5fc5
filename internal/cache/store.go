// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package cache provides a flat, session scoped file store whose entries are
// gated by a time-to-live evaluated against the file modification time.
package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/stalker2m3u/internal/log"
	"github.com/ManuGH/stalker2m3u/internal/metrics"
)

// Artifact names stored per session.
const (
	ArtifactToken    = "token"
	ArtifactChannels = "channels"
	ArtifactPlaylist = "m3u.m3u"
)

// Default time-to-live per artifact.
const (
	DefaultTokenTTL    = time.Hour
	DefaultCatalogTTL  = 6 * time.Hour
	DefaultPlaylistTTL = 6 * time.Hour
)

const (
	dirPerm  = 0o750
	filePerm = 0o644
)

// FileStore reads and writes named blobs under root, namespaced by a
// session label: key k of session s lives at <root>/<s>_<k>.
//
// Stale entries are never deleted; they are ignored by Read and replaced by
// the next Write. The store assumes a single writer per session.
type FileStore struct {
	root    string
	label   string
	now     func() time.Time
	logger  zerolog.Logger
	dirDone bool
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithClock overrides the time source used for TTL evaluation.
func WithClock(now func() time.Time) Option {
	return func(s *FileStore) { s.now = now }
}

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *FileStore) { s.logger = l }
}

// New returns a store for one session. The root directory is created lazily
// on first use.
func New(root, label string, opts ...Option) (*FileStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("cache: root directory must not be empty")
	}
	if !validName(label) {
		return nil, fmt.Errorf("cache: invalid session label %q", label)
	}
	s := &FileStore{
		root:   filepath.Clean(root),
		label:  label,
		now:    time.Now,
		logger: xglog.WithComponent("cache"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Root returns the cache root directory.
func (s *FileStore) Root() string { return s.root }

// Label returns the session label the store is scoped to.
func (s *FileStore) Label() string { return s.label }

// Path returns the file backing key.
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.root, s.label+"_"+key)
}

// Read returns the blob stored under key if it was written less than ttl
// ago. An absent or expired entry yields (nil, false, nil); an age equal to
// ttl counts as expired.
func (s *FileStore) Read(key string, ttl time.Duration) ([]byte, bool, error) {
	data, written, ok, err := s.read(key)
	if err != nil {
		metrics.RecordCacheLookup(key, "error")
		return nil, false, err
	}
	if !ok {
		metrics.RecordCacheLookup(key, "miss")
		s.logger.Debug().Str(xglog.FieldEvent, "cache.miss").Str(xglog.FieldArtifact, key).Msg("no cached entry")
		return nil, false, nil
	}

	age := s.now().Sub(written)
	if age >= ttl {
		metrics.RecordCacheLookup(key, "expired")
		s.logger.Debug().
			Str(xglog.FieldEvent, "cache.expired").
			Str(xglog.FieldArtifact, key).
			Dur(xglog.FieldAge, age).
			Dur("ttl", ttl).
			Msg("cached entry expired")
		return nil, false, nil
	}

	metrics.RecordCacheLookup(key, "hit")
	s.logger.Debug().
		Str(xglog.FieldEvent, "cache.hit").
		Str(xglog.FieldArtifact, key).
		Dur(xglog.FieldAge, age).
		Msg("cache hit")
	return data, true, nil
}

// ReadStale returns the blob stored under key regardless of its age, together
// with its last write time. It backs degraded-mode fallbacks.
func (s *FileStore) ReadStale(key string) ([]byte, time.Time, bool, error) {
	data, written, ok, err := s.read(key)
	if err != nil {
		metrics.RecordCacheLookup(key, "error")
		return nil, time.Time{}, false, err
	}
	if ok {
		metrics.RecordCacheLookup(key, "stale")
	}
	return data, written, ok, nil
}

// Write atomically replaces the blob stored under key.
func (s *FileStore) Write(key string, blob []byte) error {
	err := s.write(key, blob)
	metrics.RecordCacheWrite(key, err)
	if err != nil {
		return err
	}
	s.logger.Debug().
		Str(xglog.FieldEvent, "cache.write").
		Str(xglog.FieldArtifact, key).
		Int("bytes", len(blob)).
		Msg("cache entry written")
	return nil
}

func (s *FileStore) read(key string) ([]byte, time.Time, bool, error) {
	if !validName(key) {
		return nil, time.Time{}, false, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if err := s.ensureDir(); err != nil {
		return nil, time.Time{}, false, err
	}

	path := s.Path(key)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, time.Time{}, false, nil
		}
		return nil, time.Time{}, false, &CacheIOError{Op: "stat", Key: key, Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, time.Time{}, false, &CacheIOError{Op: "stat", Key: key, Path: path, Err: errors.New("is a directory")}
	}

	// #nosec G304 -- path is confined to the cache root by validName
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, time.Time{}, false, &CacheIOError{Op: "read", Key: key, Path: path, Err: err}
	}
	return data, info.ModTime(), true, nil
}

func (s *FileStore) write(key string, blob []byte) error {
	if !validName(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if err := s.ensureDir(); err != nil {
		return err
	}
	path := s.Path(key)
	// renameio handles temp file creation, fsync and the atomic rename, so a
	// concurrent reader never observes a half written token or catalog.
	if err := renameio.WriteFile(path, blob, filePerm); err != nil {
		return &CacheIOError{Op: "write", Key: key, Path: path, Err: err}
	}
	return nil
}

func (s *FileStore) ensureDir() error {
	if s.dirDone {
		return nil
	}
	if err := os.MkdirAll(s.root, dirPerm); err != nil {
		return &CacheIOError{Op: "mkdir", Path: s.root, Err: err}
	}
	s.dirDone = true
	return nil
}

func validName(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, `/\`+"\x00")
}
