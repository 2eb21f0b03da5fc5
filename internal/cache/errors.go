// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cache

import (
	"errors"
	"fmt"
)

// ErrInvalidKey is returned for keys that would escape the session namespace.
var ErrInvalidKey = errors.New("cache: invalid key")

// CacheIOError reports a filesystem failure of the cache store. A missing
// entry is never a CacheIOError; it is reported as a plain miss.
type CacheIOError struct {
	Op   string // mkdir|stat|read|write
	Key  string
	Path string
	Err  error
}

func (e *CacheIOError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("cache: %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("cache: %s %q (%s): %v", e.Op, e.Key, e.Path, e.Err)
}

func (e *CacheIOError) Unwrap() error {
	return e.Err
}
