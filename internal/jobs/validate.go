// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package jobs

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ManuGH/stalker2m3u/internal/validate"
)

func validateConfig(cfg Config) error {
	v := validate.New()

	v.DurationRange("TokenTTL", cfg.TokenTTL, time.Second, 7*24*time.Hour)
	v.DurationRange("CatalogTTL", cfg.CatalogTTL, time.Second, 30*24*time.Hour)
	v.DurationRange("PlaylistTTL", cfg.PlaylistTTL, time.Second, 30*24*time.Hour)

	if cfg.Output != "" {
		v.Custom("Output", cfg.Output, func(any) error {
			_, err := outputPath(cfg.Output)
			return err
		})
	}

	return v.Err()
}

// outputPath cleans the playlist copy destination. Only .m3u and .m3u8 file
// names are accepted.
func outputPath(name string) (string, error) {
	cleaned := filepath.Clean(name)
	base := filepath.Base(cleaned)
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return "", fmt.Errorf("invalid output file name %q", name)
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".m3u", ".m3u8":
		return cleaned, nil
	default:
		return "", fmt.Errorf("output %q must end in .m3u or .m3u8", name)
	}
}
