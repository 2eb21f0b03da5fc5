// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package jobs

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOutputPath(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "tv.m3u", want: "tv.m3u"},
		{in: "out/../tv.M3U8", want: "tv.M3U8"},
		{in: "/srv/iptv/./list.m3u", want: filepath.Clean("/srv/iptv/list.m3u")},
		{in: "playlist.txt", wantErr: true},
		{in: "..", wantErr: true},
		{in: "/", wantErr: true},
		{in: "dir/", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := outputPath(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateConfig(t *testing.T) {
	ok := Config{TokenTTL: time.Hour, CatalogTTL: time.Hour, PlaylistTTL: time.Hour}
	assert.NoError(t, validateConfig(ok))

	bad := ok
	bad.PlaylistTTL = 0
	assert.Error(t, validateConfig(bad))

	bad = ok
	bad.Output = "list.json"
	assert.Error(t, validateConfig(bad))
}
