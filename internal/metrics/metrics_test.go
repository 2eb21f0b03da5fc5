// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservePortalRequest(t *testing.T) {
	before := testutil.ToFloat64(portalRequestsTotal.WithLabelValues("handshake", "success"))
	ObservePortalRequest("handshake", "success", 120*time.Millisecond)
	after := testutil.ToFloat64(portalRequestsTotal.WithLabelValues("handshake", "success"))
	assert.Equal(t, before+1, after)
}

func TestRecordCacheWrite(t *testing.T) {
	okBefore := testutil.ToFloat64(cacheWritesTotal.WithLabelValues("token", "success"))
	failBefore := testutil.ToFloat64(cacheWritesTotal.WithLabelValues("token", "failure"))

	RecordCacheWrite("token", nil)
	RecordCacheWrite("token", errors.New("disk full"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(cacheWritesTotal.WithLabelValues("token", "success")))
	assert.Equal(t, failBefore+1, testutil.ToFloat64(cacheWritesTotal.WithLabelValues("token", "failure")))
}

func TestRecordCatalogChannels(t *testing.T) {
	RecordCatalogChannels(33)
	assert.Equal(t, float64(33), testutil.ToFloat64(catalogChannels))
}

func TestWriteTextfile(t *testing.T) {
	IncCatalogPage()
	path := filepath.Join(t.TempDir(), "stalker.prom")

	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "stalker_catalog_pages_fetched_total"))
}

func TestWriteTextfile_EmptyPathIsNoop(t *testing.T) {
	assert.NoError(t, WriteTextfile(""))
}
