// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package stalker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pagesRequested(portal *MockPortal) []int {
	var pages []int
	for _, r := range portal.Requests() {
		if r.Action == ActionOrderedList {
			pages = append(pages, r.Page)
		}
	}
	return pages
}

func channelNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("Channel %d", i+1)
	}
	return names
}

func namesOf(c Catalog) []string {
	out := make([]string, len(c))
	for i, ch := range c {
		out[i] = ch.Name
	}
	return out
}

func TestFetchCatalog_ShortFinalPage(t *testing.T) {
	portal := NewMockPortal()
	defer portal.Close()
	portal.SetPageSizes(14, 14, 5)

	c := newTestClient(t, portal)
	require.NoError(t, c.UseToken("mock-token"))

	catalog, err := c.FetchCatalog(context.Background(), "mock-token")
	require.NoError(t, err)

	if diff := cmp.Diff(channelNames(33), namesOf(catalog)); diff != "" {
		t.Errorf("catalog order mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []int{1, 2, 3}, pagesRequested(portal))
	assert.Equal(t, StateReady, c.State())
}

func TestFetchCatalog_FullFinalPageCostsOneMoreRequest(t *testing.T) {
	portal := NewMockPortal()
	defer portal.Close()
	portal.SetPageSizes(14, 14)

	catalog, err := newTestClient(t, portal).FetchCatalog(context.Background(), "mock-token")
	require.NoError(t, err)
	assert.Len(t, catalog, 28)
	assert.Equal(t, []int{1, 2, 3}, pagesRequested(portal))
}

func TestFetchCatalog_EmptyFirstPage(t *testing.T) {
	portal := NewMockPortal()
	defer portal.Close()

	c := newTestClient(t, portal)
	catalog, err := c.FetchCatalog(context.Background(), "mock-token")
	require.NoError(t, err)
	assert.NotNil(t, catalog)
	assert.Empty(t, catalog)
	assert.Equal(t, []int{1}, pagesRequested(portal))
	assert.Equal(t, StateReady, c.State())
}

func TestFetchCatalog_DefaultPageSize(t *testing.T) {
	portal := NewMockPortal()
	defer portal.Close()
	portal.SetMaxPageItems(nil)
	portal.SetPageSizes(14, 3)

	catalog, err := newTestClient(t, portal).FetchCatalog(context.Background(), "mock-token")
	require.NoError(t, err)
	assert.Len(t, catalog, 17)
	assert.Equal(t, []int{1, 2}, pagesRequested(portal))
}

func TestFetchCatalog_SecondPageFails(t *testing.T) {
	portal := NewMockPortal()
	defer portal.Close()
	portal.SetPageSizes(14, 14, 5)
	portal.FailPage(2, http.StatusInternalServerError, "database is down")

	c := newTestClient(t, portal)
	catalog, err := c.FetchCatalog(context.Background(), "mock-token")

	var pce *PartialCatalogError
	require.True(t, errors.As(err, &pce), "want PartialCatalogError, got %v", err)
	assert.Equal(t, 14, pce.ItemsRetrieved)
	assert.Equal(t, 2, pce.Page)
	assert.Len(t, catalog, 14)

	var ne *NetworkError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, http.StatusInternalServerError, ne.Status)
	assert.Contains(t, ne.Body, "database is down")

	assert.Equal(t, []int{1, 2, 2, 2}, pagesRequested(portal), "page 2 retried, page 3 never requested")
	assert.Equal(t, StateFailed, c.State())
}

func TestFetchCatalog_FirstPageMalformed(t *testing.T) {
	portal := NewMockPortal()
	defer portal.Close()
	portal.SetPageSizes(14)
	portal.FailPage(1, 0, "")

	catalog, err := newTestClient(t, portal).FetchCatalog(context.Background(), "mock-token")

	var pce *PartialCatalogError
	require.True(t, errors.As(err, &pce))
	assert.Zero(t, pce.ItemsRetrieved)
	assert.Equal(t, 1, pce.Page)
	assert.Empty(t, catalog)

	var pe *ProtocolError
	assert.True(t, errors.As(err, &pe))
	assert.Equal(t, []int{1}, pagesRequested(portal))
}

func TestFetchCatalog_PageLimit(t *testing.T) {
	portal := NewMockPortal()
	defer portal.Close()
	portal.SetPageSizes(14, 14, 14)

	catalog, err := newTestClient(t, portal, WithMaxPages(2)).FetchCatalog(context.Background(), "mock-token")

	var pce *PartialCatalogError
	require.True(t, errors.As(err, &pce))
	assert.Equal(t, 3, pce.Page)
	assert.Equal(t, 28, pce.ItemsRetrieved)
	assert.Len(t, catalog, 28)
	assert.ErrorIs(t, err, ErrTooManyPages)
	assert.Equal(t, []int{1, 2}, pagesRequested(portal))
}

func TestFetchCatalog_FailedSession(t *testing.T) {
	portal := NewMockPortal()
	defer portal.Close()
	portal.SetHandshakeBody(`{"js":{}}`)

	c := newTestClient(t, portal)
	_, err := c.Handshake(context.Background())
	require.Error(t, err)

	catalog, err := c.FetchCatalog(context.Background(), "mock-token")
	assert.ErrorIs(t, err, ErrSessionFailed)
	assert.Empty(t, catalog)
	assert.Empty(t, pagesRequested(portal))
}

func TestFetchCatalog_PreservesExtraFields(t *testing.T) {
	portal := NewMockPortal()
	defer portal.Close()
	portal.SetPages([]map[string]any{
		{"id": "7", "name": "Canal Ñ", "cmd": "ffmpeg http://s/7", "logo": "n.png", "tv_genre_id": 3},
	})

	catalog, err := newTestClient(t, portal).FetchCatalog(context.Background(), "mock-token")
	require.NoError(t, err)
	require.Len(t, catalog, 1)

	var want Catalog
	require.NoError(t, json.Unmarshal([]byte(`[{"id":"7","name":"Canal Ñ","cmd":"ffmpeg http://s/7","logo":"n.png","tv_genre_id":3}]`), &want))
	if diff := cmp.Diff(want, catalog); diff != "" {
		t.Errorf("catalog mismatch (-want +got):\n%s", diff)
	}

	logo, ok := catalog[0].Field("logo")
	require.True(t, ok)
	assert.JSONEq(t, `"n.png"`, string(logo))
}

func TestFetchCatalog_CustomEndpoint(t *testing.T) {
	portal := NewMockPortal()
	defer portal.Close()
	portal.SetPageSizes(1)

	_, err := newTestClient(t, portal, WithEndpoint("stalker_portal/server/load.php")).
		FetchCatalog(context.Background(), "mock-token")
	require.NoError(t, err)
	assert.Equal(t, "/stalker_portal/server/load.php", portal.Requests()[0].Path)
}

func TestFetchCatalog_IgnoresMalformedTotal(t *testing.T) {
	for _, total := range []any{"n/a", json.Number("120.5"), map[string]any{"x": 1}} {
		t.Run(fmt.Sprint(total), func(t *testing.T) {
			portal := NewMockPortal()
			defer portal.Close()
			portal.SetPageSizes(14, 2)
			portal.SetTotalItems(total)

			c := newTestClient(t, portal)
			require.NoError(t, c.UseToken("mock-token"))

			catalog, err := c.FetchCatalog(context.Background(), "mock-token")
			require.NoError(t, err)
			assert.Len(t, catalog, 16)
			assert.Equal(t, []int{1, 2}, pagesRequested(portal))
		})
	}
}

func TestFetchCatalog_IntegralFloatPageSize(t *testing.T) {
	portal := NewMockPortal()
	defer portal.Close()
	portal.SetPageSizes(14, 5)
	portal.SetMaxPageItems(json.Number("14.0"))
	portal.SetTotalItems(json.Number("19.0"))

	c := newTestClient(t, portal)
	require.NoError(t, c.UseToken("mock-token"))

	catalog, err := c.FetchCatalog(context.Background(), "mock-token")
	require.NoError(t, err)
	assert.Len(t, catalog, 19)
	assert.Equal(t, []int{1, 2}, pagesRequested(portal))
}
