// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package stalker

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	// DefaultEndpoint is the API path below the portal URL.
	DefaultEndpoint = "portal.php"

	UserAgent    = "Mozilla/5.0 (QtEmbedded; U; Linux; C) AppleWebKit/533.3 (KHTML, like Gecko) MAG200 stbapp ver: 5 rev: 1812 Safari/533.3"
	DeviceHeader = "X-User-Agent"
	DeviceModel  = "Model: MAG544; Link: Ethernet"
	Language     = "en"
)

// Shaper builds portal requests that look like they come from a MAG set-top box.
type Shaper struct {
	id       Identity
	endpoint string
}

// NewShaper returns a shaper for id. An empty endpoint selects DefaultEndpoint.
func NewShaper(id Identity, endpoint string) *Shaper {
	endpoint = strings.Trim(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Shaper{id: id, endpoint: endpoint}
}

// URL returns the request URL for params with the JsHttpRequest marker appended.
func (s *Shaper) URL(params url.Values) string {
	q := make(url.Values, len(params)+1)
	for k, v := range params {
		q[k] = append([]string(nil), v...)
	}
	q.Set("JsHttpRequest", "1-xml")
	return s.id.PortalURL + "/" + s.endpoint + "?" + q.Encode()
}

// Build returns a GET request for params. The Authorization header is only
// set when token is non-empty.
func (s *Shaper) Build(ctx context.Context, params url.Values, token string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(params), nil)
	if err != nil {
		return nil, fmt.Errorf("build portal request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Referer", s.id.PortalURL+"/")
	req.Header.Set("Accept", "*/*")
	req.Header.Set(DeviceHeader, DeviceModel)
	req.Header.Set("Cookie", fmt.Sprintf("mac=%s; stb_lang=%s; timezone=%s", s.id.MAC, Language, s.id.Timezone))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}
