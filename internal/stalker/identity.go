// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package stalker

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// DefaultTimezone is sent when the caller does not supply one.
const DefaultTimezone = "Europe/Lisbon"

var labelPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Identity is the immutable description of one virtual set-top box session.
// It is created once at startup and handed to every component explicitly.
type Identity struct {
	Label     string // namespaces cache entries
	PortalURL string // portal base URL without trailing slash
	MAC       string // device MAC address, upper case
	Timezone  string
}

// NewIdentity normalises and validates the invocation inputs. An empty label
// is replaced by DeriveLabel over the remaining fields.
func NewIdentity(label, portal, mac, timezone string) (Identity, error) {
	portal = strings.TrimRight(strings.TrimSpace(portal), "/")
	mac = strings.ToUpper(strings.TrimSpace(mac))
	timezone = strings.TrimSpace(timezone)
	if timezone == "" {
		timezone = DefaultTimezone
	}

	u, err := url.Parse(portal)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return Identity{}, fmt.Errorf("stalker: invalid portal URL %q", portal)
	}
	if mac == "" {
		return Identity{}, fmt.Errorf("stalker: MAC address is required")
	}

	label = strings.TrimSpace(label)
	if label == "" {
		label = DeriveLabel(portal, mac, timezone)
	}
	if !ValidLabel(label) {
		return Identity{}, fmt.Errorf("stalker: invalid session label %q (allowed: letters, digits, '.', '_', '-')", label)
	}

	return Identity{
		Label:     label,
		PortalURL: portal,
		MAC:       mac,
		Timezone:  timezone,
	}, nil
}

// ValidLabel reports whether label is usable as a cache namespace.
func ValidLabel(label string) bool {
	return label != "." && label != ".." && labelPattern.MatchString(label)
}

// DeriveLabel computes a stable 16 hex character session key from the
// portal, the upper-cased MAC and the timezone, so the same device always
// maps onto the same cache entries.
//
// NewIdentity passes the normalized portal, without surrounding spaces or a
// trailing slash. Keys produced by the earlier Node/Python runner hashed the
// portal exactly as typed, so a portal entered as "http://host/c/" gets a
// different key here and its old cache entries are not found. Pass an
// explicit session label to reuse such a cache.
func DeriveLabel(portal, mac, timezone string) string {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	key := struct {
		Portal string `json:"portal"`
		MAC    string `json:"mac"`
		TZ     string `json:"tz"`
	}{
		Portal: portal,
		MAC:    strings.ToUpper(mac),
		TZ:     timezone,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(key) // cannot fail for plain strings
	sum := sha256.Sum256(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return hex.EncodeToString(sum[:])[:16]
}

// SafePortal returns the portal URL with user info removed, for logging.
func (id Identity) SafePortal() string {
	u, err := url.Parse(id.PortalURL)
	if err != nil {
		return "invalid-url-redacted"
	}
	u.User = nil
	return u.String()
}
