// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package stalker

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const testMAC = "00:1A:79:00:00:01"

func testIdentity(t *testing.T, portal string) Identity {
	t.Helper()
	id, err := NewIdentity("test", portal, testMAC, "Europe/Berlin")
	require.NoError(t, err)
	return id
}

// newTestClient returns an unpaced client against portal with fast retries.
func newTestClient(t *testing.T, portal *MockPortal, opts ...Option) *Client {
	t.Helper()
	base := []Option{
		WithPacer(NoPacing),
		WithRetryPolicy(RetryPolicy{
			MaxAttempts:     3,
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
		}),
		WithLogger(zerolog.Nop()),
	}
	return New(testIdentity(t, portal.URL), append(base, opts...)...)
}
