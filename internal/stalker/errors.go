// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package stalker

import (
	"errors"
	"fmt"
	"net/http"
)

// maxErrorBody bounds the response body kept on errors.
const maxErrorBody = 4 << 10

var (
	// Sentinel causes carried by ProtocolError.
	ErrMissingToken   = errors.New("handshake response carries no token")
	ErrMissingPayload = errors.New("response has no js payload")
	ErrTooManyPages   = errors.New("catalog exceeds page limit")

	// ErrSessionFailed is returned by protocol operations on a failed client.
	ErrSessionFailed = errors.New("stalker: session is in failed state")
)

// NetworkError reports a transport failure or a non-2xx response. Body
// holds the response body verbatim, truncated to 4 KiB.
type NetworkError struct {
	Action string
	Status int // 0 when no response was received
	Body   string
	Err    error
}

func (e *NetworkError) Error() string {
	msg := fmt.Sprintf("stalker: %s: network error", e.Action)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Retryable reports whether the request may succeed when repeated.
func (e *NetworkError) Retryable() bool {
	switch {
	case e.Status == 0:
		return true
	case e.Status >= 500:
		return true
	case e.Status == http.StatusRequestTimeout, e.Status == http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}

// ProtocolError reports a response that arrived but could not be understood.
type ProtocolError struct {
	Action string
	Body   string
	Err    error
}

func (e *ProtocolError) Error() string {
	msg := fmt.Sprintf("stalker: %s: protocol error: %v", e.Action, e.Err)
	if e.Body != "" {
		msg = fmt.Sprintf("%s (body: %s)", msg, e.Body)
	}
	return msg
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// PartialCatalogError reports that pagination stopped at Page after
// ItemsRetrieved channels had been collected.
type PartialCatalogError struct {
	ItemsRetrieved int
	Page           int
	Cause          error
}

func (e *PartialCatalogError) Error() string {
	return fmt.Sprintf("stalker: catalog incomplete at page %d (%d items retrieved): %v",
		e.Page, e.ItemsRetrieved, e.Cause)
}

func (e *PartialCatalogError) Unwrap() error { return e.Cause }

func truncateBody(b []byte) string {
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return string(b)
}
