// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package stalker

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
)

// RecordedRequest is a request seen by MockPortal.
type RecordedRequest struct {
	Path   string
	Action string
	Page   int
	Query  url.Values
	Header http.Header
}

type pageFault struct {
	status int
	body   string
}

type actionFault struct {
	remaining int
	status    int
}

// MockPortal is a configurable in-process portal for tests. It answers on
// any path, so custom endpoints work unchanged.
type MockPortal struct {
	*httptest.Server

	mu            sync.Mutex
	token         string
	handshakeBody string
	profileBody   string
	pages         [][]map[string]any
	maxPageItems  any
	totalItems    any
	pageFaults    map[int]pageFault
	actionFaults  map[string]*actionFault
	requests      []RecordedRequest
}

// NewMockPortal starts a portal that issues token "mock-token" and serves an
// empty catalog with max_page_items 14.
func NewMockPortal() *MockPortal {
	m := &MockPortal{
		token:        "mock-token",
		maxPageItems: DefaultMaxPageItems,
		pageFaults:   make(map[int]pageFault),
		actionFaults: make(map[string]*actionFault),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

// SetToken changes the token returned by the handshake.
func (m *MockPortal) SetToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

// SetHandshakeBody replaces the whole handshake response body.
func (m *MockPortal) SetHandshakeBody(body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handshakeBody = body
}

// SetProfileBody replaces the whole get_profile response body.
func (m *MockPortal) SetProfileBody(body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profileBody = body
}

// SetPages sets the channel records served per page, starting at page 1.
func (m *MockPortal) SetPages(pages ...[]map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages = pages
}

// SetPageSizes fills pages with generated channels "Channel N" whose cmd is
// "ffrt http://stream.local/N".
func (m *MockPortal) SetPageSizes(sizes ...int) {
	pages := make([][]map[string]any, len(sizes))
	n := 0
	for i, size := range sizes {
		pages[i] = make([]map[string]any, size)
		for j := range size {
			n++
			pages[i][j] = map[string]any{
				"id":     strconv.Itoa(n),
				"name":   fmt.Sprintf("Channel %d", n),
				"number": strconv.Itoa(n),
				"cmd":    fmt.Sprintf("ffrt http://stream.local/%d", n),
			}
		}
	}
	m.SetPages(pages...)
}

// SetTotalItems overrides the total_items value of every page. Pass nil to
// send the real channel count.
func (m *MockPortal) SetTotalItems(v any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalItems = v
}

// SetMaxPageItems sets the advertised page size. Pass nil to omit the field
// or a string to send it quoted.
func (m *MockPortal) SetMaxPageItems(v any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxPageItems = v
}

// FailPage makes every request for page fail. A zero status serves a
// malformed 200 response instead.
func (m *MockPortal) FailPage(page, status int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageFaults[page] = pageFault{status: status, body: body}
}

// SetFailures makes the next count requests for action fail with status.
func (m *MockPortal) SetFailures(action string, count, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actionFaults[action] = &actionFault{remaining: count, status: status}
}

// Requests returns the requests served so far.
func (m *MockPortal) Requests() []RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecordedRequest(nil), m.requests...)
}

// Count returns how many requests carried action.
func (m *MockPortal) Count(action string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.requests {
		if r.Action == action {
			n++
		}
	}
	return n
}

func (m *MockPortal) handle(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q := r.URL.Query()
	action := q.Get("action")
	page, _ := strconv.Atoi(q.Get("p"))
	m.requests = append(m.requests, RecordedRequest{
		Path:   r.URL.Path,
		Action: action,
		Page:   page,
		Query:  q,
		Header: r.Header.Clone(),
	})

	if f, ok := m.actionFaults[action]; ok && f.remaining > 0 {
		f.remaining--
		http.Error(w, "Service Unavailable", f.status)
		return
	}

	switch action {
	case ActionHandshake:
		if m.handshakeBody != "" {
			writeRaw(w, m.handshakeBody)
			return
		}
		writeJS(w, map[string]any{"token": m.token, "random": "5f0d1c"})
	case ActionProfile:
		if r.Header.Get("Authorization") != "Bearer "+m.token {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if m.profileBody != "" {
			writeRaw(w, m.profileBody)
			return
		}
		writeJS(w, map[string]any{"id": 42, "name": "mock", "status": 0})
	case ActionOrderedList:
		if r.Header.Get("Authorization") != "Bearer "+m.token {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if f, ok := m.pageFaults[page]; ok {
			if f.status == 0 {
				writeRaw(w, "<html>maintenance</html>")
				return
			}
			http.Error(w, f.body, f.status)
			return
		}
		data := []map[string]any{}
		if page >= 1 && page <= len(m.pages) {
			data = m.pages[page-1]
		}
		total := 0
		for _, p := range m.pages {
			total += len(p)
		}
		js := map[string]any{"data": data, "total_items": total}
		if m.totalItems != nil {
			js["total_items"] = m.totalItems
		}
		if m.maxPageItems != nil {
			js["max_page_items"] = m.maxPageItems
		}
		writeJS(w, js)
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
	}
}

func writeJS(w http.ResponseWriter, js any) {
	w.Header().Set("Content-Type", "text/javascript; charset=UTF-8")
	_ = json.NewEncoder(w).Encode(map[string]any{"js": js})
}

func writeRaw(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/javascript; charset=UTF-8")
	_, _ = w.Write([]byte(body))
}
