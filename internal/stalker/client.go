// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package stalker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	xglog "github.com/ManuGH/stalker2m3u/internal/log"
	"github.com/ManuGH/stalker2m3u/internal/metrics"
	"github.com/ManuGH/stalker2m3u/internal/platform/httpx"
	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
)

// Portal actions.
const (
	ActionHandshake   = "handshake"
	ActionProfile     = "get_profile"
	ActionOrderedList = "get_ordered_list"
)

const (
	DefaultMaxPages = 1000
	maxResponseBody = 32 << 20
)

// State is the position of a client in the session sequence.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
	StateCatalogFetching
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateCatalogFetching:
		return "catalog_fetching"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// RetryPolicy controls retries of transient network failures.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:     3,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithPacer(p Pacer) Option {
	return func(c *Client) {
		if p != nil {
			c.pacer = p
		}
	}
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

func WithMaxPages(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// Client speaks the portal protocol for one session identity. It is meant
// for strictly sequential use by a single run.
type Client struct {
	id       Identity
	shaper   *Shaper
	endpoint string
	http     *http.Client
	pacer    Pacer
	retry    RetryPolicy
	maxPages int
	logger   zerolog.Logger

	mu    sync.Mutex
	state State
}

// New returns a client in StateUnauthenticated. Without options it paces
// requests, retries transient failures and uses a 10s request timeout.
func New(id Identity, opts ...Option) *Client {
	c := &Client{
		id:       id,
		endpoint: DefaultEndpoint,
		pacer:    NewJitterPacer(DefaultPacingMin, DefaultPacingMax, DefaultMaxRPS),
		retry:    DefaultRetryPolicy,
		maxPages: DefaultMaxPages,
		logger:   xglog.WithComponent("stalker"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = httpx.NewClient(httpx.DefaultTimeout)
	}
	c.shaper = NewShaper(id, c.endpoint)
	c.logger = c.logger.With().
		Str(xglog.FieldSession, id.Label).
		Str(xglog.FieldPortal, id.SafePortal()).
		Logger()
	return c
}

// Identity returns the session identity the client was built for.
func (c *Client) Identity() Identity { return c.id }

// State reports the current session state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) transition(to State) {
	c.mu.Lock()
	from := c.state
	c.state = to
	c.mu.Unlock()
	if from == to {
		return
	}
	c.logger.Debug().
		Str(xglog.FieldEvent, "portal.state").
		Str(xglog.FieldOldState, from.String()).
		Str(xglog.FieldNewState, to.String()).
		Msg("session state changed")
}

// Handshake obtains a fresh token. It may be called in any state and starts
// a new session sequence.
func (c *Client) Handshake(ctx context.Context) (string, error) {
	c.transition(StateUnauthenticated)

	params := url.Values{}
	params.Set("type", "stb")
	params.Set("action", ActionHandshake)

	var payload struct {
		Token string `json:"token"`
	}
	if err := c.call(ctx, ActionHandshake, params, "", &payload); err != nil {
		c.transition(StateFailed)
		return "", err
	}
	if payload.Token == "" {
		c.transition(StateFailed)
		return "", &ProtocolError{Action: ActionHandshake, Err: ErrMissingToken}
	}

	c.transition(StateAuthenticated)
	c.logger.Info().Str(xglog.FieldEvent, "portal.handshake.ok").Msg("handshake succeeded")
	return payload.Token, nil
}

// UseToken adopts a previously issued token without contacting the portal.
func (c *Client) UseToken(token string) error {
	if token == "" {
		return fmt.Errorf("stalker: empty token")
	}
	c.transition(StateAuthenticated)
	return nil
}

// profileParams describe a MAG544 box to the portal.
func profileParams() url.Values {
	p := url.Values{}
	p.Set("type", "stb")
	p.Set("action", ActionProfile)
	p.Set("hd", "1")
	p.Set("ver", "ImageDescription: 0.2.18-r14-pub-250; ImageDate: Fri Jan 15 15:20:44 EET 2016; PORTAL version: 5.6.6; API Version: JS API version: 328; STB API version: 134; Player Engine version: 0x566")
	p.Set("num_banks", "2")
	p.Set("sn", "022017J023063")
	p.Set("stb_type", "MAG544")
	p.Set("image_version", "218")
	p.Set("video_out", "hdmi")
	p.Set("device_id", "")
	p.Set("device_id2", "")
	p.Set("signature", "")
	p.Set("auth_second_step", "1")
	p.Set("hw_version", "1.7-BD-00")
	p.Set("not_valid_token", "0")
	return p
}

// Profile registers the device profile. Failures are logged and yield an
// empty profile; they never fail the session.
func (c *Client) Profile(ctx context.Context, token string) Profile {
	if c.State() == StateFailed {
		c.logger.Warn().Str(xglog.FieldEvent, "portal.profile.skipped").Msg("profile skipped, session failed")
		metrics.IncProfileFailure()
		return Profile{}
	}

	var p Profile
	if err := c.call(ctx, ActionProfile, profileParams(), token, &p); err != nil || p == nil {
		metrics.IncProfileFailure()
		c.logger.Warn().Err(err).Str(xglog.FieldEvent, "portal.profile.failed").Msg("profile request failed, continuing with empty profile")
		return Profile{}
	}
	c.logger.Debug().Str(xglog.FieldEvent, "portal.profile.ok").Int(xglog.FieldItems, len(p)).Msg("profile received")
	return p
}

type pagePayload struct {
	Data         []Channel `json:"data"`
	MaxPageItems flexInt    `json:"max_page_items"`
	TotalItems   lenientInt `json:"total_items"`
}

// FetchCatalogPage retrieves one page of the live channel list. Pages are
// numbered from 1.
func (c *Client) FetchCatalogPage(ctx context.Context, token string, page int) (Page, error) {
	params := url.Values{}
	params.Set("type", "itv")
	params.Set("action", ActionOrderedList)
	params.Set("genre", "0")
	params.Set("p", fmt.Sprint(page))

	var payload pagePayload
	if err := c.call(ctx, ActionOrderedList, params, token, &payload); err != nil {
		return Page{}, err
	}

	size := int(payload.MaxPageItems)
	if size <= 0 {
		size = DefaultMaxPageItems
	}
	items := payload.Data
	if items == nil {
		items = []Channel{}
	}
	return Page{Items: items, MaxPageItems: size, TotalItems: int(payload.TotalItems)}, nil
}

// call paces, issues the request and decodes the js payload into out,
// retrying transient network failures.
func (c *Client) call(ctx context.Context, action string, params url.Values, token string, out any) error {
	attempts := c.retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.NewExponentialBackOff()
	if c.retry.InitialInterval > 0 {
		b.InitialInterval = c.retry.InitialInterval
	}
	if c.retry.MaxInterval > 0 {
		b.MaxInterval = c.retry.MaxInterval
	}

	attempt := 0
	op := func() (struct{}, error) {
		attempt++
		if _, err := c.pacer.Wait(ctx); err != nil {
			return struct{}{}, backoff.Permanent(&NetworkError{Action: action, Err: err})
		}

		start := time.Now()
		body, err := c.fetch(ctx, action, params, token)
		if err != nil {
			metrics.ObservePortalRequest(action, "network_error", time.Since(start))
			var ne *NetworkError
			if errors.As(err, &ne) && ne.Retryable() && ctx.Err() == nil {
				return struct{}{}, err
			}
			return struct{}{}, backoff.Permanent(err)
		}

		if err := decodeJS(action, body, out); err != nil {
			metrics.ObservePortalRequest(action, "protocol_error", time.Since(start))
			return struct{}{}, backoff.Permanent(err)
		}
		metrics.ObservePortalRequest(action, "success", time.Since(start))
		c.logger.Debug().
			Str(xglog.FieldEvent, "portal.request.ok").
			Str(xglog.FieldAction, action).
			Int(xglog.FieldAttempt, attempt).
			Dur("duration", time.Since(start)).
			Msg("portal request completed")
		return struct{}{}, nil
	}

	notify := func(err error, next time.Duration) {
		metrics.IncPortalRetry(action)
		c.logger.Warn().Err(err).
			Str(xglog.FieldEvent, "portal.request.retry").
			Str(xglog.FieldAction, action).
			Int(xglog.FieldAttempt, attempt).
			Dur("backoff", next).
			Msg("transient portal error, retrying")
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithNotify(notify),
	)
	if err == nil {
		return nil
	}

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Err
	}
	var ne *NetworkError
	var pe *ProtocolError
	if !errors.As(err, &ne) && !errors.As(err, &pe) {
		err = &NetworkError{Action: action, Err: err}
	}
	return err
}

func (c *Client) fetch(ctx context.Context, action string, params url.Values, token string) ([]byte, error) {
	req, err := c.shaper.Build(ctx, params, token)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Action: action, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &NetworkError{Action: action, Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{Action: action, Status: resp.StatusCode, Body: truncateBody(body)}
	}
	return body, nil
}

// decodeJS unwraps the {"js": ...} envelope every portal response uses.
func decodeJS(action string, body []byte, out any) error {
	var env struct {
		JS json.RawMessage `json:"js"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return &ProtocolError{Action: action, Body: truncateBody(body), Err: err}
	}
	if len(env.JS) == 0 || string(env.JS) == "null" {
		return &ProtocolError{Action: action, Body: truncateBody(body), Err: ErrMissingPayload}
	}
	if err := json.Unmarshal(env.JS, out); err != nil {
		return &ProtocolError{Action: action, Body: truncateBody(body), Err: err}
	}
	return nil
}
