// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package stalker

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/ManuGH/stalker2m3u/internal/metrics"
	"golang.org/x/time/rate"
)

const (
	DefaultPacingMin = 600 * time.Millisecond
	DefaultPacingMax = 1300 * time.Millisecond
	DefaultMaxRPS    = 2.0
)

// Pacer delays the caller before each portal request.
type Pacer interface {
	Wait(ctx context.Context) (time.Duration, error)
}

// NoPacing never waits. Intended for tests and for portals that are known to
// tolerate bursts.
var NoPacing Pacer = noPacing{}

type noPacing struct{}

func (noPacing) Wait(ctx context.Context) (time.Duration, error) { return 0, ctx.Err() }

// JitterPacer sleeps for a uniformly random duration in [min, max] and, when
// maxRPS > 0, never lets requests exceed that rate.
type JitterPacer struct {
	min, max time.Duration
	limiter  *rate.Limiter

	rnd   func() float64
	sleep func(ctx context.Context, d time.Duration) error
}

// NewJitterPacer returns a pacer. A max below min is clamped to min.
func NewJitterPacer(min, max time.Duration, maxRPS float64) *JitterPacer {
	if min < 0 {
		min = 0
	}
	if max < min {
		max = min
	}
	p := &JitterPacer{
		min:   min,
		max:   max,
		rnd:   rand.Float64,
		sleep: sleepCtx,
	}
	if maxRPS > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(maxRPS), 1)
	}
	return p
}

// Wait blocks for the next delay and returns how long the jitter slept.
func (p *JitterPacer) Wait(ctx context.Context) (time.Duration, error) {
	d := p.next()
	if err := p.sleep(ctx, d); err != nil {
		return 0, err
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return d, err
		}
	}
	metrics.ObservePacingDelay(d)
	return d, nil
}

func (p *JitterPacer) next() time.Duration {
	span := p.max - p.min
	if span <= 0 {
		return p.min
	}
	return p.min + time.Duration(p.rnd()*float64(span))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
