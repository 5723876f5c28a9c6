// Package progress plays the cosmetic progress animation shown while a
// prediction "runs". It has no relation to actual work.
package progress

import (
	"context"
	"math/rand/v2"
	"time"
)

// Page defaults.
const (
	DefaultInterval = 200 * time.Millisecond
	DefaultMaxStep  = 12.0
	DefaultSettle   = 500 * time.Millisecond
)

// Tick is one progress update. Percent is in [0, 100]; Done is set on the
// final tick, which always reports 100.
type Tick struct {
	Percent float64 `json:"percent"`
	Done    bool    `json:"done"`
}

// Simulator advances a percentage by a random step each interval until it
// reaches 100, then waits Settle before returning.
type Simulator struct {
	Interval time.Duration
	MaxStep  float64
	Settle   time.Duration
	Rand     *rand.Rand // nil uses the global source
}

// New returns a simulator with the given timings. Non-positive values fall
// back to the defaults.
func New(interval time.Duration, maxStep float64, settle time.Duration) *Simulator {
	s := &Simulator{Interval: interval, MaxStep: maxStep, Settle: settle}
	if s.Interval <= 0 {
		s.Interval = DefaultInterval
	}
	if s.MaxStep <= 0 {
		s.MaxStep = DefaultMaxStep
	}
	if s.Settle < 0 {
		s.Settle = DefaultSettle
	}
	return s
}

// Run reports every tick to report and returns nil once the final tick has
// been reported and the settle delay has elapsed. It returns ctx.Err() if the
// context ends first.
func (s *Simulator) Run(ctx context.Context, report func(Tick)) error {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	percent := 0.0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		percent += s.step()
		if percent >= 100 {
			report(Tick{Percent: 100, Done: true})
			break
		}
		report(Tick{Percent: percent})
	}

	if s.Settle <= 0 {
		return nil
	}
	timer := time.NewTimer(s.Settle)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Simulator) step() float64 {
	if s.Rand != nil {
		return s.Rand.Float64() * s.MaxStep
	}
	return rand.Float64() * s.MaxStep
}
