package crawl

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/fwojciec/schemex"
)

// Default pause between consecutive targets of one worker.
const (
	DefaultMinDelay = 2 * time.Second
	DefaultMaxDelay = 5 * time.Second
)

// Pacer waits a uniformly random delay in [Min, Max] between targets.
// A Pacer is safe for concurrent use when its Int64N is.
type Pacer struct {
	Min time.Duration
	Max time.Duration

	// Sleep defaults to schemex.Sleep.
	Sleep schemex.SleepFunc

	// Int64N returns a random number in [0, n). Defaults to rand.Int64N.
	Int64N func(n int64) int64
}

// DefaultPacer returns a pacer waiting between 2 and 5 seconds.
func DefaultPacer() *Pacer {
	return &Pacer{Min: DefaultMinDelay, Max: DefaultMaxDelay}
}

// Delay returns the next pause.
func (p *Pacer) Delay() time.Duration {
	if p.Max <= p.Min {
		return max(p.Min, 0)
	}
	intn := p.Int64N
	if intn == nil {
		intn = rand.Int64N
	}
	return p.Min + time.Duration(intn(int64(p.Max-p.Min)+1))
}

// Wait sleeps for the next pause, returning early on cancellation.
func (p *Pacer) Wait(ctx context.Context) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = schemex.Sleep
	}
	return sleep(ctx, p.Delay())
}
