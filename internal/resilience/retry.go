// Package resilience retries calls to remote endpoints that fail transiently.
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Backoff controls how often and how fast Retry tries again.
type Backoff struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
	Jitter   float64 // fraction of the delay, 0 to 1
}

// DefaultBackoff is three attempts starting at half a second.
func DefaultBackoff() Backoff {
	return Backoff{
		Attempts: 3,
		Initial:  500 * time.Millisecond,
		Max:      10 * time.Second,
		Jitter:   0.2,
	}
}

// Retry calls fn until it succeeds, returns a non-transient error, the
// attempts run out, or ctx is done. op names the call in logs and errors.
func Retry(ctx context.Context, b Backoff, op string, fn func(context.Context) error) error {
	attempts := max(b.Attempts, 1)

	var err error
	for i := range attempts {
		if err = fn(ctx); err == nil {
			return nil
		}
		if !IsTransient(err) || i == attempts-1 {
			break
		}

		wait := b.delay(i)
		zap.L().Warn("resilience: retrying",
			zap.String("op", op),
			zap.Int("attempt", i+1),
			zap.Duration("wait", wait),
			zap.Error(err),
		)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return eris.Wrapf(ctx.Err(), "resilience: %s", op)
		case <-t.C:
		}
	}
	return eris.Wrapf(err, "resilience: %s", op)
}

// delay doubles from Initial per attempt, capped at Max, with jitter.
func (b Backoff) delay(attempt int) time.Duration {
	d := float64(b.Initial) * math.Pow(2, float64(attempt))
	if b.Max > 0 {
		d = math.Min(d, float64(b.Max))
	}
	if b.Jitter > 0 {
		d += d * b.Jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(max(d, 0))
}
