package shared

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	backoffDelayCap  = 120 * time.Second
	backoffJitterCap = 10 * time.Second
)

// ExponentialBackoff schedules retries for one operation with capped,
// jittered delays. Reset after a success to reuse the scheduler.
type ExponentialBackoff struct {
	maxRetries int
	baseDelay  time.Duration
	attempt    int

	mutex sync.Mutex
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExponentialBackoff creates a backoff scheduler.
func NewExponentialBackoff(maxRetries int, baseDelay time.Duration) *ExponentialBackoff {
	return &ExponentialBackoff{
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		sleep:      sleepContext,
	}
}

// GetDelay computes the delay for the current attempt:
// min(120s, 2^attempt * base) plus uniform jitter up to min(10s, 30% of the
// delay). The cap and proportional jitter prevent unbounded waits and
// synchronized retry storms.
func (b *ExponentialBackoff) GetDelay() time.Duration {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.delayLocked()
}

func (b *ExponentialBackoff) delayLocked() time.Duration {
	delay := time.Duration(math.Pow(2, float64(b.attempt)) * float64(b.baseDelay))
	if delay > backoffDelayCap || delay <= 0 {
		delay = backoffDelayCap
	}

	jitterMax := time.Duration(float64(delay) * 0.3)
	if jitterMax > backoffJitterCap {
		jitterMax = backoffJitterCap
	}
	if jitterMax > 0 {
		delay += time.Duration(rand.Int63n(int64(jitterMax)))
	}
	return delay
}

// Wait sleeps for the current attempt's delay and advances the attempt
// counter. Cancellable through ctx.
func (b *ExponentialBackoff) Wait(ctx context.Context) error {
	b.mutex.Lock()
	delay := b.delayLocked()
	attempt := b.attempt
	b.attempt++
	maxRetries := b.maxRetries
	b.mutex.Unlock()

	logrus.WithFields(logrus.Fields{
		"component": "ExponentialBackoff",
		"delay":     delay,
		"attempt":   attempt + 1,
		"max":       maxRetries,
	}).Debug("Backing off before retry")

	return b.sleep(ctx, delay)
}

// ShouldRetry reports whether another attempt is allowed.
func (b *ExponentialBackoff) ShouldRetry() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.attempt < b.maxRetries
}

// Reset zeroes the attempt counter after a success.
func (b *ExponentialBackoff) Reset() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.attempt = 0
}

// Attempt returns the number of waits performed since the last reset.
func (b *ExponentialBackoff) Attempt() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.attempt
}
