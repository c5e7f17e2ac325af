package shared

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	maxPressureLevel   = 5
	pressureStep       = 0.5
	pressureDecayAfter = 5 * time.Minute
)

// RequestDelayer paces outgoing requests with adaptive delays. Rate-limit
// signals raise an internal pressure level that scales the delay window;
// calm periods decay pressure back toward the baseline one level at a time.
type RequestDelayer struct {
	baseMinDelay time.Duration
	baseMaxDelay time.Duration
	minDelay     time.Duration
	maxDelay     time.Duration

	pressureLevel    int
	lastPressureTime time.Time
	lastRequestTime  time.Time

	mutex sync.Mutex
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRequestDelayer creates a delayer with the given baseline delay window.
func NewRequestDelayer(minDelay, maxDelay time.Duration) *RequestDelayer {
	return &RequestDelayer{
		baseMinDelay: minDelay,
		baseMaxDelay: maxDelay,
		minDelay:     minDelay,
		maxDelay:     maxDelay,
		now:          time.Now,
		sleep:        sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NotifyPressure records a rate-limit signal. Each level adds 50% to the
// baseline window, capped at level 5.
func (d *RequestDelayer) NotifyPressure() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.pressureLevel < maxPressureLevel {
		d.pressureLevel++
	}
	d.lastPressureTime = d.now()
	d.recomputeDelays()

	logrus.WithFields(logrus.Fields{
		"component":      "RequestDelayer",
		"pressure_level": d.pressureLevel,
		"min_delay":      d.minDelay,
		"max_delay":      d.maxDelay,
	}).Warn("Rate-limit pressure increased")
}

// recomputeDelays derives the active window from the baseline and pressure.
// Caller must hold the mutex.
func (d *RequestDelayer) recomputeDelays() {
	multiplier := 1.0 + pressureStep*float64(d.pressureLevel)
	d.minDelay = time.Duration(float64(d.baseMinDelay) * multiplier)
	d.maxDelay = time.Duration(float64(d.baseMaxDelay) * multiplier)
}

// maybeDecayPressure drops one pressure level after five calm minutes.
// Caller must hold the mutex.
func (d *RequestDelayer) maybeDecayPressure() {
	if d.pressureLevel == 0 || d.lastPressureTime.IsZero() {
		return
	}
	if d.now().Sub(d.lastPressureTime) > pressureDecayAfter {
		d.pressureLevel--
		d.recomputeDelays()
		d.lastPressureTime = d.now()

		logrus.WithFields(logrus.Fields{
			"component":      "RequestDelayer",
			"pressure_level": d.pressureLevel,
		}).Debug("Rate-limit pressure decayed")
	}
}

// Wait blocks until the pacing policy allows the next request. The sleep is
// a uniformly random duration inside the active delay window and is
// cancellable through ctx.
func (d *RequestDelayer) Wait(ctx context.Context) error {
	d.mutex.Lock()
	d.maybeDecayPressure()

	elapsed := d.now().Sub(d.lastRequestTime)
	var delay time.Duration
	if !d.lastRequestTime.IsZero() && elapsed < d.minDelay {
		window := d.maxDelay - d.minDelay
		delay = d.minDelay
		if window > 0 {
			delay += time.Duration(rand.Int63n(int64(window)))
		}
	}
	pressure := d.pressureLevel
	d.mutex.Unlock()

	if delay > 0 {
		logrus.WithFields(logrus.Fields{
			"component":      "RequestDelayer",
			"delay":          delay,
			"pressure_level": pressure,
		}).Debug("Enforcing adaptive request delay")

		if err := d.sleep(ctx, delay); err != nil {
			return err
		}
	}

	d.mutex.Lock()
	d.lastRequestTime = d.now()
	d.mutex.Unlock()
	return nil
}

// MinDelay returns the currently active minimum delay.
func (d *RequestDelayer) MinDelay() time.Duration {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.minDelay
}

// MaxDelay returns the currently active maximum delay.
func (d *RequestDelayer) MaxDelay() time.Duration {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.maxDelay
}

// PressureLevel returns the current pressure level (0 when calm).
func (d *RequestDelayer) PressureLevel() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.pressureLevel
}
