package httpapi

import (
	"context"
	"strconv"
	"sync"
	"time"

	"asis-server/internal/infrastructure/config"
)

// ResponseDelay holds the artificial delay applied before each document is
// written. It can be changed at runtime through the settings endpoint.
type ResponseDelay struct {
	mu    sync.RWMutex
	fixed int
	min   int
	max   int
}

func NewResponseDelay(cfg config.Config) *ResponseDelay {
	return &ResponseDelay{fixed: cfg.ResponseDelayMs, min: cfg.ResponseDelayMinMs, max: cfg.ResponseDelayMaxMs}
}

// Set parses v as milliseconds or a "min-max" range. An empty value or "0"
// disables the delay.
func (d *ResponseDelay) Set(v string) error {
	fixed, min, max, err := config.ParseDelay(v)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.fixed, d.min, d.max = fixed, min, max
	d.mu.Unlock()
	return nil
}

// String returns the delay in the form accepted by Set, or "" when off.
func (d *ResponseDelay) String() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	switch {
	case d.min > 0 && d.max > 0:
		return strconv.Itoa(d.min) + "-" + strconv.Itoa(d.max)
	case d.fixed > 0:
		return strconv.Itoa(d.fixed)
	default:
		return ""
	}
}

func (d *ResponseDelay) duration() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.min > 0 && d.max > 0 {
		delta := d.max - d.min
		if delta < 0 {
			delta = 0
		}
		// time based jitter is enough for a test fixture server
		n := time.Now().UnixNano()
		rnd := int(n % int64(delta+1))
		return time.Duration(d.min+rnd) * time.Millisecond
	}
	return time.Duration(d.fixed) * time.Millisecond
}

// Sleep waits for the configured delay or until ctx is done.
func (d *ResponseDelay) Sleep(ctx context.Context) {
	wait := d.duration()
	if wait <= 0 {
		return
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
