package alert

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Dispatcher forwards transition events to a Notifier with an anti-flap
// floor: after an alert for a component fires, further alerts for the same
// component are suppressed until minInterval has passed. A flapping
// component produces one alert per window instead of one per flip.
type Dispatcher struct {
	notifier    Notifier
	minInterval time.Duration

	mu   sync.Mutex
	last map[string]time.Time
}

// NewDispatcher creates a dispatcher over n.
func NewDispatcher(n Notifier, minInterval time.Duration) *Dispatcher {
	if minInterval < 0 {
		minInterval = 0
	}
	return &Dispatcher{
		notifier:    n,
		minInterval: minInterval,
		last:        make(map[string]time.Time),
	}
}

// Dispatch delivers ev unless an alert for the same component fired within
// the anti-flap window. Delivery failures are logged, never returned; a
// broken Slack hook must not take the watcher down with it.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	d.mu.Lock()
	if prev, ok := d.last[ev.Component]; ok && d.minInterval > 0 && time.Since(prev) < d.minInterval {
		d.mu.Unlock()
		slog.Debug("Alert suppressed: within anti-flap window", "component", ev.Component, "window", d.minInterval)
		return
	}
	d.last[ev.Component] = time.Now()
	d.mu.Unlock()

	if err := d.notifier.Notify(ctx, ev); err != nil {
		slog.Warn("Alert delivery failed", "component", ev.Component, "error", err)
	}
}
