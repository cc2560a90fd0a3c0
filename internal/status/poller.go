package status

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ares-console/ares/internal/api"
)

// CheckFunc probes one component and returns the round-trip latency.
type CheckFunc func(ctx context.Context) (time.Duration, error)

// Prefs persists the auto-polling preference across console runs.
// *store.Store satisfies it.
type Prefs interface {
	AutoPoll(component string) (enabled bool, ok bool)
	SetAutoPoll(component string, enabled bool) error
}

// Status is the last known state of one monitored component.
type Status struct {
	Connected bool          `json:"connected"`
	Latency   time.Duration `json:"latency"` // valid when Connected
	Checking  bool          `json:"checking"`
	Err       string        `json:"error,omitempty"`
	Auto      bool          `json:"auto"` // persisted preference, default true
	CheckedAt time.Time     `json:"checked_at"`
}

// Poller runs periodic health checks for a single component. Every completed
// check fully replaces the status; nothing from the previous result is
// carried over except the auto preference.
type Poller struct {
	component string
	check     CheckFunc
	interval  time.Duration
	prefs     Prefs

	// OnTransition fires after a completed check flips Connected. The very
	// first check only establishes a baseline and never fires it. Optional;
	// must be set before Run.
	OnTransition func(from, to Status)
	// Recorder receives every completed check. Optional; must be set before Run.
	Recorder func(component string, s Status)

	guard *Semaphore
	reset chan struct{}

	mu     sync.Mutex
	status Status
}

// New creates a poller for one component. The auto preference is loaded from
// prefs; components never toggled before default to enabled.
func New(component string, check CheckFunc, interval time.Duration, prefs Prefs) *Poller {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	auto := true
	if prefs != nil {
		if enabled, ok := prefs.AutoPoll(component); ok {
			auto = enabled
		}
	}
	return &Poller{
		component: component,
		check:     check,
		interval:  interval,
		prefs:     prefs,
		guard:     NewSemaphore(1),
		reset:     make(chan struct{}, 1),
		status:    Status{Auto: auto},
	}
}

// Component returns the monitored component name.
func (p *Poller) Component() string { return p.component }

// Interval returns the scheduled check interval.
func (p *Poller) Interval() time.Duration { return p.interval }

// Snapshot returns a copy of the current status.
func (p *Poller) Snapshot() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Auto reports whether scheduled checks are enabled.
func (p *Poller) Auto() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status.Auto
}

// Run performs one immediate check, then services the schedule until ctx is
// cancelled. There is only ever one ticker: while auto-polling is disabled
// its ticks are discarded, so a toggle can never race a stale timer.
func (p *Poller) Run(ctx context.Context) error {
	slog.Info("Status poller started", "component", p.component, "interval", p.interval, "auto", p.Auto())
	p.runCheck(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Status poller stopped", "component", p.component)
			return ctx.Err()
		case <-p.reset:
			ticker.Reset(p.interval)
		case <-ticker.C:
			if !p.Auto() {
				continue
			}
			p.runCheck(ctx)
		}
	}
}

// CheckNow runs one manual check regardless of the auto preference. It
// reports false without checking when another check is already in flight.
func (p *Poller) CheckNow(ctx context.Context) bool {
	return p.runCheck(ctx)
}

// SetAuto persists the auto-polling preference and reschedules: disabling
// stops future scheduled checks without touching the last known state,
// enabling restarts the interval from now. Re-enabling while already
// enabled is a no-op. The preference is persisted first; on persist failure
// the running state is left unchanged.
func (p *Poller) SetAuto(enabled bool) error {
	if p.prefs != nil {
		if err := p.prefs.SetAutoPoll(p.component, enabled); err != nil {
			return err
		}
	}

	p.mu.Lock()
	was := p.status.Auto
	p.status.Auto = enabled
	p.mu.Unlock()

	if enabled && !was {
		select {
		case p.reset <- struct{}{}:
		default:
		}
	}
	slog.Debug("Status auto-polling toggled", "component", p.component, "enabled", enabled)
	return nil
}

// runCheck performs a single guarded check and swaps in the new status.
// Returns false when a check was already in flight.
func (p *Poller) runCheck(ctx context.Context) bool {
	if !p.guard.TryAcquire() {
		slog.Debug("Status check skipped: already in flight", "component", p.component)
		return false
	}
	defer p.guard.Release()

	p.mu.Lock()
	prev := p.status
	p.status.Checking = true
	p.mu.Unlock()

	latency, err := p.check(ctx)

	next := Status{CheckedAt: time.Now().UTC()}
	if err != nil {
		next.Err = api.Describe(err)
		if next.Err == "" {
			next.Err = "check failed"
		}
		slog.Debug("Status check failed", "component", p.component, "error", next.Err)
	} else {
		next.Connected = true
		if latency > 0 {
			next.Latency = latency
		}
	}

	p.mu.Lock()
	next.Auto = p.status.Auto
	p.status = next
	p.mu.Unlock()

	if p.Recorder != nil {
		p.Recorder(p.component, next)
	}
	if p.OnTransition != nil && !prev.CheckedAt.IsZero() && prev.Connected != next.Connected {
		p.OnTransition(prev, next)
	}
	return true
}
