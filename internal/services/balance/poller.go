// Package balance implements the client-side reconciliation loop that keeps
// a local balance mirror in sync with the server. The server value is always
// authoritative: the poller adopts whatever it reads and never writes back.
package balance

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Source reads the authoritative balance for a user.
type Source interface {
	Balance(ctx context.Context, userID string) (int, error)
}

// Event is emitted when a poll observes a balance increase.
type Event struct {
	UserID     string
	Previous   int
	Current    int
	ObservedAt time.Time
}

// Config tunes the adaptive poll cadence. While the balance is unchanged the
// interval grows geometrically from FastInterval toward MaxInterval; any
// observed change snaps it back to FastInterval.
type Config struct {
	FastInterval time.Duration
	MaxInterval  time.Duration
	Growth       float64
}

// DefaultConfig returns the stock cadence: 30s fast, backing off by 1.5x up
// to a 2 minute ceiling.
func DefaultConfig() Config {
	return Config{
		FastInterval: 30 * time.Second,
		MaxInterval:  2 * time.Minute,
		Growth:       1.5,
	}
}

// Poller periodically reconciles one user's local balance against a Source.
type Poller struct {
	source Source
	userID string
	cfg    Config
	log    *logrus.Entry

	mu       sync.Mutex
	balance  int
	interval time.Duration
	paused   bool
	kick     chan struct{}

	events chan Event
}

// NewPoller creates a poller seeded with the client's last known balance.
func NewPoller(source Source, userID string, seed int, cfg Config) *Poller {
	if source == nil {
		panic("source is required")
	}
	if cfg.FastInterval <= 0 {
		cfg.FastInterval = DefaultConfig().FastInterval
	}
	if cfg.MaxInterval < cfg.FastInterval {
		cfg.MaxInterval = cfg.FastInterval
	}
	if cfg.Growth <= 1 {
		cfg.Growth = DefaultConfig().Growth
	}
	return &Poller{
		source:   source,
		userID:   userID,
		cfg:      cfg,
		log:      logrus.WithFields(logrus.Fields{"component": "balance-poller", "user_id": userID}),
		balance:  seed,
		interval: cfg.FastInterval,
		kick:     make(chan struct{}, 1),
		events:   make(chan Event, 8),
	}
}

// Events delivers balance-increase events. Decreases and no-ops are adopted
// silently. The channel is closed when Run returns.
func (p *Poller) Events() <-chan Event {
	return p.events
}

// Balance returns the most recently reconciled value.
func (p *Poller) Balance() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balance
}

// Interval reports the current poll interval.
func (p *Poller) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

// Pause stops polling until Resume. In-flight polls complete normally.
func (p *Poller) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = true
}

// Resume restarts polling at the fast cadence and triggers an immediate
// poll, so a user returning to the app sees a fresh balance right away.
func (p *Poller) Resume() {
	p.mu.Lock()
	p.paused = false
	p.interval = p.cfg.FastInterval
	p.mu.Unlock()

	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// Run polls until ctx is cancelled. It performs one poll immediately on
// start.
func (p *Poller) Run(ctx context.Context) {
	defer close(p.events)

	p.poll(ctx)

	timer := time.NewTimer(p.Interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.kick:
			p.poll(ctx)
		case <-timer.C:
			p.poll(ctx)
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(p.Interval())
	}
}

// poll reads the server balance once and reconciles. Read failures keep the
// local value and the current cadence; the next tick retries.
func (p *Poller) poll(ctx context.Context) {
	p.mu.Lock()
	paused := p.paused
	p.mu.Unlock()
	if paused {
		return
	}

	current, err := p.source.Balance(ctx, p.userID)
	if err != nil {
		if ctx.Err() == nil {
			p.log.WithError(err).Warn("balance poll failed")
		}
		return
	}
	p.reconcile(current)
}

// reconcile adopts the server value and updates the cadence: a change resets
// to the fast interval, stability backs off geometrically.
func (p *Poller) reconcile(current int) {
	p.mu.Lock()
	previous := p.balance
	p.balance = current
	if current != previous {
		p.interval = p.cfg.FastInterval
	} else {
		p.interval = p.nextIntervalLocked()
	}
	p.mu.Unlock()

	if current > previous {
		ev := Event{
			UserID:     p.userID,
			Previous:   previous,
			Current:    current,
			ObservedAt: time.Now(),
		}
		select {
		case p.events <- ev:
		default:
			// A slow consumer loses intermediate events, never the balance.
			p.log.WithFields(logrus.Fields{"previous": previous, "current": current}).
				Warn("dropping balance event, consumer not keeping up")
		}
	}
}

func (p *Poller) nextIntervalLocked() time.Duration {
	next := time.Duration(float64(p.interval) * p.cfg.Growth)
	if next > p.cfg.MaxInterval {
		next = p.cfg.MaxInterval
	}
	return next
}
