package ratelimiter

import (
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

var _ Limiter = &Gate{}

// fixed window gate: at most `capacity` calls admitted per `window`
//   - keeps a counter of permits left in the window, all ops under one mutex
//   - on acquire: if there are permits, take one; if not, refuse (never waits)
//   - on release: the call is over; its permit stays spent until the window ends,
//     so fast sequential callers still get only `capacity` calls per window
//   - ticker refills the counter to full once per window, independent of callers
type Gate struct {
	mu sync.Mutex
	// refill interval
	window time.Duration
	// num of permits per window
	capacity int
	// permits left in current window
	available int
	// acquired and not yet released, across windows
	outstanding int

	logger hclog.Logger
	// do not flood log on misbehaving callers
	warnSometimes *rate.Sometimes

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

type GateOption func(*Gate)

func WithLogger(logger hclog.Logger) GateOption {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// window length and num of permits per window; starts the refill ticker
func NewGate(window time.Duration, capacity int, opts ...GateOption) (*Gate, error) {
	if capacity <= 0 {
		return nil, errors.Wrapf(ErrConfiguration, "capacity must be positive, got %d", capacity)
	}
	if window <= 0 {
		return nil, errors.Wrapf(ErrConfiguration, "window must be positive, got %s", window)
	}
	g := &Gate{
		window:        window,
		capacity:      capacity,
		available:     capacity,
		logger:        hclog.NewNullLogger(),
		warnSometimes: &rate.Sometimes{Interval: time.Second},
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	go g.run()
	return g, nil
}

func (g *Gate) run() {
	defer close(g.done)
	t := time.NewTicker(g.window)
	defer t.Stop()
	for {
		select {
		case <-g.stop:
			return
		case <-t.C:
			g.replenish()
		}
	}
}

// claim one permit without blocking
func (g *Gate) TryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.available <= 0 {
		return false
	}
	g.available--
	g.outstanding++
	return true
}

// end of the call holding a permit; call exactly once per successful TryAcquire.
// The window budget is only restored by the refill
func (g *Gate) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.outstanding <= 0 {
		// nothing was acquired: caller bug, keep the counter sane
		g.warnSometimes.Do(func() {
			g.logger.Warn("release without matching acquire, ignored",
				"available", g.available, "capacity", g.capacity)
		})
		return
	}
	g.outstanding--
}

// refill to full capacity; driven by the ticker
func (g *Gate) replenish() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.available != g.capacity {
		g.logger.Trace("window refill", "restored", g.capacity-g.available)
	}
	g.available = g.capacity
}

func (g *Gate) Available() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.available
}

// permits acquired and not yet released
func (g *Gate) Outstanding() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.outstanding
}

func (g *Gate) Capacity() int { return g.capacity }

func (g *Gate) Window() time.Duration { return g.window }

// stop the refill ticker; safe to call more than once
func (g *Gate) Close() {
	g.stopOnce.Do(func() {
		close(g.stop)
	})
	<-g.done
}
