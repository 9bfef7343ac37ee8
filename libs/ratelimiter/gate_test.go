package ratelimiter

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// long enough for the ticker to never fire during a test
const noRefill = time.Hour

func newTestGate(t *testing.T, window time.Duration, capacity int) *Gate {
	t.Helper()
	g, err := NewGate(window, capacity)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(g.Close)
	return g
}

func TestNewGate_RejectsBadConfig(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name     string
		window   time.Duration
		capacity int
	}{
		{"zero capacity", time.Second, 0},
		{"negative capacity", time.Second, -3},
		{"zero window", 0, 5},
		{"negative window", -time.Second, 5},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			g, err := NewGate(tc.window, tc.capacity)
			if err == nil {
				g.Close()
				t.Fatal("got no error for invalid config")
			}
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("want ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestGate_TryAcquireUpToCapacity(t *testing.T) {
	t.Parallel()
	g := newTestGate(t, noRefill, 3)
	for i := 0; i < 3; i++ {
		if !g.TryAcquire() {
			t.Fatalf("acquire %d refused", i+1)
		}
	}
	if g.TryAcquire() {
		t.Fatal("acquire over capacity granted")
	}
	if got := g.Available(); got != 0 {
		t.Errorf("available: want 0, got %d", got)
	}
	// refused acquire has no side effect
	if g.TryAcquire() {
		t.Fatal("second acquire over capacity granted")
	}
	if got := g.Available(); got != 0 {
		t.Errorf("available after refusals: want 0, got %d", got)
	}
}

func TestGate_ReleaseKeepsWindowBudgetSpent(t *testing.T) {
	t.Parallel()
	g := newTestGate(t, noRefill, 2)
	for i := 0; i < 2; i++ {
		if !g.TryAcquire() {
			t.Fatalf("acquire %d refused", i+1)
		}
		g.Release()
	}
	if g.TryAcquire() {
		t.Fatal("third acquire in one window granted after releases")
	}
	if got := g.Outstanding(); got != 0 {
		t.Errorf("outstanding: want 0, got %d", got)
	}
	g.replenish()
	if !g.TryAcquire() {
		t.Fatal("acquire after refill refused")
	}
}

func TestGate_SpuriousReleaseIsIgnored(t *testing.T) {
	t.Parallel()
	g := newTestGate(t, noRefill, 2)
	for i := 0; i < 5; i++ {
		g.Release()
	}
	if got := g.Available(); got != 2 {
		t.Errorf("available: want 2, got %d", got)
	}
	g.TryAcquire()
	g.Release()
	g.Release()
	if got := g.Available(); got != 1 {
		t.Errorf("available after extra release: want 1, got %d", got)
	}
	if got := g.Outstanding(); got != 0 {
		t.Errorf("outstanding after extra release: want 0, got %d", got)
	}
}

func TestGate_ReleaseAfterRefill(t *testing.T) {
	t.Parallel()
	g := newTestGate(t, noRefill, 2)
	g.TryAcquire()
	g.TryAcquire()
	g.replenish()
	g.Release()
	g.Release()
	if got := g.Available(); got != 2 {
		t.Errorf("available: want 2, got %d", got)
	}
	if got := g.Outstanding(); got != 0 {
		t.Errorf("outstanding: want 0, got %d", got)
	}
}

func TestGate_RefillsAfterWindow(t *testing.T) {
	t.Parallel()
	window := 20 * time.Millisecond
	g := newTestGate(t, window, 4)
	for i := 0; i < 4; i++ {
		g.TryAcquire()
	}
	deadline := time.Now().Add(50 * window)
	for g.Available() != 4 {
		if time.Now().After(deadline) {
			t.Fatalf("not refilled after %s, available %d", 50*window, g.Available())
		}
		time.Sleep(window / 4)
	}
	// idle windows never overshoot
	time.Sleep(3 * window)
	if got := g.Available(); got != 4 {
		t.Errorf("available after idle windows: want 4, got %d", got)
	}
}

func TestGate_CloseIsIdempotent(t *testing.T) {
	t.Parallel()
	g, err := NewGate(time.Millisecond, 1)
	if err != nil {
		t.Fatal(err)
	}
	g.Close()
	g.Close()
}

// N concurrent acquires against capacity C < N: exactly C granted, and the
// number of holders never goes over C
func TestGate_ConcurrentAcquireNeverOvergrants(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		capacity := rapid.IntRange(1, 32).Draw(rt, "capacity")
		callers := rapid.IntRange(capacity+1, 4*capacity+1).Draw(rt, "callers")

		g, err := NewGate(noRefill, capacity)
		if err != nil {
			rt.Fatal(err)
		}
		defer g.Close()

		var granted, holding, maxHolding int64
		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				if !g.TryAcquire() {
					return
				}
				atomic.AddInt64(&granted, 1)
				h := atomic.AddInt64(&holding, 1)
				for {
					m := atomic.LoadInt64(&maxHolding)
					if h <= m || atomic.CompareAndSwapInt64(&maxHolding, m, h) {
						break
					}
				}
			}()
		}
		close(start)
		wg.Wait()

		if granted != int64(capacity) {
			rt.Fatalf("granted %d permits, capacity %d", granted, capacity)
		}
		if maxHolding > int64(capacity) {
			rt.Fatalf("%d concurrent holders, capacity %d", maxHolding, capacity)
		}
		if got := g.Available(); got != 0 {
			rt.Fatalf("available: want 0, got %d", got)
		}
	})
}

// any mix of acquire/release/refill keeps available within [0, capacity],
// grants at most capacity per window, and a release per successful acquire
// leaves nothing outstanding
func TestGate_AvailableStaysBounded(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		capacity := rapid.IntRange(1, 10).Draw(rt, "capacity")
		g, err := NewGate(noRefill, capacity)
		if err != nil {
			rt.Fatal(err)
		}
		defer g.Close()

		held, grantedInWindow := 0, 0
		steps := rapid.IntRange(1, 200).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 3).Draw(rt, "op") {
			case 0:
				if g.TryAcquire() {
					held++
					grantedInWindow++
				}
			case 1:
				if held > 0 {
					g.Release()
					held--
				}
			case 2:
				g.replenish()
				grantedInWindow = 0
			case 3:
				g.Release() // spurious
				if held > 0 {
					held--
				}
			}
			if a := g.Available(); a < 0 || a > capacity {
				rt.Fatalf("available %d out of [0, %d]", a, capacity)
			}
			if grantedInWindow > capacity {
				rt.Fatalf("%d granted in one window, capacity %d", grantedInWindow, capacity)
			}
			if o := g.Outstanding(); o != held {
				rt.Fatalf("outstanding: want %d, got %d", held, o)
			}
		}
		for ; held > 0; held-- {
			g.Release()
		}
		if got := g.Outstanding(); got != 0 {
			rt.Fatalf("outstanding after draining: want 0, got %d", got)
		}
		g.replenish()
		if got := g.Available(); got != capacity {
			rt.Fatalf("available after refill: want %d, got %d", capacity, got)
		}
	})
}
