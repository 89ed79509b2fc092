package throttle_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/lanes/throttle"
)

func TestManager_UnconfiguredTypeNeverThrottled(t *testing.T) {
	m := throttle.NewManager()
	for range 100 {
		if !m.Acquire("anything") {
			t.Fatal("expected Acquire to succeed for unconfigured type")
		}
	}
	if m.Active("anything") != 0 {
		t.Error("unconfigured types should not be counted")
	}
}

func TestManager_MaxConcurrency(t *testing.T) {
	m := throttle.NewManager(throttle.Config{Type: "email", MaxConcurrency: 2})

	if !m.Acquire("email") || !m.Acquire("email") {
		t.Fatal("first two Acquires should succeed")
	}
	if m.Acquire("email") {
		t.Fatal("third Acquire should fail (max concurrency 2)")
	}

	m.Release("email")
	if !m.Acquire("email") {
		t.Fatal("Acquire should succeed after Release")
	}
	if got := m.Active("email"); got != 2 {
		t.Errorf("Active = %d, want 2", got)
	}
}

func TestManager_ReleaseNeverNegative(t *testing.T) {
	m := throttle.NewManager(throttle.Config{Type: "email", MaxConcurrency: 1})
	m.Release("email")
	m.Release("email")
	if got := m.Active("email"); got != 0 {
		t.Errorf("Active = %d, want 0", got)
	}
}

func TestManager_RateLimit(t *testing.T) {
	m := throttle.NewManager(throttle.Config{Type: "webhook", RateLimit: 1, RateBurst: 2})

	allowed := 0
	for range 10 {
		if m.Acquire("webhook") {
			allowed++
		}
	}
	if allowed != 2 {
		t.Errorf("allowed = %d, want burst of 2", allowed)
	}
}

func TestManager_ConcurrencyCheckedBeforeRateToken(t *testing.T) {
	m := throttle.NewManager(throttle.Config{Type: "report", MaxConcurrency: 1, RateLimit: 0.001, RateBurst: 2})

	if !m.Acquire("report") {
		t.Fatal("first Acquire should succeed")
	}
	// Saturated: these must not spend the remaining token.
	for range 5 {
		if m.Acquire("report") {
			t.Fatal("Acquire should fail while saturated")
		}
	}
	m.Release("report")
	if !m.Acquire("report") {
		t.Fatal("second token should still be available")
	}
}

func TestManager_SetKeepsActiveCount(t *testing.T) {
	m := throttle.NewManager(throttle.Config{Type: "email", MaxConcurrency: 3})
	m.Acquire("email")
	m.Acquire("email")

	m.Set(throttle.Config{Type: "email", MaxConcurrency: 2})
	if m.Acquire("email") {
		t.Fatal("new limit should apply to existing active count")
	}

	m.Remove("email")
	if !m.Acquire("email") {
		t.Fatal("removed limits should no longer throttle")
	}
	if len(m.Configs()) != 0 {
		t.Errorf("Configs = %v", m.Configs())
	}
}

func TestManager_ConcurrentAcquire(t *testing.T) {
	m := throttle.NewManager(throttle.Config{Type: "email", MaxConcurrency: 5})

	var (
		wg      sync.WaitGroup
		granted atomic.Int32
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if m.Acquire("email") {
				granted.Add(1)
				time.Sleep(time.Millisecond)
			}
		}()
	}
	wg.Wait()

	if got := granted.Load(); got != 5 {
		t.Errorf("granted = %d, want 5", got)
	}
}
