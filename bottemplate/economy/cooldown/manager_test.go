package cooldown

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestAllow(t *testing.T) {
	m := NewManager()
	start := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	key := Key("g", "u", "message")

	tests := []struct {
		name     string
		at       time.Time
		expected bool
		left     time.Duration
	}{
		{"first call passes", start, true, 0},
		{"inside cooldown", start.Add(20 * time.Second), false, 40 * time.Second},
		{"exactly at expiry", start.Add(time.Minute), true, 0},
		{"again inside new cooldown", start.Add(90 * time.Second), false, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, left := m.Allow(key, time.Minute, tt.at)
			if ok != tt.expected || left != tt.left {
				t.Errorf("Allow() = %v, %v; want %v, %v", ok, left, tt.expected, tt.left)
			}
		})
	}
}

func TestAllowIsExclusive(t *testing.T) {
	m := NewManager()
	now := time.Now()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := m.Allow("k", time.Minute, now); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := wins.Load(); got != 1 {
		t.Fatalf("expected exactly one caller to pass, got %d", got)
	}
}

func TestCleanupExpired(t *testing.T) {
	m := NewManager()
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	m.Allow("old", time.Second, now)
	m.Allow("fresh", time.Hour, now)

	if removed := m.cleanupExpired(now.Add(time.Minute)); removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if m.Len() != 1 || m.Remaining("fresh", now.Add(time.Minute)) != 59*time.Minute {
		t.Fatalf("fresh cooldown should survive cleanup")
	}
}
