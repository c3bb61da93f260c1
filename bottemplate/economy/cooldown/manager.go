package cooldown

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// Manager is an in-process cooldown gate keyed by arbitrary strings. It is
// the fast path in front of the persisted account cooldowns, so a burst of
// messages from one user costs no store writes.
type Manager struct {
	cooldowns *xsync.MapOf[string, time.Time]
}

func NewManager() *Manager {
	return &Manager{cooldowns: xsync.NewMapOf[string, time.Time]()}
}

// Key builds the gate key of an action for one user in one community.
func Key(communityID, userID, action string) string {
	return communityID + ":" + userID + ":" + action
}

// Allow reports whether key is off cooldown at now and, if so, starts a new
// cooldown of period. Otherwise it returns the time left.
func (m *Manager) Allow(key string, period time.Duration, now time.Time) (bool, time.Duration) {
	var (
		allowed bool
		left    time.Duration
	)
	m.cooldowns.Compute(key, func(until time.Time, loaded bool) (time.Time, bool) {
		if loaded && now.Before(until) {
			left = until.Sub(now)
			return until, false
		}
		allowed = true
		return now.Add(period), false
	})
	return allowed, left
}

// Remaining returns the time left on key's cooldown at now.
func (m *Manager) Remaining(key string, now time.Time) time.Duration {
	if until, ok := m.cooldowns.Load(key); ok && now.Before(until) {
		return until.Sub(now)
	}
	return 0
}

func (m *Manager) Reset(key string) {
	m.cooldowns.Delete(key)
}

func (m *Manager) Len() int {
	return m.cooldowns.Size()
}

func (m *Manager) cleanupExpired(now time.Time) int {
	removed := 0
	m.cooldowns.Range(func(key string, until time.Time) bool {
		if !now.Before(until) {
			m.cooldowns.Compute(key, func(current time.Time, loaded bool) (time.Time, bool) {
				if loaded && !now.Before(current) {
					removed++
					return current, true
				}
				return current, !loaded
			})
		}
		return true
	})
	return removed
}

// StartCleanupRoutine drops expired entries every interval until ctx ends.
func (m *Manager) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				m.cleanupExpired(now)
			}
		}
	}()
}
