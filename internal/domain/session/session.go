package session

import (
	"fmt"
	"time"

	"github.com/ellavondegurechaff/progression/internal/domain/apperrors"
	"github.com/puzpuzpuz/xsync/v3"
)

// Key identifies a presence session. At most one session is open per key.
type Key struct {
	UserID      string
	CommunityID string
}

func (k Key) String() string {
	return k.CommunityID + "/" + k.UserID
}

// Session is the accumulated presence of one user in one community.
type Session struct {
	Key            Key
	StartedAt      time.Time
	LastCheckpoint time.Time
	Accumulated    time.Duration
}

// Tracker accumulates continuous presence per key. Clock values are always
// supplied by the caller. Operations on different keys never contend.
type Tracker struct {
	sessions *xsync.MapOf[Key, Session]
}

func NewTracker() *Tracker {
	return &Tracker{sessions: xsync.NewMapOf[Key, Session]()}
}

// Open starts a session for key at now.
func (t *Tracker) Open(key Key, now time.Time) (Session, error) {
	s := Session{Key: key, StartedAt: now, LastCheckpoint: now}
	actual, loaded := t.sessions.LoadOrStore(key, s)
	if loaded {
		return actual, fmt.Errorf("%w: %s", apperrors.ErrAlreadyOpen, key)
	}
	return s, nil
}

// Checkpoint folds the time since the last checkpoint into the session and
// returns that delta.
func (t *Tracker) Checkpoint(key Key, now time.Time) (time.Duration, error) {
	var (
		delta time.Duration
		err   error
	)
	t.sessions.Compute(key, func(s Session, loaded bool) (Session, bool) {
		if !loaded {
			err = apperrors.NotFound("session", key)
			return s, true
		}
		delta, err = advance(&s, now)
		return s, false
	})
	return delta, err
}

// Close performs a final checkpoint and removes the session. It returns the
// final delta and the total accumulated duration.
func (t *Tracker) Close(key Key, now time.Time) (delta, total time.Duration, err error) {
	t.sessions.Compute(key, func(s Session, loaded bool) (Session, bool) {
		if !loaded {
			err = apperrors.NotFound("session", key)
			return s, true
		}
		delta, err = advance(&s, now)
		if err != nil {
			// keep the session so a later, ordered close can still settle it
			return s, false
		}
		total = s.Accumulated
		return s, true
	})
	return delta, total, err
}

// Get returns a copy of the open session for key.
func (t *Tracker) Get(key Key) (Session, bool) {
	return t.sessions.Load(key)
}

// Snapshot lists the currently open sessions.
func (t *Tracker) Snapshot() []Session {
	out := make([]Session, 0, t.sessions.Size())
	t.sessions.Range(func(_ Key, s Session) bool {
		out = append(out, s)
		return true
	})
	return out
}

func (t *Tracker) Len() int {
	return t.sessions.Size()
}

func advance(s *Session, now time.Time) (time.Duration, error) {
	if now.Before(s.LastCheckpoint) {
		return 0, fmt.Errorf("%w: checkpoint at %s precedes %s for %s",
			apperrors.ErrClockRegression, now.Format(time.RFC3339), s.LastCheckpoint.Format(time.RFC3339), s.Key)
	}
	delta := now.Sub(s.LastCheckpoint)
	s.Accumulated += delta
	s.LastCheckpoint = now
	return delta, nil
}
