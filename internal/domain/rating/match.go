package rating

import (
	"time"

	"github.com/ellavondegurechaff/progression/internal/domain/apperrors"
)

type MatchStatus string

const (
	MatchPending    MatchStatus = "pending"
	MatchInProgress MatchStatus = "in_progress"
	MatchCompleted  MatchStatus = "completed"
	MatchExpired    MatchStatus = "expired"
	MatchCancelled  MatchStatus = "cancelled"
)

func (s MatchStatus) Terminal() bool {
	return s == MatchCompleted || s == MatchExpired || s == MatchCancelled
}

// ExpiryPolicy decides how a started match past its TTL is resolved.
type ExpiryPolicy string

const (
	// ExpireAsDraw rates a stale started match as a draw.
	ExpireAsDraw ExpiryPolicy = "draw"
	// ExpireAsForfeit rates it as a loss for the side that has not reported.
	ExpireAsForfeit ExpiryPolicy = "forfeit"
)

func (p ExpiryPolicy) Valid() bool {
	return p == ExpireAsDraw || p == ExpireAsForfeit
}

// Match is a duel between a challenger and an opponent. Outcome is from the
// challenger's side. RatingsApplied flips once both rankings were updated.
type Match struct {
	ID             string
	CommunityID    string
	ChallengerID   string
	OpponentID     string
	Mode           string
	Status         MatchStatus
	Outcome        Outcome
	ReportedBy     string
	Duration       time.Duration
	CreatedAt      time.Time
	AcceptedAt     *time.Time
	CompletedAt    *time.Time
	ExpiresAt      time.Time
	RatingsApplied bool
	Version        int64
	UpdatedAt      time.Time
}

// Involves reports whether userID is a participant.
func (m *Match) Involves(userID string) bool {
	return m.ChallengerID == userID || m.OpponentID == userID
}

// OutcomeFor returns the outcome from userID's side.
func (m *Match) OutcomeFor(userID string) Outcome {
	if userID == m.ChallengerID {
		return m.Outcome
	}
	return m.Outcome.Invert()
}

// Accept starts a pending match.
func (m *Match) Accept(now time.Time, ttl time.Duration) error {
	if m.Status != MatchPending {
		return apperrors.Conflict("match "+m.ID, string(m.Status), string(MatchInProgress))
	}
	m.Status = MatchInProgress
	m.AcceptedAt = &now
	m.ExpiresAt = now.Add(ttl)
	m.UpdatedAt = now
	return nil
}

// Complete records the result from reporterID's perspective. Only a match
// the opponent accepted can complete.
func (m *Match) Complete(reporterID string, o Outcome, d time.Duration, now time.Time) error {
	if !o.Valid() {
		return apperrors.Invalid("outcome", "unknown outcome %q", o)
	}
	if !m.Involves(reporterID) {
		return apperrors.Invalid("reporter", "%s is not part of match %s", reporterID, m.ID)
	}
	if m.Status != MatchInProgress {
		return apperrors.Conflict("match "+m.ID, string(m.Status), string(MatchCompleted))
	}
	if reporterID != m.ChallengerID {
		o = o.Invert()
	}
	m.Status = MatchCompleted
	m.Outcome = o
	m.ReportedBy = reporterID
	m.Duration = d
	m.CompletedAt = &now
	m.UpdatedAt = now
	return nil
}

// ForceResolve terminates a stale match. Pending challenges are cancelled;
// started ones complete per policy. It reports whether ratings must follow.
func (m *Match) ForceResolve(policy ExpiryPolicy, now time.Time) (bool, error) {
	switch m.Status {
	case MatchPending:
		m.Status = MatchCancelled
		m.UpdatedAt = now
		return false, nil
	case MatchInProgress:
	default:
		return false, apperrors.Conflict("match "+m.ID, string(m.Status), string(MatchExpired))
	}

	m.Status = MatchExpired
	m.UpdatedAt = now
	m.CompletedAt = &now
	m.Outcome = Draw
	if policy == ExpireAsForfeit {
		// The challenger opened the duel, so the opponent is the side that
		// stalled it once accepted.
		m.Outcome = Win
	}
	if m.AcceptedAt != nil {
		m.Duration = now.Sub(*m.AcceptedAt)
	}
	return true, nil
}

// Rated reports whether a terminal match carries a result to apply.
func (m *Match) Rated() bool {
	return m.Status == MatchCompleted || (m.Status == MatchExpired && m.Outcome != "")
}

// Entry builds the history entry for userID.
func (m *Match) Entry(userID string) HistoryEntry {
	e := HistoryEntry{
		MatchID:  m.ID,
		Mode:     m.Mode,
		Duration: m.Duration,
	}
	if m.CompletedAt != nil {
		e.PlayedAt = *m.CompletedAt
	}
	if userID == m.ChallengerID {
		e.OpponentID = m.OpponentID
	} else {
		e.OpponentID = m.ChallengerID
	}
	return e
}
