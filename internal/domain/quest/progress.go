package quest

import (
	"fmt"
	"math"
	"time"

	"github.com/ellavondegurechaff/progression/internal/domain/apperrors"
	"github.com/ellavondegurechaff/progression/internal/domain/reward"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusExpired   Status = "expired"
	StatusClaimed   Status = "claimed"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusClaimed || s == StatusFailed || s == StatusExpired
}

var transitions = map[Status][]Status{
	StatusActive:    {StatusCompleted, StatusFailed, StatusExpired},
	StatusCompleted: {StatusClaimed, StatusExpired},
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Counters maps objective id to its counter. An absent id reads as 0.
type Counters map[string]int64

func (c Counters) Get(objectiveID string) int64 {
	return c[objectiveID]
}

func (c Counters) Clone() Counters {
	out := make(Counters, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Progress is one user's progress on one quest instance in one community.
type Progress struct {
	ID          string
	UserID      string
	CommunityID string
	QuestID     string
	TemplateID  string
	QuestType   Type
	Status      Status
	Counters    Counters
	StartedAt   time.Time
	CompletedAt *time.Time
	ClaimedAt   *time.Time
	FailedAt    *time.Time
	ExpiredAt   *time.Time
	TimeSpent   time.Duration

	// Snapshot taken at claim; never recomputed afterwards.
	Multiplier  float64
	StreakBonus int64
	Reward      reward.Bundle

	// RewardDelivered is false between the claim transition and the account
	// credit; the redelivery sweep settles records left in that window.
	RewardDelivered bool

	Version   int64
	UpdatedAt time.Time
}

// ProgressID is the unique key of (community, user, quest).
func ProgressID(communityID, userID, questID string) string {
	return fmt.Sprintf("%s:%s:%s", communityID, userID, questID)
}

// Start creates a fresh active progress record for q.
func Start(q *Quest, userID string, now time.Time) *Progress {
	return &Progress{
		ID:          ProgressID(q.CommunityID, userID, q.ID),
		UserID:      userID,
		CommunityID: q.CommunityID,
		QuestID:     q.ID,
		TemplateID:  q.TemplateKey(),
		QuestType:   q.Type,
		Status:      StatusActive,
		Counters:    Counters{},
		StartedAt:   now,
		UpdatedAt:   now,
	}
}

// Clone returns a deep copy so a failed compare-and-swap never leaks a
// half-applied mutation into the caller's view.
func (p *Progress) Clone() *Progress {
	c := *p
	c.Counters = p.Counters.Clone()
	c.CompletedAt = cloneTime(p.CompletedAt)
	c.ClaimedAt = cloneTime(p.ClaimedAt)
	c.FailedAt = cloneTime(p.FailedAt)
	c.ExpiredAt = cloneTime(p.ExpiredAt)
	if p.Reward.Items != nil {
		c.Reward.Items = append([]reward.ItemGrant(nil), p.Reward.Items...)
	}
	return &c
}

// Outcome reports what a progress mutation did.
type Outcome struct {
	Changed   bool
	Completed bool
}

// RecordProgress adds amount (0 means 1) to objectiveID and evaluates
// completion in the same step. It is a no-op unless the record is active.
func RecordProgress(p *Progress, q *Quest, objectiveID string, amount int64, now time.Time) (Outcome, error) {
	if amount < 0 {
		return Outcome{}, apperrors.Invalid("amount", "must not be negative")
	}
	if amount == 0 {
		amount = 1
	}
	if p.Status != StatusActive {
		return Outcome{}, nil
	}
	if _, ok := q.Objective(objectiveID); !ok {
		return Outcome{}, apperrors.NotFound("objective", objectiveID)
	}

	if p.Counters == nil {
		p.Counters = Counters{}
	}
	p.Counters[objectiveID] = saturatingAdd(p.Counters[objectiveID], amount)
	p.UpdatedAt = now

	return Outcome{Changed: true, Completed: completeIfDone(p, q, now)}, nil
}

// ApplyActivity increments every objective of q matching kind and scope.
func ApplyActivity(p *Progress, q *Quest, kind ObjectiveKind, scope string, amount int64, now time.Time) (Outcome, error) {
	var out Outcome
	if p.Status != StatusActive {
		return out, nil
	}
	for _, o := range q.Objectives {
		if !o.Matches(kind, scope) {
			continue
		}
		res, err := RecordProgress(p, q, o.ID, amount, now)
		if err != nil {
			return out, err
		}
		out.Changed = out.Changed || res.Changed
		out.Completed = out.Completed || res.Completed
	}
	return out, nil
}

// IsComplete reports whether every objective counter meets its target.
func IsComplete(c Counters, q *Quest) bool {
	for _, o := range q.Objectives {
		if c.Get(o.ID) < o.Target {
			return false
		}
	}
	return true
}

func completeIfDone(p *Progress, q *Quest, now time.Time) bool {
	if p.Status != StatusActive || !IsComplete(p.Counters, q) {
		return false
	}
	p.Status = StatusCompleted
	p.CompletedAt = &now
	p.TimeSpent = now.Sub(p.StartedAt)
	return true
}

// Claim moves a completed record to claimed and returns the payout computed
// from the multiplier and streak snapshot. Claiming twice fails with
// ErrAlreadyClaimed; claiming anything not completed fails with ErrNotCompleted.
func Claim(p *Progress, q *Quest, multiplier float64, streakBonus int64, now time.Time) (reward.Bundle, error) {
	switch p.Status {
	case StatusClaimed:
		return reward.Bundle{}, fmt.Errorf("%w: progress %s", apperrors.ErrAlreadyClaimed, p.ID)
	case StatusCompleted:
	default:
		return reward.Bundle{}, fmt.Errorf("%w: progress %s is %s", apperrors.ErrNotCompleted, p.ID, p.Status)
	}

	adjusted := reward.ComputeDifficultyAdjustedReward(q.Rewards.Bundle, q.Difficulty)
	payout := reward.ComputeReward(adjusted, multiplier, streakBonus)

	p.Status = StatusClaimed
	p.ClaimedAt = &now
	p.Multiplier = multiplier
	p.StreakBonus = streakBonus
	p.Reward = payout
	p.RewardDelivered = false
	p.UpdatedAt = now
	return payout, nil
}

// Fail marks an active record failed.
func Fail(p *Progress, now time.Time) error {
	if !CanTransition(p.Status, StatusFailed) {
		return apperrors.Conflict("progress "+p.ID, string(p.Status), string(StatusFailed))
	}
	p.Status = StatusFailed
	p.FailedAt = &now
	p.UpdatedAt = now
	return nil
}

// Expire marks an active or completed record expired, forfeiting progress.
func Expire(p *Progress, now time.Time) error {
	if !CanTransition(p.Status, StatusExpired) {
		return apperrors.Conflict("progress "+p.ID, string(p.Status), string(StatusExpired))
	}
	p.Status = StatusExpired
	p.ExpiredAt = &now
	p.UpdatedAt = now
	return nil
}

// ProgressPercentage is round(100 * Σmin(current, target) / Σtarget).
// A quest without objectives is trivially complete.
func ProgressPercentage(p *Progress, q *Quest) int {
	var done, total int64
	for _, o := range q.Objectives {
		done += min(p.Counters.Get(o.ID), o.Target)
		total += o.Target
	}
	if total == 0 {
		return 100
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}

func saturatingAdd(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
