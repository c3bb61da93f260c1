// Package rating implements the Elo ladder: rating updates, tier and division
// classification, and the bounded match history kept per participant.
package rating

import (
	"math"
	"time"
)

const (
	K             = 32
	DefaultRating = 1000
	// DefaultHistoryCap bounds the per-user match history ring.
	DefaultHistoryCap = 50
	// Width of the open-ended top band used for division math.
	nominalBandWidth = 200
)

type Outcome string

const (
	Win  Outcome = "win"
	Loss Outcome = "loss"
	Draw Outcome = "draw"
)

func (o Outcome) Valid() bool {
	return o == Win || o == Loss || o == Draw
}

// Score is the outcome as used by the expected-score formula.
func (o Outcome) Score() float64 {
	switch o {
	case Win:
		return 1
	case Draw:
		return 0.5
	default:
		return 0
	}
}

// Invert returns the outcome seen from the opponent's side.
func (o Outcome) Invert() Outcome {
	switch o {
	case Win:
		return Loss
	case Loss:
		return Win
	default:
		return Draw
	}
}

// Expected is 1 / (1 + 10^((opp - r) / 400)).
func Expected(r, opp int) float64 {
	return 1 / (1 + math.Pow(10, float64(opp-r)/400))
}

// Delta is round(K * (score - expected)).
func Delta(r, opp int, o Outcome) int {
	return int(math.Round(K * (o.Score() - Expected(r, opp))))
}

type Tier string

const (
	Bronze      Tier = "bronze"
	Silver      Tier = "silver"
	Gold        Tier = "gold"
	Platinum    Tier = "platinum"
	Diamond     Tier = "diamond"
	Master      Tier = "master"
	Grandmaster Tier = "grandmaster"
	Challenger  Tier = "challenger"
)

type band struct {
	tier Tier
	min  int
	max  int // inclusive; -1 for the open top band
}

var bands = []band{
	{Bronze, 0, 999},
	{Silver, 1000, 1199},
	{Gold, 1200, 1399},
	{Platinum, 1400, 1599},
	{Diamond, 1600, 1799},
	{Master, 1800, 1999},
	{Grandmaster, 2000, 2199},
	{Challenger, 2200, -1},
}

// Classify maps a rating to its tier and division (5 lowest, 1 highest).
func Classify(r int) (Tier, int) {
	if r < 0 {
		r = 0
	}
	b := bands[0]
	for _, candidate := range bands {
		if r >= candidate.min {
			b = candidate
		}
	}

	width := nominalBandWidth
	if b.max >= 0 {
		width = b.max - b.min + 1
	}
	pos := r - b.min
	div := 5 - int(math.Floor(float64(pos)/(float64(width)/5)))
	return b.tier, max(1, min(5, div))
}

// HistoryEntry is one match as seen by one participant.
type HistoryEntry struct {
	MatchID      string        `json:"match_id"`
	OpponentID   string        `json:"opponent_id"`
	Outcome      Outcome       `json:"outcome"`
	Mode         string        `json:"mode,omitempty"`
	RatingBefore int           `json:"rating_before"`
	RatingAfter  int           `json:"rating_after"`
	Delta        int           `json:"delta"`
	Duration     time.Duration `json:"duration"`
	PlayedAt     time.Time     `json:"played_at"`
}

// Ranking is a user's ladder state in one community.
type Ranking struct {
	UserID      string
	CommunityID string
	Rating      int
	Tier        Tier
	Division    int
	Wins        int
	Losses      int
	Draws       int
	WinStreak   int
	BestStreak  int
	PeakRating  int
	History     []HistoryEntry
	Version     int64
	UpdatedAt   time.Time
}

// NewRanking returns the default ladder state for a user.
func NewRanking(communityID, userID string) *Ranking {
	tier, div := Classify(DefaultRating)
	return &Ranking{
		UserID:      userID,
		CommunityID: communityID,
		Rating:      DefaultRating,
		Tier:        tier,
		Division:    div,
		PeakRating:  DefaultRating,
	}
}

// Clone returns a copy with its own history slice.
func (r *Ranking) Clone() *Ranking {
	c := *r
	c.History = append([]HistoryEntry(nil), r.History...)
	return &c
}

// Played reports whether matchID is already in the history.
func (r *Ranking) Played(matchID string) bool {
	for _, h := range r.History {
		if h.MatchID == matchID {
			return true
		}
	}
	return false
}

// Games is the total number of rated matches.
func (r *Ranking) Games() int {
	return r.Wins + r.Losses + r.Draws
}

// ApplyResult applies one rated match to r as a single mutation: rating,
// tier, division, counters, streaks and history. opponentRating must be the
// opponent's pre-match rating. It reports false without touching r when
// entry.MatchID was already applied.
func ApplyResult(r *Ranking, opponentRating int, o Outcome, entry HistoryEntry, historyCap int) bool {
	if entry.MatchID != "" && r.Played(entry.MatchID) {
		return false
	}
	if historyCap <= 0 {
		historyCap = DefaultHistoryCap
	}

	before := r.Rating
	delta := Delta(before, opponentRating, o)
	after := max(0, before+delta)

	r.Rating = after
	r.Tier, r.Division = Classify(after)
	r.PeakRating = max(r.PeakRating, after)

	switch o {
	case Win:
		r.Wins++
		r.WinStreak++
		r.BestStreak = max(r.BestStreak, r.WinStreak)
	case Loss:
		r.Losses++
		r.WinStreak = 0
	case Draw:
		r.Draws++
	}

	entry.Outcome = o
	entry.RatingBefore = before
	entry.RatingAfter = after
	entry.Delta = after - before
	r.History = PushHistory(r.History, entry, historyCap)
	if !entry.PlayedAt.IsZero() {
		r.UpdatedAt = entry.PlayedAt
	}
	return true
}

// PushHistory prepends e and drops entries beyond limit.
func PushHistory(h []HistoryEntry, e HistoryEntry, limit int) []HistoryEntry {
	out := make([]HistoryEntry, 0, min(len(h)+1, limit))
	out = append(out, e)
	for _, old := range h {
		if len(out) == limit {
			break
		}
		out = append(out, old)
	}
	return out
}
