package models

import (
	"time"

	"github.com/ellavondegurechaff/progression/internal/domain/rating"
	"github.com/uptrace/bun"
)

type Ranking struct {
	bun.BaseModel `bun:"table:rankings,alias:r"`

	CommunityID string                `bun:"community_id,pk"`
	UserID      string                `bun:"user_id,pk"`
	Rating      int                   `bun:"rating,notnull,default:1000"`
	Tier        string                `bun:"tier,notnull"`
	Division    int                   `bun:"division,notnull"`
	Wins        int                   `bun:"wins,notnull,default:0"`
	Losses      int                   `bun:"losses,notnull,default:0"`
	Draws       int                   `bun:"draws,notnull,default:0"`
	WinStreak   int                   `bun:"win_streak,notnull,default:0"`
	BestStreak  int                   `bun:"best_streak,notnull,default:0"`
	PeakRating  int                   `bun:"peak_rating,notnull,default:1000"`
	History     []rating.HistoryEntry `bun:"history,type:jsonb"`
	Version     int64                 `bun:"version,notnull,default:1"`
	UpdatedAt   time.Time             `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func NewRanking(r *rating.Ranking) *Ranking {
	return &Ranking{
		CommunityID: r.CommunityID,
		UserID:      r.UserID,
		Rating:      r.Rating,
		Tier:        string(r.Tier),
		Division:    r.Division,
		Wins:        r.Wins,
		Losses:      r.Losses,
		Draws:       r.Draws,
		WinStreak:   r.WinStreak,
		BestStreak:  r.BestStreak,
		PeakRating:  r.PeakRating,
		History:     r.History,
		Version:     r.Version,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (m *Ranking) Domain() *rating.Ranking {
	return &rating.Ranking{
		UserID:      m.UserID,
		CommunityID: m.CommunityID,
		Rating:      m.Rating,
		Tier:        rating.Tier(m.Tier),
		Division:    m.Division,
		Wins:        m.Wins,
		Losses:      m.Losses,
		Draws:       m.Draws,
		WinStreak:   m.WinStreak,
		BestStreak:  m.BestStreak,
		PeakRating:  m.PeakRating,
		History:     m.History,
		Version:     m.Version,
		UpdatedAt:   m.UpdatedAt,
	}
}

type Match struct {
	bun.BaseModel `bun:"table:matches,alias:m"`

	ID             string        `bun:"id,pk"`
	CommunityID    string        `bun:"community_id,notnull"`
	ChallengerID   string        `bun:"challenger_id,notnull"`
	OpponentID     string        `bun:"opponent_id,notnull"`
	Mode           string        `bun:"mode,notnull,default:''"`
	Status         string        `bun:"status,notnull"`
	Outcome        string        `bun:"outcome,notnull,default:''"`
	ReportedBy     string        `bun:"reported_by,notnull,default:''"`
	Duration       time.Duration `bun:"duration,notnull,default:0"`
	CreatedAt      time.Time     `bun:"created_at,notnull"`
	AcceptedAt     *time.Time    `bun:"accepted_at"`
	CompletedAt    *time.Time    `bun:"completed_at"`
	ExpiresAt      time.Time     `bun:"expires_at,nullzero"`
	RatingsApplied bool          `bun:"ratings_applied,notnull,default:false"`
	Version        int64         `bun:"version,notnull,default:1"`
	UpdatedAt      time.Time     `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func NewMatch(m *rating.Match) *Match {
	return &Match{
		ID:             m.ID,
		CommunityID:    m.CommunityID,
		ChallengerID:   m.ChallengerID,
		OpponentID:     m.OpponentID,
		Mode:           m.Mode,
		Status:         string(m.Status),
		Outcome:        string(m.Outcome),
		ReportedBy:     m.ReportedBy,
		Duration:       m.Duration,
		CreatedAt:      m.CreatedAt,
		AcceptedAt:     m.AcceptedAt,
		CompletedAt:    m.CompletedAt,
		ExpiresAt:      m.ExpiresAt,
		RatingsApplied: m.RatingsApplied,
		Version:        m.Version,
		UpdatedAt:      m.UpdatedAt,
	}
}

func (m *Match) Domain() *rating.Match {
	return &rating.Match{
		ID:             m.ID,
		CommunityID:    m.CommunityID,
		ChallengerID:   m.ChallengerID,
		OpponentID:     m.OpponentID,
		Mode:           m.Mode,
		Status:         rating.MatchStatus(m.Status),
		Outcome:        rating.Outcome(m.Outcome),
		ReportedBy:     m.ReportedBy,
		Duration:       m.Duration,
		CreatedAt:      m.CreatedAt,
		AcceptedAt:     m.AcceptedAt,
		CompletedAt:    m.CompletedAt,
		ExpiresAt:      m.ExpiresAt,
		RatingsApplied: m.RatingsApplied,
		Version:        m.Version,
		UpdatedAt:      m.UpdatedAt,
	}
}
