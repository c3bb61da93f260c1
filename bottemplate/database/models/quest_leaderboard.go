package models

import (
	"time"

	"github.com/ellavondegurechaff/progression/internal/domain/leaderboard"
	"github.com/uptrace/bun"
)

// Leaderboard holds the last rebuilt board of one kind for a community.
type Leaderboard struct {
	bun.BaseModel `bun:"table:leaderboards,alias:lb"`

	CommunityID string              `bun:"community_id,pk"`
	Kind        string              `bun:"kind,pk"`
	Entries     []leaderboard.Entry `bun:"entries,type:jsonb"`
	GeneratedAt time.Time           `bun:"generated_at,notnull"`
}

// QuestStat is telemetry; rows are replaced wholesale per community.
type QuestStat struct {
	bun.BaseModel `bun:"table:quest_stats,alias:qs"`

	CommunityID    string        `bun:"community_id,pk"`
	QuestID        string        `bun:"quest_id,pk"`
	Title          string        `bun:"title,notnull,default:''"`
	Attempts       int           `bun:"attempts,notnull,default:0"`
	Completions    int           `bun:"completions,notnull,default:0"`
	Claims         int           `bun:"claims,notnull,default:0"`
	Expired        int           `bun:"expired,notnull,default:0"`
	CompletionRate float64       `bun:"completion_rate,notnull,default:0"`
	AvgTimeSpent   time.Duration `bun:"avg_time_spent,notnull,default:0"`
}

func NewLeaderboard(b *leaderboard.Board) *Leaderboard {
	return &Leaderboard{
		CommunityID: b.CommunityID,
		Kind:        string(b.Kind),
		Entries:     b.Entries,
		GeneratedAt: b.GeneratedAt,
	}
}

func (l *Leaderboard) Domain() *leaderboard.Board {
	return &leaderboard.Board{
		CommunityID: l.CommunityID,
		Kind:        leaderboard.Kind(l.Kind),
		Entries:     l.Entries,
		GeneratedAt: l.GeneratedAt,
	}
}

func NewQuestStat(s leaderboard.QuestStat) QuestStat {
	return QuestStat{
		CommunityID:    s.CommunityID,
		QuestID:        s.QuestID,
		Title:          s.Title,
		Attempts:       s.Attempts,
		Completions:    s.Completions,
		Claims:         s.Claims,
		Expired:        s.Expired,
		CompletionRate: s.CompletionRate,
		AvgTimeSpent:   s.AvgTimeSpent,
	}
}

func (s QuestStat) Domain() leaderboard.QuestStat {
	return leaderboard.QuestStat{
		QuestID:        s.QuestID,
		CommunityID:    s.CommunityID,
		Title:          s.Title,
		Attempts:       s.Attempts,
		Completions:    s.Completions,
		Claims:         s.Claims,
		Expired:        s.Expired,
		CompletionRate: s.CompletionRate,
		AvgTimeSpent:   s.AvgTimeSpent,
	}
}
