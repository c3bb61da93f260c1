// Package leaderboard builds derived per-community aggregates. Boards are
// always rebuilt from source records and never edited in place.
package leaderboard

import (
	"context"
	"sort"
	"time"

	"github.com/ellavondegurechaff/progression/internal/domain/account"
	"github.com/ellavondegurechaff/progression/internal/domain/quest"
	"github.com/ellavondegurechaff/progression/internal/domain/rating"
)

type Kind string

const (
	KindRating Kind = "rating"
	KindXP     Kind = "xp"
	KindClans  Kind = "clans"
)

type Entry struct {
	Rank   int    `json:"rank"`
	ID     string `json:"id"`
	Score  int64  `json:"score"`
	Detail string `json:"detail,omitempty"`
	Count  int    `json:"count,omitempty"`
}

type Board struct {
	CommunityID string    `json:"community_id"`
	Kind        Kind      `json:"kind"`
	Entries     []Entry   `json:"entries"`
	GeneratedAt time.Time `json:"generated_at"`
}

// QuestStat is eventually consistent telemetry. Nothing reads it to decide
// rewards or transitions.
type QuestStat struct {
	QuestID        string        `json:"quest_id"`
	CommunityID    string        `json:"community_id"`
	Title          string        `json:"title"`
	Attempts       int           `json:"attempts"`
	Completions    int           `json:"completions"`
	Claims         int           `json:"claims"`
	Expired        int           `json:"expired"`
	CompletionRate float64       `json:"completion_rate"`
	AvgTimeSpent   time.Duration `json:"avg_time_spent"`
}

type Repository interface {
	ReplaceBoard(ctx context.Context, b *Board) error
	GetBoard(ctx context.Context, communityID string, kind Kind) (*Board, error)
	ReplaceQuestStats(ctx context.Context, communityID string, stats []QuestStat) error
	ListQuestStats(ctx context.Context, communityID string) ([]QuestStat, error)
}

// RatingBoard ranks players by rating, then by games played.
func RatingBoard(communityID string, rankings []*rating.Ranking, limit int, now time.Time) *Board {
	entries := make([]Entry, 0, len(rankings))
	for _, r := range rankings {
		if r.Games() == 0 {
			continue
		}
		tier, _ := rating.Classify(r.Rating)
		entries = append(entries, Entry{ID: r.UserID, Score: int64(r.Rating), Detail: string(tier), Count: r.Games()})
	}
	return finish(communityID, KindRating, entries, limit, now)
}

// XPBoard ranks players by total XP.
func XPBoard(communityID string, accounts []*account.Account, limit int, now time.Time) *Board {
	entries := make([]Entry, 0, len(accounts))
	for _, a := range accounts {
		if a.XP == 0 {
			continue
		}
		entries = append(entries, Entry{ID: a.UserID, Score: a.XP, Count: account.LevelFor(a.XP)})
	}
	return finish(communityID, KindXP, entries, limit, now)
}

// ClanBoard sums member XP per clan. Members without a clan are skipped.
func ClanBoard(communityID string, accounts []*account.Account, limit int, now time.Time) *Board {
	type clan struct {
		xp      int64
		members int
	}
	clans := make(map[string]*clan)
	for _, a := range accounts {
		if a.ClanID == "" {
			continue
		}
		c, ok := clans[a.ClanID]
		if !ok {
			c = &clan{}
			clans[a.ClanID] = c
		}
		c.xp += a.XP
		c.members++
	}
	entries := make([]Entry, 0, len(clans))
	for id, c := range clans {
		entries = append(entries, Entry{ID: id, Score: c.xp, Count: c.members})
	}
	return finish(communityID, KindClans, entries, limit, now)
}

// QuestStats rebuilds per-quest telemetry from progress records.
func QuestStats(communityID string, quests []*quest.Quest, progress map[string][]*quest.Progress) []QuestStat {
	stats := make([]QuestStat, 0, len(quests))
	for _, q := range quests {
		s := QuestStat{QuestID: q.ID, CommunityID: communityID, Title: q.Title}
		var spent time.Duration
		for _, p := range progress[q.ID] {
			s.Attempts++
			switch p.Status {
			case quest.StatusCompleted:
				s.Completions++
				spent += p.TimeSpent
			case quest.StatusClaimed:
				s.Completions++
				s.Claims++
				spent += p.TimeSpent
			case quest.StatusExpired:
				s.Expired++
			}
		}
		if s.Attempts > 0 {
			s.CompletionRate = float64(s.Completions) / float64(s.Attempts) * 100
		}
		if s.Completions > 0 {
			s.AvgTimeSpent = spent / time.Duration(s.Completions)
		}
		stats = append(stats, s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].QuestID < stats[j].QuestID })
	return stats
}

func finish(communityID string, kind Kind, entries []Entry, limit int, now time.Time) *Board {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].ID < entries[j].ID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return &Board{CommunityID: communityID, Kind: kind, Entries: entries, GeneratedAt: now}
}
