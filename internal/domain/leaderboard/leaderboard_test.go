package leaderboard

import (
	"testing"
	"time"

	"github.com/ellavondegurechaff/progression/internal/domain/account"
	"github.com/ellavondegurechaff/progression/internal/domain/quest"
	"github.com/ellavondegurechaff/progression/internal/domain/rating"
)

var now = time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)

func TestRatingBoard(t *testing.T) {
	rankings := []*rating.Ranking{
		{UserID: "a", Rating: 1100, Wins: 3},
		{UserID: "b", Rating: 1300, Wins: 5, Losses: 1},
		{UserID: "c", Rating: 1100, Wins: 4},
		{UserID: "idle", Rating: 1000},
	}
	b := RatingBoard("guild", rankings, 2, now)

	if len(b.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(b.Entries))
	}
	if b.Entries[0].ID != "b" || b.Entries[0].Detail != string(rating.Gold) {
		t.Errorf("first = %+v", b.Entries[0])
	}
	if b.Entries[1].ID != "c" || b.Entries[1].Rank != 2 {
		t.Errorf("tie break by games: second = %+v", b.Entries[1])
	}
}

func TestClanBoard(t *testing.T) {
	accounts := []*account.Account{
		{UserID: "a", ClanID: "red", XP: 100},
		{UserID: "b", ClanID: "red", XP: 50},
		{UserID: "c", ClanID: "blue", XP: 120},
		{UserID: "d", XP: 999},
	}
	b := ClanBoard("guild", accounts, 0, now)
	if len(b.Entries) != 2 || b.Entries[0].ID != "red" || b.Entries[0].Score != 150 || b.Entries[0].Count != 2 {
		t.Errorf("clans = %+v", b.Entries)
	}

	xp := XPBoard("guild", accounts, 0, now)
	if xp.Entries[0].ID != "d" || xp.Entries[0].Count != account.LevelFor(999) {
		t.Errorf("xp = %+v", xp.Entries)
	}
}

func TestQuestStats(t *testing.T) {
	quests := []*quest.Quest{{ID: "q1", Title: "One"}, {ID: "q2", Title: "Two"}}
	progress := map[string][]*quest.Progress{
		"q1": {
			{Status: quest.StatusClaimed, TimeSpent: time.Hour},
			{Status: quest.StatusCompleted, TimeSpent: 3 * time.Hour},
			{Status: quest.StatusActive},
			{Status: quest.StatusExpired},
		},
	}
	stats := QuestStats("guild", quests, progress)
	if len(stats) != 2 {
		t.Fatalf("stats = %d", len(stats))
	}
	s := stats[0]
	if s.Attempts != 4 || s.Completions != 2 || s.Claims != 1 || s.Expired != 1 {
		t.Errorf("counts = %+v", s)
	}
	if s.CompletionRate != 50 || s.AvgTimeSpent != 2*time.Hour {
		t.Errorf("derived = %v %v", s.CompletionRate, s.AvgTimeSpent)
	}
	if stats[1].Attempts != 0 || stats[1].CompletionRate != 0 {
		t.Errorf("untouched quest = %+v", stats[1])
	}
}
