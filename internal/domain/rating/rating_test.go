package rating

import (
	"fmt"
	"testing"
	"time"
)

func TestDelta(t *testing.T) {
	tests := []struct {
		name    string
		r, opp  int
		outcome Outcome
		want    int
	}{
		{name: "even win", r: 1000, opp: 1000, outcome: Win, want: 16},
		{name: "even loss", r: 1000, opp: 1000, outcome: Loss, want: -16},
		{name: "even draw", r: 1000, opp: 1000, outcome: Draw, want: 0},
		{name: "favourite loses", r: 1200, opp: 1000, outcome: Loss, want: -24},
		{name: "underdog wins", r: 1000, opp: 1200, outcome: Win, want: 24},
		{name: "underdog draws", r: 1000, opp: 1200, outcome: Draw, want: 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Delta(tt.r, tt.opp, tt.outcome); got != tt.want {
				t.Errorf("Delta(%d, %d, %s) = %d, want %d", tt.r, tt.opp, tt.outcome, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		rating int
		tier   Tier
		div    int
	}{
		{0, Bronze, 5},
		{199, Bronze, 5},
		{200, Bronze, 4},
		{999, Bronze, 1},
		{1000, Silver, 5},
		{1039, Silver, 5},
		{1040, Silver, 4},
		{1199, Silver, 1},
		{1200, Gold, 5},
		{1599, Platinum, 1},
		{1800, Master, 5},
		{2199, Grandmaster, 1},
		{2200, Challenger, 5},
		{2399, Challenger, 1},
		{3500, Challenger, 1},
		{-20, Bronze, 5},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.rating), func(t *testing.T) {
			tier, div := Classify(tt.rating)
			if tier != tt.tier || div != tt.div {
				t.Errorf("Classify(%d) = %s %d, want %s %d", tt.rating, tier, div, tt.tier, tt.div)
			}
		})
	}
}

func TestApplyResult(t *testing.T) {
	at := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)

	r := NewRanking("guild", "u1")
	if !ApplyResult(r, 1000, Win, HistoryEntry{MatchID: "m1", OpponentID: "u2", PlayedAt: at}, 0) {
		t.Fatal("ApplyResult() = false on a fresh match")
	}
	if r.Rating != 1016 || r.Tier != Silver || r.Division != 5 {
		t.Errorf("after win: %d %s %d", r.Rating, r.Tier, r.Division)
	}
	if r.Wins != 1 || r.WinStreak != 1 || r.BestStreak != 1 || r.PeakRating != 1016 {
		t.Errorf("after win counters: %+v", r)
	}
	if h := r.History[0]; h.RatingBefore != 1000 || h.RatingAfter != 1016 || h.Delta != 16 || h.Outcome != Win {
		t.Errorf("history entry = %+v", h)
	}

	if ApplyResult(r, 1000, Win, HistoryEntry{MatchID: "m1"}, 0) {
		t.Error("replay of m1 applied twice")
	}
	if r.Rating != 1016 || r.Wins != 1 || len(r.History) != 1 {
		t.Errorf("replay mutated ranking: %+v", r)
	}

	ApplyResult(r, 1000, Draw, HistoryEntry{MatchID: "m2"}, 0)
	if r.WinStreak != 1 || r.Draws != 1 {
		t.Errorf("draw should keep streak: %+v", r)
	}
	ApplyResult(r, 1000, Loss, HistoryEntry{MatchID: "m3"}, 0)
	if r.WinStreak != 0 || r.BestStreak != 1 || r.Losses != 1 {
		t.Errorf("loss should reset streak: %+v", r)
	}
	if r.History[0].MatchID != "m3" {
		t.Errorf("newest entry = %s, want m3", r.History[0].MatchID)
	}
}

func TestApplyResultFavouriteLoses(t *testing.T) {
	r := &Ranking{Rating: 1200, PeakRating: 1200}
	ApplyResult(r, 1000, Loss, HistoryEntry{MatchID: "m"}, 0)
	if r.Rating != 1176 || r.Tier != Silver || r.Division != 1 {
		t.Errorf("got %d %s %d, want 1176 silver 1", r.Rating, r.Tier, r.Division)
	}
	if r.PeakRating != 1200 {
		t.Errorf("peak = %d, want 1200", r.PeakRating)
	}
}

func TestApplyResultFloorsAtZero(t *testing.T) {
	r := &Ranking{Rating: 5}
	ApplyResult(r, 5, Loss, HistoryEntry{MatchID: "m"}, 0)
	if r.Rating != 0 {
		t.Errorf("rating = %d, want 0", r.Rating)
	}
	if r.History[0].Delta != -5 {
		t.Errorf("recorded delta = %d, want -5", r.History[0].Delta)
	}
}

func TestHistoryCap(t *testing.T) {
	r := NewRanking("guild", "u1")
	for i := 0; i < 55; i++ {
		ApplyResult(r, r.Rating, Draw, HistoryEntry{MatchID: fmt.Sprintf("m%02d", i)}, DefaultHistoryCap)
	}
	if len(r.History) != 50 {
		t.Fatalf("history length = %d, want 50", len(r.History))
	}
	for i, h := range r.History {
		if want := fmt.Sprintf("m%02d", 54-i); h.MatchID != want {
			t.Fatalf("history[%d] = %s, want %s", i, h.MatchID, want)
		}
	}
}

func TestBothSidesUsePreMatchRatings(t *testing.T) {
	a := &Ranking{UserID: "a", Rating: 1000}
	b := &Ranking{UserID: "b", Rating: 1000}
	aBefore, bBefore := a.Rating, b.Rating

	ApplyResult(a, bBefore, Win, HistoryEntry{MatchID: "m"}, 0)
	ApplyResult(b, aBefore, Loss, HistoryEntry{MatchID: "m"}, 0)

	if a.Rating+b.Rating != 2000 {
		t.Errorf("ratings %d + %d should be zero-sum", a.Rating, b.Rating)
	}
}
