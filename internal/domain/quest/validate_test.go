package quest

import (
	"testing"
	"time"

	"github.com/ellavondegurechaff/progression/internal/domain/apperrors"
)

func TestQuestValidate(t *testing.T) {
	boost, _ := NewXPBoostEffect(1.5, time.Hour)

	tests := []struct {
		name    string
		mutate  func(q *Quest)
		wantErr bool
	}{
		{name: "valid", mutate: func(q *Quest) {}},
		{name: "with effect", mutate: func(q *Quest) { q.Rewards.Effect = &boost }},
		{name: "no objectives", mutate: func(q *Quest) { q.Objectives = nil }, wantErr: true},
		{name: "inverted window", mutate: func(q *Quest) {
			q.AvailableFrom = t0
			q.AvailableUntil = t0
		}, wantErr: true},
		{name: "inverted levels", mutate: func(q *Quest) {
			q.Requirements.MinLevel = 10
			q.Requirements.MaxLevel = 5
		}, wantErr: true},
		{name: "only max level", mutate: func(q *Quest) { q.Requirements.MaxLevel = 5 }},
		{name: "unknown kind", mutate: func(q *Quest) { q.Objectives[0].Kind = "dance" }, wantErr: true},
		{name: "zero target", mutate: func(q *Quest) { q.Objectives[0].Target = 0 }, wantErr: true},
		{name: "duplicate objective", mutate: func(q *Quest) { q.Objectives[1].ID = q.Objectives[0].ID }, wantErr: true},
		{name: "unknown type", mutate: func(q *Quest) { q.Type = "hourly" }, wantErr: true},
		{name: "bad hours", mutate: func(q *Quest) { q.Requirements.Hours = &HourWindow{Start: 25, End: 3} }, wantErr: true},
		{name: "bad weekday", mutate: func(q *Quest) { q.Requirements.Weekdays = []time.Weekday{9} }, wantErr: true},
		{name: "effect with two payloads", mutate: func(q *Quest) {
			q.Rewards.Effect = &SpecialEffect{Kind: EffectTitle, Title: &TitleGrant{Title: "x"}, RoleGrant: &RoleGrant{RoleID: "r"}}
		}, wantErr: true},
		{name: "effect kind mismatch", mutate: func(q *Quest) {
			q.Rewards.Effect = &SpecialEffect{Kind: EffectXPBoost, Title: &TitleGrant{Title: "x"}}
		}, wantErr: true},
		{name: "negative reward", mutate: func(q *Quest) { q.Rewards.Coins = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := chatQuest()
			tt.mutate(q)
			err := q.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !apperrors.IsValidation(err) {
				t.Errorf("Validate() error = %v, want ValidationError", err)
			}
		})
	}
}

func TestEffectConstructors(t *testing.T) {
	if _, err := NewXPBoostEffect(1, time.Hour); err == nil {
		t.Error("NewXPBoostEffect(1) should be rejected")
	}
	if _, err := NewRoleGrantEffect(""); err == nil {
		t.Error("NewRoleGrantEffect(\"\") should be rejected")
	}
	if e, err := NewTitleEffect("Champion"); err != nil || e.Title.Title != "Champion" {
		t.Errorf("NewTitleEffect() = %+v, %v", e, err)
	}
}
