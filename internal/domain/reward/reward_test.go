package reward

import (
	"math"
	"reflect"
	"testing"
)

func TestComputeReward(t *testing.T) {
	tests := []struct {
		name        string
		base        Bundle
		multiplier  float64
		streakBonus int64
		want        Bundle
	}{
		{
			name:       "identity",
			base:       Bundle{XP: 100, Coins: 50, Tokens: 2},
			multiplier: 1,
			want:       Bundle{XP: 100, Coins: 50, Tokens: 2},
		},
		{
			name:        "floor then streak per currency",
			base:        Bundle{XP: 25, Coins: 33, Tokens: 1},
			multiplier:  1.5,
			streakBonus: 10,
			want:        Bundle{XP: 47, Coins: 59, Tokens: 11},
		},
		{
			name:       "negative base clamps",
			base:       Bundle{XP: -40, Coins: 10},
			multiplier: 2,
			want:       Bundle{XP: 0, Coins: 20},
		},
		{
			name:        "negative multiplier and bonus clamp",
			base:        Bundle{XP: 100},
			multiplier:  -3,
			streakBonus: -5,
			want:        Bundle{},
		},
		{
			name:       "nan multiplier",
			base:       Bundle{Coins: 10},
			multiplier: math.NaN(),
			want:       Bundle{},
		},
		{
			name:        "streak bonus saturates",
			base:        Bundle{XP: math.MaxInt64, Coins: math.MaxInt64, Tokens: math.MaxInt64},
			multiplier:  2,
			streakBonus: 5,
			want:        Bundle{XP: math.MaxInt64, Coins: math.MaxInt64, Tokens: math.MaxInt64},
		},
		{
			name:        "streak bonus near the cap",
			base:        Bundle{XP: math.MaxInt64 - 2},
			multiplier:  1,
			streakBonus: 5,
			want:        Bundle{XP: math.MaxInt64, Coins: 5, Tokens: 5},
		},
		{
			name:       "items pass through unscaled",
			base:       Bundle{XP: 10, Items: []ItemGrant{{ItemID: "crate", Quantity: 2}, {ItemID: "", Quantity: 1}}},
			multiplier: 3,
			want:       Bundle{XP: 30, Items: []ItemGrant{{ItemID: "crate", Quantity: 2}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeReward(tt.base, tt.multiplier, tt.streakBonus)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ComputeReward() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestComputeDifficultyAdjustedReward(t *testing.T) {
	base := Bundle{XP: 100, Coins: 40, Tokens: 3}
	tests := []struct {
		tier Difficulty
		want Bundle
	}{
		{DifficultyTutorial, Bundle{XP: 50, Coins: 20, Tokens: 1}},
		{DifficultyEasy, Bundle{XP: 100, Coins: 40, Tokens: 3}},
		{DifficultyMedium, Bundle{XP: 150, Coins: 60, Tokens: 4}},
		{DifficultyHard, Bundle{XP: 200, Coins: 80, Tokens: 6}},
		{DifficultyEpic, Bundle{XP: 300, Coins: 120, Tokens: 9}},
		{DifficultyLegendary, Bundle{XP: 500, Coins: 200, Tokens: 15}},
		{Difficulty("mythic"), Bundle{XP: 100, Coins: 40, Tokens: 3}},
	}

	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			if got := ComputeDifficultyAdjustedReward(base, tt.tier); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ComputeDifficultyAdjustedReward(%s) = %+v, want %+v", tt.tier, got, tt.want)
			}
		})
	}
}

func TestBundle_Add(t *testing.T) {
	a := Bundle{XP: 1, Coins: 2, Items: []ItemGrant{{ItemID: "a", Quantity: 1}}}
	b := Bundle{XP: 10, Tokens: 5}
	got := a.Add(b)
	want := Bundle{XP: 11, Coins: 2, Tokens: 5, Items: []ItemGrant{{ItemID: "a", Quantity: 1}}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Add() = %+v, want %+v", got, want)
	}
	if !(Bundle{}).IsZero() || got.IsZero() {
		t.Errorf("IsZero() mismatch")
	}
}
