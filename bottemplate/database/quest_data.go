package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ellavondegurechaff/progression/bottemplate/database/repositories"
	"github.com/ellavondegurechaff/progression/internal/domain/quest"
	"github.com/ellavondegurechaff/progression/internal/domain/reward"
)

type questDef struct {
	ID          string
	Title       string
	Description string
	Tier        int
	Type        quest.Type
	Kind        quest.ObjectiveKind
	Scope       string
	Target      int64
	XP          int64
	Coins       int64
	Tokens      int64
}

var questDefs = []questDef{
	// Daily Tier 1
	{"daily_t1_chatterbox", "Chatterbox", "Send 20 messages", 1, quest.TypeDaily, quest.KindMessageSent, "", 20, 25, 250, 20},
	{"daily_t1_good_vibes", "Good Vibes", "React to 10 messages", 1, quest.TypeDaily, quest.KindReactionGiven, "", 10, 25, 250, 20},
	{"daily_t1_tune_in", "Tune In", "Spend 15 minutes in voice", 1, quest.TypeDaily, quest.KindVoiceMinutes, "", 15, 25, 250, 20},
	{"daily_t1_regular", "Regular", "Use 5 bot commands", 1, quest.TypeDaily, quest.KindCommandUsed, "", 5, 25, 250, 20},

	// Daily Tier 2
	{"daily_t2_conversation_starter", "Conversation Starter", "Send 60 messages", 2, quest.TypeDaily, quest.KindMessageSent, "", 60, 35, 400, 30},
	{"daily_t2_duelist", "Duelist", "Play 2 duels", 2, quest.TypeDaily, quest.KindDuelPlayed, "", 2, 35, 400, 30},
	{"daily_t2_hangout", "Hangout", "Spend 45 minutes in voice", 2, quest.TypeDaily, quest.KindVoiceMinutes, "", 45, 35, 400, 30},
	{"daily_t2_coin_collector", "Coin Collector", "Earn 300 coins from any source", 2, quest.TypeDaily, quest.KindCurrencyEarned, "", 300, 35, 400, 30},

	// Daily Tier 3
	{"daily_t3_community_engager", "Community Engager", "Complete 1 trade with another member", 3, quest.TypeDaily, quest.KindTradeCompleted, "", 1, 50, 650, 50},
	{"daily_t3_victor", "Victor", "Win 1 duel", 3, quest.TypeDaily, quest.KindDuelWon, "", 1, 50, 650, 50},
	{"daily_t3_full_routine", "Full Routine", "Use 20 bot commands", 3, quest.TypeDaily, quest.KindCommandUsed, "", 20, 50, 650, 50},

	// Weekly Tier 1
	{"weekly_t1_talkative", "Talkative", "Send 300 messages", 1, quest.TypeWeekly, quest.KindMessageSent, "", 300, 75, 800, 70},
	{"weekly_t1_night_owl", "Night Owl", "Spend 3 hours in voice", 1, quest.TypeWeekly, quest.KindVoiceMinutes, "", 180, 75, 800, 70},
	{"weekly_t1_lowkey_trader", "Lowkey Trader", "Complete 3 trades", 1, quest.TypeWeekly, quest.KindTradeCompleted, "", 3, 75, 800, 70},

	// Weekly Tier 2
	{"weekly_t2_sparring_partner", "Sparring Partner", "Play 10 duels", 2, quest.TypeWeekly, quest.KindDuelPlayed, "", 10, 90, 1200, 80},
	{"weekly_t2_middle_manager", "Middle Manager", "Use 60 bot commands", 2, quest.TypeWeekly, quest.KindCommandUsed, "", 60, 90, 1200, 80},
	{"weekly_t2_balanced_routine", "Balanced Routine", "Complete 7 quests", 2, quest.TypeWeekly, quest.KindQuestCompleted, "", 7, 90, 1200, 80},

	// Weekly Tier 3
	{"weekly_t3_weekly_champion", "Weekly Champion", "Complete 18 quests", 3, quest.TypeWeekly, quest.KindQuestCompleted, "", 18, 110, 1500, 100},
	{"weekly_t3_arena_veteran", "Arena Veteran", "Win 5 duels", 3, quest.TypeWeekly, quest.KindDuelWon, "", 5, 110, 1500, 100},
	{"weekly_t3_flake_farmer", "Coin Farmer", "Earn 8,000 coins this week", 3, quest.TypeWeekly, quest.KindCurrencyEarned, "", 8000, 110, 1500, 100},

	// Monthly Tier 1
	{"monthly_t1_familiar_face", "Familiar Face", "Send 1,500 messages", 1, quest.TypeMonthly, quest.KindMessageSent, "", 1500, 125, 2000, 150},
	{"monthly_t1_consistent_worker", "Consistent Worker", "Use 300 bot commands", 1, quest.TypeMonthly, quest.KindCommandUsed, "", 300, 125, 2000, 150},

	// Monthly Tier 2
	{"monthly_t2_rising_trader", "Rising Trader", "Complete 15 trades", 2, quest.TypeMonthly, quest.KindTradeCompleted, "", 15, 175, 3000, 200},
	{"monthly_t2_weekly_finisher", "Weekly Finisher", "Complete 40 quests", 2, quest.TypeMonthly, quest.KindQuestCompleted, "", 40, 175, 3000, 200},

	// Monthly Tier 3
	{"monthly_t3_all_star_player", "All-Star Player", "Complete 60 quests", 3, quest.TypeMonthly, quest.KindQuestCompleted, "", 60, 200, 5000, 250},
	{"monthly_t3_gladiator", "Gladiator", "Win 25 duels", 3, quest.TypeMonthly, quest.KindDuelWon, "", 25, 200, 5000, 250},
}

var tierDifficulty = map[int]reward.Difficulty{
	1: reward.DifficultyEasy,
	2: reward.DifficultyMedium,
	3: reward.DifficultyHard,
}

// SeedQuestTemplates returns the default template catalog.
func SeedQuestTemplates(now time.Time) []*quest.Quest {
	out := make([]*quest.Quest, 0, len(questDefs)+2)
	for _, d := range questDefs {
		out = append(out, &quest.Quest{
			ID:          d.ID,
			Title:       d.Title,
			Description: d.Description,
			Type:        d.Type,
			Tier:        d.Tier,
			Difficulty:  tierDifficulty[d.Tier],
			Objectives: []quest.Objective{
				{ID: string(d.Kind), Kind: d.Kind, Target: d.Target, Scope: d.Scope},
			},
			Rewards:     quest.Rewards{Bundle: reward.Bundle{XP: d.XP, Coins: d.Coins, Tokens: d.Tokens}},
			Limitations: quest.Limitations{Repeatable: true},
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	// Onboarding chain
	out = append(out,
		&quest.Quest{
			ID:          "chain_first_steps",
			Title:       "First Steps",
			Description: "Say hello and react to someone",
			Type:        quest.TypeChain,
			Tier:        1,
			Difficulty:  reward.DifficultyTutorial,
			Objectives: []quest.Objective{
				{ID: "hello", Kind: quest.KindMessageSent, Target: 1},
				{ID: "react", Kind: quest.KindReactionGiven, Target: 1},
			},
			Rewards:   quest.Rewards{Bundle: reward.Bundle{XP: 100, Coins: 500}},
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		&quest.Quest{
			ID:          "chain_first_duel",
			Title:       "Into the Arena",
			Description: "Win your first duel",
			Type:        quest.TypeChain,
			Tier:        1,
			Difficulty:  reward.DifficultyEasy,
			Objectives: []quest.Objective{
				{ID: "win", Kind: quest.KindDuelWon, Target: 1},
			},
			Rewards: quest.Rewards{
				Bundle: reward.Bundle{XP: 150, Coins: 750, Tokens: 25},
				Effect: &quest.SpecialEffect{Kind: quest.EffectTitle, Title: &quest.TitleGrant{Title: "Challenger"}},
			},
			Requirements: quest.Requirements{Prerequisites: []string{"chain_first_steps"}},
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
	)
	return out
}

// SeedTemplates upserts the default catalog into repo. Invalid definitions
// abort the seed.
func SeedTemplates(ctx context.Context, repo quest.TemplateRepository, now time.Time) error {
	templates := SeedQuestTemplates(now)
	for _, t := range templates {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("seed template %s: %w", t.ID, err)
		}
		if err := repo.UpsertTemplate(ctx, t); err != nil {
			return fmt.Errorf("failed to upsert quest %s: %w", t.ID, err)
		}
	}

	slog.Info("Quest definitions initialized/updated successfully", slog.Int("count", len(templates)))
	return nil
}

// InitializeQuestData inserts or updates the default quest definitions
func (db *DB) InitializeQuestData(ctx context.Context) error {
	return SeedTemplates(ctx, repositories.NewTemplateRepository(db.bunDB), time.Now())
}
