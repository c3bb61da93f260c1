package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ellavondegurechaff/progression/bottemplate/config"
	"github.com/ellavondegurechaff/progression/bottemplate/economy/cooldown"
	"github.com/ellavondegurechaff/progression/internal/domain/account"
	"github.com/ellavondegurechaff/progression/internal/domain/apperrors"
	"github.com/ellavondegurechaff/progression/internal/domain/quest"
	"github.com/ellavondegurechaff/progression/internal/domain/reward"
)

// maxCompletionCascade bounds how many rounds of quest_completed feedback a
// single activity may trigger.
const maxCompletionCascade = 3

// Activity is one inbound event from the platform layer.
type Activity struct {
	UserID      string
	CommunityID string
	Kind        quest.ObjectiveKind
	// Scope narrows matching objectives, e.g. a channel id or a duel mode.
	Scope     string
	Amount    int64
	Timestamp time.Time
}

// ActivityResult reports what one activity changed.
type ActivityResult struct {
	Passive   account.Result
	Paid      reward.Bundle
	Completed []*quest.Progress
	Streak    int
}

type ProgressionService struct {
	accounts  *AccountService
	quests    *QuestService
	cooldowns *cooldown.Manager
	cfg       config.Engine
	now       func() time.Time
}

func NewProgressionService(accounts *AccountService, quests *QuestService, cooldowns *cooldown.Manager, cfg config.Engine) *ProgressionService {
	return &ProgressionService{
		accounts:  accounts,
		quests:    quests,
		cooldowns: cooldowns,
		cfg:       cfg.WithDefaults(),
		now:       time.Now,
	}
}

// OnActivity grants passive rewards for act and advances the user's quests.
func (s *ProgressionService) OnActivity(ctx context.Context, act Activity) (*ActivityResult, error) {
	if act.UserID == "" || act.CommunityID == "" {
		return nil, apperrors.Invalid("activity", "user and community are required")
	}
	if !act.Kind.Valid() {
		return nil, apperrors.Invalid("kind", "unknown activity kind %q", act.Kind)
	}
	if act.Amount < 0 {
		return nil, apperrors.Invalid("amount", "must not be negative")
	}
	if act.Amount == 0 {
		act.Amount = 1
	}
	if act.Timestamp.IsZero() {
		act.Timestamp = s.now()
	}

	res := &ActivityResult{}
	var errs []error

	passive, paid, err := s.grantPassive(ctx, act)
	if err != nil {
		errs = append(errs, err)
	}
	res.Passive = passive
	res.Paid = paid

	completed, err := s.quests.Advance(ctx, act.CommunityID, act.UserID, act.Kind, act.Scope, act.Amount, act.Timestamp)
	if err != nil {
		errs = append(errs, err)
	}

	// Coins paid by the passive reward count toward currency objectives.
	if paid.Coins > 0 && act.Kind != quest.KindCurrencyEarned {
		more, err := s.quests.Advance(ctx, act.CommunityID, act.UserID, quest.KindCurrencyEarned, "", paid.Coins, act.Timestamp)
		if err != nil {
			errs = append(errs, err)
		}
		completed = append(completed, more...)
	}

	for round := 0; len(completed) > 0 && round < maxCompletionCascade; round++ {
		res.Completed = append(res.Completed, completed...)
		streak, err := s.recordStreak(ctx, act, completed)
		if err != nil {
			errs = append(errs, err)
		}
		if streak > 0 {
			res.Streak = streak
		}

		completed, err = s.quests.Advance(ctx, act.CommunityID, act.UserID, quest.KindQuestCompleted, "", int64(len(completed)), act.Timestamp)
		if err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		slog.Error("Activity processing failed",
			slog.String("type", "engine"),
			slog.String("user_id", act.UserID),
			slog.String("community_id", act.CommunityID),
			slog.String("kind", string(act.Kind)),
			slog.Any("error", err))
		return res, err
	}
	return res, nil
}

func (s *ProgressionService) passiveBundle(act Activity) reward.Bundle {
	switch act.Kind {
	case quest.KindMessageSent:
		return reward.Bundle{XP: s.cfg.MessageXP, Coins: s.cfg.MessageCoins}
	case quest.KindReactionGiven:
		return reward.Bundle{XP: s.cfg.ReactionXP}
	case quest.KindVoiceMinutes:
		return reward.Bundle{XP: s.cfg.VoiceXPPerMinute * act.Amount}
	}
	return reward.Bundle{}
}

func (s *ProgressionService) passiveCooldown(kind quest.ObjectiveKind) time.Duration {
	switch kind {
	case quest.KindMessageSent:
		return s.cfg.MessageCooldown()
	case quest.KindReactionGiven:
		return s.cfg.ReactionCooldown()
	}
	return 0
}

// grantPassive pays the flat activity reward, with XP scaled by any active boost.
// Message and reaction rewards sit behind the in-memory gate and the
// persisted account cooldown.
func (s *ProgressionService) grantPassive(ctx context.Context, act Activity) (account.Result, reward.Bundle, error) {
	base := s.passiveBundle(act)
	if base.IsZero() {
		return account.Result{}, reward.Bundle{}, nil
	}

	action := string(act.Kind)
	period := s.passiveCooldown(act.Kind)
	if period > 0 {
		if ok, _ := s.cooldowns.Allow(cooldown.Key(act.CommunityID, act.UserID, action), period, act.Timestamp); !ok {
			return account.Result{}, reward.Bundle{}, nil
		}
	}

	var (
		res  account.Result
		paid reward.Bundle
	)
	_, err := s.accounts.Mutate(ctx, act.CommunityID, act.UserID, func(a *account.Account) error {
		if period > 0 && !a.CooldownReady(action, period, act.Timestamp) {
			return errSkip
		}
		paid = base
		paid.XP = reward.ComputeReward(reward.Bundle{XP: base.XP}, a.Multiplier(act.Timestamp), 0).XP
		res = account.ApplyReward(a, "", paid, act.Timestamp)
		return nil
	})
	if errors.Is(err, errSkip) {
		return account.Result{}, reward.Bundle{}, nil
	}
	if err != nil {
		return account.Result{}, reward.Bundle{}, fmt.Errorf("failed to grant passive reward: %w", err)
	}

	if res.LeveledUp() {
		slog.Info("User leveled up",
			slog.String("type", "engine"),
			slog.String("user_id", act.UserID),
			slog.String("community_id", act.CommunityID),
			slog.Int("level", res.LevelAfter))
	}
	return res, paid, nil
}

func (s *ProgressionService) recordStreak(ctx context.Context, act Activity, completed []*quest.Progress) (int, error) {
	for _, p := range completed {
		if p.QuestType != quest.TypeDaily || p.CompletedAt == nil {
			continue
		}
		day, previous := s.quests.DayKeys(*p.CompletedAt)
		return s.accounts.RecordDailyCompletion(ctx, act.CommunityID, act.UserID, day, previous)
	}
	return 0, nil
}
