package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ellavondegurechaff/progression/internal/domain/account"
	"github.com/ellavondegurechaff/progression/internal/domain/apperrors"
	"github.com/ellavondegurechaff/progression/internal/domain/quest"
	"github.com/ellavondegurechaff/progression/internal/domain/reward"
	"github.com/ellavondegurechaff/progression/internal/domain/storage"
)

// errSkip aborts a mutation without writing and without surfacing an error.
var errSkip = errors.New("skip mutation")

// AccountService owns every write to account balances. Each mutation is a
// compare-and-swap on the (community, user) record with bounded retries.
type AccountService struct {
	accounts account.Repository
	now      func() time.Time
}

var _ account.RewardSink = (*AccountService)(nil)

func NewAccountService(accounts account.Repository) *AccountService {
	return &AccountService{
		accounts: accounts,
		now:      time.Now,
	}
}

// Get returns the stored account, or a fresh unsaved one for a new user.
func (s *AccountService) Get(ctx context.Context, communityID, userID string) (*account.Account, error) {
	a, err := s.accounts.Get(ctx, communityID, userID)
	if apperrors.IsNotFound(err) {
		return account.New(communityID, userID, s.now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return a, nil
}

// Mutate applies fn to the latest version of the account and persists it.
// fn may run more than once and must only touch the account it is given.
// Returning errSkip from fn ends the mutation without writing.
func (s *AccountService) Mutate(ctx context.Context, communityID, userID string, fn func(a *account.Account) error) (*account.Account, error) {
	var out *account.Account
	err := storage.RetryCAS(ctx, storage.DefaultCASAttempts, func(ctx context.Context) error {
		current, err := s.accounts.Get(ctx, communityID, userID)
		created := false
		switch {
		case apperrors.IsNotFound(err):
			current = account.New(communityID, userID, s.now())
			created = true
		case err != nil:
			return err
		}

		next := current.Clone()
		if err := fn(next); err != nil {
			return err
		}

		if created {
			if err := s.accounts.Create(ctx, next); err != nil {
				if errors.Is(err, apperrors.ErrAlreadyExists) {
					// lost the race to create; retry against the stored row
					return apperrors.ErrVersionConflict
				}
				return err
			}
		} else if err := s.accounts.CompareAndSwap(ctx, next, current.Version); err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyReward credits b to the user. A grant id already applied is a no-op.
func (s *AccountService) ApplyReward(ctx context.Context, userID, communityID, grantID string, b reward.Bundle) (account.Result, error) {
	return s.Grant(ctx, userID, communityID, grantID, b, nil)
}

// Grant credits b and applies effect in the same mutation. The effect only
// lands when the credit does, so redelivery never stacks a boost twice.
func (s *AccountService) Grant(ctx context.Context, userID, communityID, grantID string, b reward.Bundle, effect *quest.SpecialEffect) (account.Result, error) {
	var res account.Result
	now := s.now()
	_, err := s.Mutate(ctx, communityID, userID, func(a *account.Account) error {
		res = account.ApplyReward(a, grantID, b, now)
		if !res.Applied {
			return errSkip
		}
		applyEffect(a, effect, now)
		return nil
	})
	if errors.Is(err, errSkip) {
		slog.Debug("Reward already applied",
			slog.String("type", "engine"),
			slog.String("user_id", userID),
			slog.String("grant_id", grantID))
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("failed to apply reward: %w", err)
	}

	if res.LeveledUp() {
		slog.Info("User leveled up",
			slog.String("type", "engine"),
			slog.String("user_id", userID),
			slog.String("community_id", communityID),
			slog.Int("level", res.LevelAfter))
	}
	return res, nil
}

// Debit removes b from the user's balances. Insufficient funds leave the
// account untouched.
func (s *AccountService) Debit(ctx context.Context, userID, communityID, grantID string, b reward.Bundle) (account.Result, error) {
	var res account.Result
	now := s.now()
	_, err := s.Mutate(ctx, communityID, userID, func(a *account.Account) error {
		var err error
		res, err = account.Debit(a, grantID, b, now)
		if err != nil {
			return err
		}
		if !res.Applied {
			return errSkip
		}
		return nil
	})
	if err != nil && !errors.Is(err, errSkip) {
		return res, fmt.Errorf("failed to debit account: %w", err)
	}
	return res, nil
}

// Adjust is the admin correction path. It is not idempotent.
func (s *AccountService) Adjust(ctx context.Context, communityID, userID string, delta reward.Bundle) (account.Result, error) {
	var res account.Result
	now := s.now()
	_, err := s.Mutate(ctx, communityID, userID, func(a *account.Account) error {
		res = account.Adjust(a, delta, now)
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("failed to adjust account: %w", err)
	}

	slog.Info("Account adjusted",
		slog.String("type", "engine"),
		slog.String("user_id", userID),
		slog.String("community_id", communityID),
		slog.Int64("xp", delta.XP),
		slog.Int64("coins", delta.Coins),
		slog.Int64("tokens", delta.Tokens))
	return res, nil
}

// SetClan moves the user into clanID; an empty id leaves the clan.
func (s *AccountService) SetClan(ctx context.Context, communityID, userID, clanID string) error {
	_, err := s.Mutate(ctx, communityID, userID, func(a *account.Account) error {
		if a.ClanID == clanID {
			return errSkip
		}
		a.ClanID = clanID
		a.UpdatedAt = s.now()
		return nil
	})
	if err != nil && !errors.Is(err, errSkip) {
		return fmt.Errorf("failed to set clan: %w", err)
	}
	return nil
}

// RecordDailyCompletion advances the user's daily quest streak for day.
func (s *AccountService) RecordDailyCompletion(ctx context.Context, communityID, userID, day, previousDay string) (int, error) {
	var streak int
	a, err := s.Mutate(ctx, communityID, userID, func(a *account.Account) error {
		streak = a.DailyStreak
		if !a.RecordDailyCompletion(day, previousDay) {
			return errSkip
		}
		a.UpdatedAt = s.now()
		return nil
	})
	if errors.Is(err, errSkip) {
		return streak, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to record daily streak: %w", err)
	}
	return a.DailyStreak, nil
}

func applyEffect(a *account.Account, effect *quest.SpecialEffect, now time.Time) {
	if effect == nil {
		return
	}
	switch effect.Kind {
	case quest.EffectXPBoost:
		if effect.XPBoost != nil {
			a.GrantBoost(effect.XPBoost.Multiplier, effect.XPBoost.Duration, now)
		}
	case quest.EffectTitle:
		if effect.Title != nil {
			a.GrantTitle(effect.Title.Title)
		}
	case quest.EffectRoleGrant:
		if effect.RoleGrant != nil {
			a.GrantRole(effect.RoleGrant.RoleID)
		}
	}
}
