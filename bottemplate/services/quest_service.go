package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ellavondegurechaff/progression/bottemplate/config"
	"github.com/ellavondegurechaff/progression/internal/domain/account"
	"github.com/ellavondegurechaff/progression/internal/domain/apperrors"
	"github.com/ellavondegurechaff/progression/internal/domain/quest"
	"github.com/ellavondegurechaff/progression/internal/domain/reward"
	"github.com/ellavondegurechaff/progression/internal/domain/storage"
	"github.com/ellavondegurechaff/progression/internal/gateways"
)

// standingCycle is the cycle key of non-rotating quests published once per community.
const standingCycle = "standing"

// expirySettleWindow is how long after its claim grace an expired quest is
// still rescanned, so a failed expiry sweep heals on a later tick.
const expirySettleWindow = 24 * time.Hour

var rotatingTypes = []quest.Type{quest.TypeDaily, quest.TypeWeekly, quest.TypeMonthly}

type QuestService struct {
	backend  gateways.Backend
	accounts *AccountService
	catalog  *QuestCatalog
	cfg      config.Engine
	loc      *time.Location
	now      func() time.Time
}

func NewQuestService(backend gateways.Backend, accounts *AccountService, catalog *QuestCatalog, cfg config.Engine) *QuestService {
	cfg = cfg.WithDefaults()
	return &QuestService{
		backend:  backend,
		accounts: accounts,
		catalog:  catalog,
		cfg:      cfg,
		loc:      cfg.Location(),
		now:      time.Now,
	}
}

// ClaimResult is the payout of one claim.
type ClaimResult struct {
	Progress *quest.Progress
	Quest    *quest.Quest
	Reward   reward.Bundle
	Account  account.Result
	// Delivered is false when the credit failed after the claim committed on
	// a store without transactions; the redelivery sweep settles it.
	Delivered bool
}

// QuestStatus is one entry of a user's quest overview.
type QuestStatus struct {
	Quest      *quest.Quest
	Progress   *quest.Progress
	Percentage int
	ResetsAt   time.Time
}

// ExpiryResult counts what one expiry sweep changed.
type ExpiryResult struct {
	Deactivated int
	Expired     int
}

// Start opens a progress record for userID on questID.
func (s *QuestService) Start(ctx context.Context, communityID, userID, questID string) (*quest.Progress, error) {
	q, err := s.backend.Quests().Get(ctx, questID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quest: %w", err)
	}
	if q.CommunityID != communityID {
		return nil, apperrors.NotFound("quest", questID)
	}
	return s.start(ctx, q, userID, nil)
}

func (s *QuestService) start(ctx context.Context, q *quest.Quest, userID string, elig *quest.Eligibility) (*quest.Progress, error) {
	now := s.now()
	if elig == nil {
		e, err := s.eligibility(ctx, q.CommunityID, userID)
		if err != nil {
			return nil, err
		}
		elig = &e
	}
	if err := quest.CheckEligibility(q, *elig, now); err != nil {
		return nil, err
	}

	p := quest.Start(q, userID, now)
	if err := s.backend.Progress().Create(ctx, p); err != nil {
		return nil, fmt.Errorf("quest %s already started: %w", q.ID, err)
	}
	elig.Open[q.OpenKey()] = true

	slog.Info("Quest started",
		slog.String("type", "engine"),
		slog.String("user_id", userID),
		slog.String("quest_id", q.ID))
	return p, nil
}

func (s *QuestService) eligibility(ctx context.Context, communityID, userID string) (quest.Eligibility, error) {
	a, err := s.accounts.Get(ctx, communityID, userID)
	if err != nil {
		return quest.Eligibility{}, err
	}
	records, err := s.backend.Progress().ListByUser(ctx, communityID, userID)
	if err != nil {
		return quest.Eligibility{}, fmt.Errorf("failed to list progress: %w", err)
	}
	return quest.BuildEligibility(a.Level, records), nil
}

// Advance feeds one activity into every open quest of the community that
// has a matching objective, starting progress where the user is eligible.
// It returns the records this activity completed.
func (s *QuestService) Advance(ctx context.Context, communityID, userID string, kind quest.ObjectiveKind, scope string, amount int64, at time.Time) ([]*quest.Progress, error) {
	quests, err := s.backend.Quests().ListActive(ctx, communityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active quests: %w", err)
	}
	if len(quests) == 0 {
		return nil, nil
	}

	records, err := s.backend.Progress().ListByUser(ctx, communityID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	byQuest := make(map[string]*quest.Progress, len(records))
	for _, p := range records {
		byQuest[p.QuestID] = p
	}

	var (
		elig      *quest.Eligibility
		completed []*quest.Progress
		errs      []error
	)
	for _, q := range quests {
		if !q.Open(at) || !q.InWindow(at, s.loc) || !hasObjective(q, kind, scope) {
			continue
		}

		p, ok := byQuest[q.ID]
		if !ok {
			if elig == nil {
				a, err := s.accounts.Get(ctx, communityID, userID)
				if err != nil {
					return completed, err
				}
				e := quest.BuildEligibility(a.Level, records)
				elig = &e
			}
			started, err := s.start(ctx, q, userID, elig)
			switch {
			case err == nil:
				p = started
			case errors.Is(err, quest.ErrNotEligible):
				continue
			case errors.Is(err, apperrors.ErrAlreadyExists):
				if p, err = s.backend.Progress().Get(ctx, quest.ProgressID(communityID, userID, q.ID)); err != nil {
					errs = append(errs, err)
					continue
				}
			default:
				errs = append(errs, err)
				continue
			}
		}
		if p.Status != quest.StatusActive {
			continue
		}

		updated, out, err := s.apply(ctx, p.ID, func(next *quest.Progress) (quest.Outcome, error) {
			return quest.ApplyActivity(next, q, kind, scope, amount, at)
		})
		if err != nil {
			slog.Error("Failed to update quest progress",
				slog.String("type", "engine"),
				slog.String("user_id", userID),
				slog.String("quest_id", q.ID),
				slog.Any("error", err))
			errs = append(errs, err)
			continue
		}
		if out.Completed {
			completed = append(completed, updated)
		}
	}
	return completed, errors.Join(errs...)
}

// RecordProgress adds amount to one objective of a progress record.
func (s *QuestService) RecordProgress(ctx context.Context, progressID, objectiveID string, amount int64) (*quest.Progress, quest.Outcome, error) {
	p, err := s.backend.Progress().Get(ctx, progressID)
	if err != nil {
		return nil, quest.Outcome{}, err
	}
	q, err := s.backend.Quests().Get(ctx, p.QuestID)
	if err != nil {
		return nil, quest.Outcome{}, fmt.Errorf("failed to get quest: %w", err)
	}
	now := s.now()
	return s.apply(ctx, progressID, func(next *quest.Progress) (quest.Outcome, error) {
		return quest.RecordProgress(next, q, objectiveID, amount, now)
	})
}

// Fail abandons an active record.
func (s *QuestService) Fail(ctx context.Context, progressID string) (*quest.Progress, error) {
	now := s.now()
	p, _, err := s.apply(ctx, progressID, func(next *quest.Progress) (quest.Outcome, error) {
		if err := quest.Fail(next, now); err != nil {
			return quest.Outcome{}, err
		}
		return quest.Outcome{Changed: true}, nil
	})
	return p, err
}

// apply runs mutate against the latest version of a record until its
// compare-and-swap wins. Increment and completion check land in one write.
func (s *QuestService) apply(ctx context.Context, id string, mutate func(p *quest.Progress) (quest.Outcome, error)) (*quest.Progress, quest.Outcome, error) {
	var (
		result *quest.Progress
		out    quest.Outcome
	)
	err := storage.RetryCAS(ctx, storage.DefaultCASAttempts, func(ctx context.Context) error {
		current, err := s.backend.Progress().Get(ctx, id)
		if err != nil {
			return err
		}
		next := current.Clone()
		o, err := mutate(next)
		if err != nil {
			return err
		}
		if !o.Changed {
			result, out = current, o
			return nil
		}
		if err := s.backend.Progress().CompareAndSwap(ctx, next, current.Version); err != nil {
			return err
		}
		result, out = next, o
		return nil
	})
	if err != nil {
		return nil, quest.Outcome{}, err
	}

	if out.Completed {
		slog.Info("Quest completed",
			slog.String("type", "engine"),
			slog.String("user_id", result.UserID),
			slog.String("quest_id", result.QuestID),
			slog.Duration("time_spent", result.TimeSpent))
	}
	return result, out, nil
}

// Claim pays out a completed quest at most once. The claim transition and
// the account credit share one transaction where the store supports it;
// otherwise the credit is idempotent by progress id and retried by
// RedeliverClaims.
func (s *QuestService) Claim(ctx context.Context, communityID, userID, questID string) (*ClaimResult, error) {
	id := quest.ProgressID(communityID, userID, questID)
	now := s.now()

	var res *ClaimResult
	err := s.backend.InTx(ctx, func(ctx context.Context) error {
		res = nil
		err := storage.RetryCAS(ctx, storage.DefaultCASAttempts, func(ctx context.Context) error {
			current, err := s.backend.Progress().Get(ctx, id)
			if err != nil {
				return err
			}
			q, err := s.backend.Quests().Get(ctx, current.QuestID)
			if err != nil {
				return fmt.Errorf("failed to get quest: %w", err)
			}
			a, err := s.accounts.Get(ctx, communityID, userID)
			if err != nil {
				return err
			}

			next := current.Clone()
			payout, err := quest.Claim(next, q, a.Multiplier(now), a.StreakBonus(s.cfg.StreakBonusPerDay, s.cfg.StreakBonusCap), now)
			if err != nil {
				return err
			}
			if err := s.backend.Progress().CompareAndSwap(ctx, next, current.Version); err != nil {
				return err
			}
			res = &ClaimResult{Progress: next, Quest: q, Reward: payout}
			return nil
		})
		if err != nil {
			return err
		}
		return s.deliver(ctx, res)
	})
	if err != nil {
		if res == nil || s.backend.Atomic() {
			return nil, err
		}
		slog.Warn("Quest reward delivery deferred",
			slog.String("type", "engine"),
			slog.String("user_id", userID),
			slog.String("quest_id", questID),
			slog.Any("error", err))
		return res, nil
	}

	slog.Info("Quest rewards claimed",
		slog.String("type", "engine"),
		slog.String("user_id", userID),
		slog.String("quest_id", questID),
		slog.Int64("xp", res.Reward.XP),
		slog.Int64("coins", res.Reward.Coins),
		slog.Int64("tokens", res.Reward.Tokens))
	return res, nil
}

func (s *QuestService) deliver(ctx context.Context, res *ClaimResult) error {
	p := res.Progress
	acct, err := s.accounts.Grant(ctx, p.UserID, p.CommunityID, p.ID, p.Reward, res.Quest.Rewards.Effect)
	if err != nil {
		return err
	}
	res.Account = acct

	delivered, err := s.markDelivered(ctx, p.ID)
	if err != nil {
		return err
	}
	res.Progress = delivered
	res.Delivered = true
	return nil
}

func (s *QuestService) markDelivered(ctx context.Context, id string) (*quest.Progress, error) {
	p, _, err := s.apply(ctx, id, func(next *quest.Progress) (quest.Outcome, error) {
		if next.Status != quest.StatusClaimed || next.RewardDelivered {
			return quest.Outcome{}, nil
		}
		next.RewardDelivered = true
		return quest.Outcome{Changed: true}, nil
	})
	return p, err
}

// RedeliverClaims credits claimed rewards whose delivery never completed.
func (s *QuestService) RedeliverClaims(ctx context.Context) (int, error) {
	pending, err := s.backend.Progress().ListUndelivered(ctx, config.SweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list undelivered claims: %w", err)
	}

	delivered := 0
	var errs []error
	for _, p := range pending {
		var effect *quest.SpecialEffect
		q, err := s.backend.Quests().Get(ctx, p.QuestID)
		switch {
		case err == nil:
			effect = q.Rewards.Effect
		case !apperrors.IsNotFound(err):
			errs = append(errs, err)
			continue
		}

		if _, err := s.accounts.Grant(ctx, p.UserID, p.CommunityID, p.ID, p.Reward, effect); err != nil {
			errs = append(errs, fmt.Errorf("redeliver %s: %w", p.ID, err))
			continue
		}
		if _, err := s.markDelivered(ctx, p.ID); err != nil {
			errs = append(errs, fmt.Errorf("mark %s delivered: %w", p.ID, err))
			continue
		}
		delivered++
	}

	if delivered > 0 {
		slog.Info("Redelivered quest rewards",
			slog.String("type", "engine"),
			slog.Int("count", delivered))
	}
	return delivered, errors.Join(errs...)
}

// Status lists the user's quests that are still running or claimable.
func (s *QuestService) Status(ctx context.Context, communityID, userID string) ([]QuestStatus, error) {
	records, err := s.backend.Progress().ListByUser(ctx, communityID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}

	now := s.now()
	out := make([]QuestStatus, 0, len(records))
	for _, p := range records {
		if p.Status.Terminal() && p.Status != quest.StatusClaimed {
			continue
		}
		q, err := s.backend.Quests().Get(ctx, p.QuestID)
		if apperrors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get quest: %w", err)
		}
		if q.Expired(now) && p.Status != quest.StatusCompleted {
			continue
		}
		out = append(out, QuestStatus{
			Quest:      q,
			Progress:   p,
			Percentage: quest.ProgressPercentage(p, q),
			ResetsAt:   q.AvailableUntil,
		})
	}
	return out, nil
}

// Available lists the quests of a community open at the moment.
func (s *QuestService) Available(ctx context.Context, communityID string) ([]*quest.Quest, error) {
	quests, err := s.backend.Quests().ListActive(ctx, communityID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := quests[:0]
	for _, q := range quests {
		if q.Open(now) {
			out = append(out, q)
		}
	}
	return out, nil
}

// Publish stores a validated quest instance for a community. Publishing the
// same instance twice is reported as ErrAlreadyExists.
func (s *QuestService) Publish(ctx context.Context, q *quest.Quest) error {
	if err := q.Validate(); err != nil {
		return err
	}
	if q.CommunityID == "" {
		return apperrors.Invalid("community_id", "must not be empty")
	}
	now := s.now()
	q.CreatedAt, q.UpdatedAt = now, now
	return s.backend.Quests().Create(ctx, q)
}

// Rotate generates the current cycle of typ for a community. A cycle that
// already rotated is left untouched, so re-runs are no-ops.
func (s *QuestService) Rotate(ctx context.Context, communityID string, typ quest.Type) (bool, error) {
	now := s.now()
	cycle := quest.CycleKey(now, typ, s.loc)
	key := quest.RotationMarker(communityID, typ)

	last, ok, err := s.backend.Markers().GetMarker(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to read rotation marker: %w", err)
	}
	if ok && last == cycle {
		return false, nil
	}

	templates, err := s.catalog.Templates(ctx)
	if err != nil {
		return false, err
	}

	existing, err := s.backend.Quests().ListByCommunity(ctx, communityID)
	if err != nil {
		return false, fmt.Errorf("failed to list community quests: %w", err)
	}
	for _, q := range existing {
		if q.Type == typ && q.Active && q.Cycle != cycle {
			if err := s.deactivate(ctx, q.ID); err != nil {
				return false, err
			}
		}
	}

	from, until := quest.PeriodStart(now, typ, s.loc), quest.NextReset(now, typ, s.loc)
	created := 0
	for _, tpl := range quest.SelectTemplates(templates, typ, communityID, cycle, s.cfg.QuestsPerTier) {
		inst := quest.Instantiate(tpl, communityID, cycle, from, until)
		inst.CreatedAt, inst.UpdatedAt = now, now
		err := s.backend.Quests().Create(ctx, inst)
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("failed to create quest %s: %w", inst.ID, err)
		}
		created++
	}

	if err := s.backend.Markers().SetMarker(ctx, key, cycle); err != nil {
		return false, fmt.Errorf("failed to write rotation marker: %w", err)
	}

	slog.Info("Rotated quests",
		slog.String("type", "engine"),
		slog.String("community_id", communityID),
		slog.String("quest_type", string(typ)),
		slog.String("cycle", cycle),
		slog.Int("created", created))
	return true, nil
}

// publishStanding makes every open non-rotating template available in the
// community once.
func (s *QuestService) publishStanding(ctx context.Context, communityID string) error {
	templates, err := s.catalog.Templates(ctx)
	if err != nil {
		return err
	}
	now := s.now()
	for _, tpl := range templates {
		if tpl.Type.Rotating() || !tpl.Active || tpl.Expired(now) {
			continue
		}
		inst := quest.Instantiate(tpl, communityID, standingCycle, tpl.AvailableFrom, tpl.AvailableUntil)
		inst.CreatedAt, inst.UpdatedAt = now, now
		if err := s.backend.Quests().Create(ctx, inst); err != nil && !errors.Is(err, apperrors.ErrAlreadyExists) {
			return fmt.Errorf("failed to publish quest %s: %w", inst.ID, err)
		}
	}
	return nil
}

// RotateAll rotates every rotating type and publishes standing quests in
// every known community. One community's failure does not stop the others.
func (s *QuestService) RotateAll(ctx context.Context) error {
	communities, err := s.backend.Accounts().ListCommunities(ctx)
	if err != nil {
		return fmt.Errorf("failed to list communities: %w", err)
	}

	var errs []error
	for _, communityID := range communities {
		for _, typ := range rotatingTypes {
			if _, err := s.Rotate(ctx, communityID, typ); err != nil {
				errs = append(errs, fmt.Errorf("rotate %s %s: %w", communityID, typ, err))
			}
		}
		if err := s.publishStanding(ctx, communityID); err != nil {
			errs = append(errs, fmt.Errorf("publish %s: %w", communityID, err))
		}
	}
	return errors.Join(errs...)
}

// ExpireQuests deactivates quests whose window closed and expires their
// unfinished progress. Completed records keep the claim grace period.
func (s *QuestService) ExpireQuests(ctx context.Context) (ExpiryResult, error) {
	now := s.now()
	grace := s.cfg.ClaimGrace()

	quests, err := s.backend.Quests().ListExpired(ctx, now.Add(-grace-expirySettleWindow), now)
	if err != nil {
		return ExpiryResult{}, fmt.Errorf("failed to list expired quests: %w", err)
	}

	var (
		res  ExpiryResult
		errs []error
	)
	for _, q := range quests {
		if q.Active {
			if err := s.deactivate(ctx, q.ID); err != nil {
				errs = append(errs, err)
				continue
			}
			res.Deactivated++
		}

		records, err := s.backend.Progress().ListByQuest(ctx, q.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		claimBy := q.AvailableUntil.Add(grace)
		for _, p := range records {
			if p.Status != quest.StatusActive && p.Status != quest.StatusCompleted {
				continue
			}
			_, out, err := s.apply(ctx, p.ID, func(next *quest.Progress) (quest.Outcome, error) {
				if next.Status == quest.StatusCompleted && now.Before(claimBy) {
					return quest.Outcome{}, nil
				}
				if !quest.CanTransition(next.Status, quest.StatusExpired) {
					return quest.Outcome{}, nil
				}
				if err := quest.Expire(next, now); err != nil {
					return quest.Outcome{}, err
				}
				return quest.Outcome{Changed: true}, nil
			})
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if out.Changed {
				res.Expired++
			}
		}
	}

	if res.Deactivated > 0 || res.Expired > 0 {
		slog.Info("Expired quests",
			slog.String("type", "engine"),
			slog.Int("deactivated", res.Deactivated),
			slog.Int("progress_expired", res.Expired))
	}
	return res, errors.Join(errs...)
}

func (s *QuestService) deactivate(ctx context.Context, id string) error {
	now := s.now()
	return storage.RetryCAS(ctx, storage.DefaultCASAttempts, func(ctx context.Context) error {
		q, err := s.backend.Quests().Get(ctx, id)
		if err != nil {
			return err
		}
		if !q.Active {
			return nil
		}
		next := q.Clone()
		next.Active = false
		next.UpdatedAt = now
		return s.backend.Quests().CompareAndSwap(ctx, next, q.Version)
	})
}

// DayKeys returns the local day of t and the day before, as used by the
// daily streak.
func (s *QuestService) DayKeys(t time.Time) (day, previous string) {
	start := quest.PeriodStart(t, quest.TypeDaily, s.loc)
	return start.Format("2006-01-02"), start.AddDate(0, 0, -1).Format("2006-01-02")
}

func hasObjective(q *quest.Quest, kind quest.ObjectiveKind, scope string) bool {
	for _, o := range q.Objectives {
		if o.Matches(kind, scope) {
			return true
		}
	}
	return false
}
