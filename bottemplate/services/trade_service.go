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
	"github.com/ellavondegurechaff/progression/internal/domain/trade"
	"github.com/ellavondegurechaff/progression/internal/gateways"
	"github.com/google/uuid"
)

// ErrTradeCooldown is returned when a user proposes again too soon after
// their last resolved trade.
var ErrTradeCooldown = errors.New("trade on cooldown")

// Settlement legs. Each is an idempotent grant on one account.
const (
	legOfferDebit    = "offer-debit"
	legRequestDebit  = "request-debit"
	legOfferCredit   = "offer-credit"
	legRequestCredit = "request-credit"
	legOfferRefund   = "offer-refund"
)

type TradeService struct {
	backend  gateways.Backend
	accounts *AccountService
	recorder ActivityRecorder
	cfg      config.Engine
	now      func() time.Time
}

func NewTradeService(backend gateways.Backend, accounts *AccountService, recorder ActivityRecorder, cfg config.Engine) *TradeService {
	return &TradeService{
		backend:  backend,
		accounts: accounts,
		recorder: recorder,
		cfg:      cfg.WithDefaults(),
		now:      time.Now,
	}
}

// Propose records a pending exchange from offererID to targetID.
func (s *TradeService) Propose(ctx context.Context, communityID, offererID, targetID string, offer, request reward.Bundle) (*trade.Record, error) {
	now := s.now()
	r := &trade.Record{
		ID:          uuid.NewString(),
		CommunityID: communityID,
		OffererID:   offererID,
		TargetID:    targetID,
		Offer:       offer,
		Request:     request,
		Status:      trade.StatusPending,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.cfg.TradeTTL()),
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	last, err := s.backend.Trades().LastResolvedBy(ctx, communityID, offererID)
	switch {
	case err == nil && last.ResolvedAt != nil:
		if ready := last.ResolvedAt.Add(s.cfg.TradeCooldown()); now.Before(ready) {
			return nil, fmt.Errorf("%w: %s until %s", ErrTradeCooldown, offererID, ready.Format(time.RFC3339))
		}
	case err != nil && !apperrors.IsNotFound(err):
		return nil, fmt.Errorf("failed to check trade cooldown: %w", err)
	}

	if err := s.backend.Trades().Create(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to create trade: %w", err)
	}

	slog.Info("Trade proposed",
		slog.String("type", "engine"),
		slog.String("trade_id", r.ID),
		slog.String("offerer_id", offererID),
		slog.String("target_id", targetID))
	return r, nil
}

// Accept settles a pending trade. The record is reserved as settling before
// any funds move, so a concurrent decline, cancel or expiry either wins
// outright or fails against the reservation. An offerer short on funds hands
// the trade back to pending; a target short on funds declines it, with the
// offerer refunded on stores without transactions.
func (s *TradeService) Accept(ctx context.Context, tradeID, userID string) (*trade.Record, error) {
	r, err := s.backend.Trades().Get(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if r.TargetID != userID {
		return nil, apperrors.Invalid("user", "%s is not the target of trade %s", userID, tradeID)
	}
	if r.Stale(s.now()) {
		if _, err := s.resolve(ctx, tradeID, trade.StatusExpired); err != nil && !apperrors.IsBenign(err) {
			return nil, err
		}
		return nil, apperrors.Conflict("trade "+tradeID, "expired", string(trade.StatusAccepted))
	}
	if r.Status != trade.StatusPending {
		return nil, apperrors.Conflict("trade "+tradeID, string(r.Status), string(trade.StatusAccepted))
	}

	now := s.now()
	reserved, err := s.transition(ctx, tradeID, func(r *trade.Record) error {
		if r.Stale(now) {
			return apperrors.Conflict("trade "+r.ID, "expired", string(trade.StatusSettling))
		}
		return r.Reserve(now)
	})
	if err != nil {
		return nil, err
	}
	return s.settle(ctx, reserved)
}

// ResumeSettling finishes settlements left reserved longer than the settle
// grace, for example by a crash between legs. Legs are idempotent, so a
// resumed settlement never moves funds twice.
func (s *TradeService) ResumeSettling(ctx context.Context) (int, error) {
	reserved, err := s.backend.Trades().ListSettling(ctx, s.now().Add(-config.SettleGrace), config.SweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list settling trades: %w", err)
	}
	resumed := 0
	var errs []error
	for _, r := range reserved {
		_, err := s.settle(ctx, r)
		switch {
		case err == nil:
			resumed++
		case errors.Is(err, account.ErrInsufficientFunds), apperrors.IsBenign(err):
			resumed++
		default:
			errs = append(errs, err)
		}
	}
	if resumed > 0 {
		slog.Info("Resumed trade settlements",
			slog.String("type", "engine"),
			slog.Int("count", resumed))
	}
	return resumed, errors.Join(errs...)
}

// settle runs the legs of a reserved trade. Failures other than missing
// funds leave it settling for ResumeSettling.
func (s *TradeService) settle(ctx context.Context, r *trade.Record) (*trade.Record, error) {
	if !s.backend.Atomic() {
		// A refund means an earlier attempt already gave up on this trade.
		offerer, err := s.accounts.Get(ctx, r.CommunityID, r.OffererID)
		if err != nil {
			return nil, err
		}
		if offerer.HasGrant(trade.GrantID(r.ID, legOfferRefund)) {
			if _, err := s.finish(ctx, r.ID, trade.StatusDeclined); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("trade %s: %w", r.ID, account.ErrInsufficientFunds)
		}
	}

	var (
		leg     string
		settled *trade.Record
	)
	err := s.backend.InTx(ctx, func(ctx context.Context) error {
		leg = legOfferDebit
		if _, err := s.accounts.Debit(ctx, r.OffererID, r.CommunityID, trade.GrantID(r.ID, legOfferDebit), r.Offer); err != nil {
			return err
		}
		leg = legRequestDebit
		if _, err := s.accounts.Debit(ctx, r.TargetID, r.CommunityID, trade.GrantID(r.ID, legRequestDebit), r.Request); err != nil {
			return err
		}
		leg = legOfferCredit
		if _, err := s.accounts.ApplyReward(ctx, r.TargetID, r.CommunityID, trade.GrantID(r.ID, legOfferCredit), r.Offer); err != nil {
			return err
		}
		leg = legRequestCredit
		if _, err := s.accounts.ApplyReward(ctx, r.OffererID, r.CommunityID, trade.GrantID(r.ID, legRequestCredit), r.Request); err != nil {
			return err
		}
		leg = ""
		var err error
		settled, err = s.finish(ctx, r.ID, trade.StatusAccepted)
		return err
	})
	if err == nil {
		s.completed(ctx, settled)
		return settled, nil
	}
	if !errors.Is(err, account.ErrInsufficientFunds) {
		return nil, err
	}

	switch leg {
	case legOfferDebit:
		if _, releaseErr := s.transition(ctx, r.ID, (*trade.Record).Release); releaseErr != nil {
			err = errors.Join(err, fmt.Errorf("release trade: %w", releaseErr))
		}
	case legRequestDebit:
		if !s.backend.Atomic() {
			if _, refundErr := s.accounts.ApplyReward(ctx, r.OffererID, r.CommunityID, trade.GrantID(r.ID, legOfferRefund), r.Offer); refundErr != nil {
				return nil, errors.Join(err, fmt.Errorf("refund offerer: %w", refundErr))
			}
		}
		if _, declineErr := s.finish(ctx, r.ID, trade.StatusDeclined); declineErr != nil {
			err = errors.Join(err, fmt.Errorf("decline trade: %w", declineErr))
		}
	}
	return nil, err
}

func (s *TradeService) completed(ctx context.Context, r *trade.Record) {
	slog.Info("Trade accepted",
		slog.String("type", "engine"),
		slog.String("trade_id", r.ID),
		slog.String("offerer_id", r.OffererID),
		slog.String("target_id", r.TargetID))

	if s.recorder == nil {
		return
	}
	at := s.now()
	for _, u := range []string{r.OffererID, r.TargetID} {
		s.recorder.Track(ctx, Activity{UserID: u, CommunityID: r.CommunityID, Kind: quest.KindTradeCompleted, Amount: 1, Timestamp: at})
	}
	if r.Request.Coins > 0 {
		s.recorder.Track(ctx, Activity{UserID: r.OffererID, CommunityID: r.CommunityID, Kind: quest.KindCurrencyEarned, Amount: r.Request.Coins, Timestamp: at})
	}
	if r.Offer.Coins > 0 {
		s.recorder.Track(ctx, Activity{UserID: r.TargetID, CommunityID: r.CommunityID, Kind: quest.KindCurrencyEarned, Amount: r.Offer.Coins, Timestamp: at})
	}
}

// Decline is the target refusing a pending trade.
func (s *TradeService) Decline(ctx context.Context, tradeID, userID string) (*trade.Record, error) {
	r, err := s.backend.Trades().Get(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if r.TargetID != userID {
		return nil, apperrors.Invalid("user", "%s is not the target of trade %s", userID, tradeID)
	}
	return s.resolve(ctx, tradeID, trade.StatusDeclined)
}

// Cancel is the offerer withdrawing a pending trade.
func (s *TradeService) Cancel(ctx context.Context, tradeID, userID string) (*trade.Record, error) {
	r, err := s.backend.Trades().Get(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if r.OffererID != userID {
		return nil, apperrors.Invalid("user", "%s did not offer trade %s", userID, tradeID)
	}
	return s.resolve(ctx, tradeID, trade.StatusCancelled)
}

// ExpireStale expires pending trades past their deadline.
func (s *TradeService) ExpireStale(ctx context.Context) (int, error) {
	stale, err := s.backend.Trades().ListStalePending(ctx, s.now(), config.SweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale trades: %w", err)
	}
	expired := 0
	var errs []error
	for _, r := range stale {
		_, err := s.resolve(ctx, r.ID, trade.StatusExpired)
		if err != nil {
			if !apperrors.IsBenign(err) {
				errs = append(errs, err)
			}
			continue
		}
		expired++
	}
	if expired > 0 {
		slog.Info("Expired stale trades",
			slog.String("type", "engine"),
			slog.Int("count", expired))
	}
	return expired, errors.Join(errs...)
}

func (s *TradeService) resolve(ctx context.Context, id string, to trade.Status) (*trade.Record, error) {
	now := s.now()
	return s.transition(ctx, id, func(r *trade.Record) error {
		return r.Resolve(to, now)
	})
}

func (s *TradeService) finish(ctx context.Context, id string, to trade.Status) (*trade.Record, error) {
	now := s.now()
	return s.transition(ctx, id, func(r *trade.Record) error {
		return r.Settle(to, now)
	})
}

// transition applies fn to the latest record and persists it.
func (s *TradeService) transition(ctx context.Context, id string, fn func(r *trade.Record) error) (*trade.Record, error) {
	var out *trade.Record
	err := storage.RetryCAS(ctx, storage.DefaultCASAttempts, func(ctx context.Context) error {
		current, err := s.backend.Trades().Get(ctx, id)
		if err != nil {
			return err
		}
		next := *current
		if err := fn(&next); err != nil {
			return err
		}
		if err := s.backend.Trades().CompareAndSwap(ctx, &next, current.Version); err != nil {
			return err
		}
		out = &next
		return nil
	})
	return out, err
}
