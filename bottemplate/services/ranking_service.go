package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ellavondegurechaff/progression/bottemplate/config"
	"github.com/ellavondegurechaff/progression/internal/domain/apperrors"
	"github.com/ellavondegurechaff/progression/internal/domain/quest"
	"github.com/ellavondegurechaff/progression/internal/domain/rating"
	"github.com/ellavondegurechaff/progression/internal/domain/storage"
	"github.com/ellavondegurechaff/progression/internal/gateways"
	"github.com/google/uuid"
)

// MatchResult is a match together with both rankings after it was rated.
type MatchResult struct {
	Match      *rating.Match
	Challenger *rating.Ranking
	Opponent   *rating.Ranking
	// Applied is false when the ratings had already been applied earlier.
	Applied bool
}

type RankingService struct {
	backend  gateways.Backend
	recorder ActivityRecorder
	cfg      config.Engine
	policy   rating.ExpiryPolicy
	now      func() time.Time
}

func NewRankingService(backend gateways.Backend, recorder ActivityRecorder, cfg config.Engine) *RankingService {
	cfg = cfg.WithDefaults()
	return &RankingService{
		backend:  backend,
		recorder: recorder,
		cfg:      cfg,
		policy:   rating.ExpiryPolicy(cfg.ExpiryPolicy),
		now:      time.Now,
	}
}

// Ranking returns the user's ladder state, or the default for a newcomer.
func (s *RankingService) Ranking(ctx context.Context, communityID, userID string) (*rating.Ranking, error) {
	r, err := s.backend.Rankings().Get(ctx, communityID, userID)
	if apperrors.IsNotFound(err) {
		return rating.NewRanking(communityID, userID), nil
	}
	return r, err
}

// Challenge opens a pending duel. Only one open match may exist per pair.
func (s *RankingService) Challenge(ctx context.Context, communityID, challengerID, opponentID, mode string) (*rating.Match, error) {
	if challengerID == "" || opponentID == "" {
		return nil, apperrors.Invalid("participants", "both sides are required")
	}
	if challengerID == opponentID {
		return nil, apperrors.Invalid("participants", "cannot challenge yourself")
	}

	open, err := s.backend.Matches().FindOpen(ctx, communityID, challengerID, opponentID)
	switch {
	case err == nil:
		return open, fmt.Errorf("%w: match %s is already %s", apperrors.ErrAlreadyExists, open.ID, open.Status)
	case !apperrors.IsNotFound(err):
		return nil, fmt.Errorf("failed to look up open match: %w", err)
	}

	now := s.now()
	m := &rating.Match{
		ID:           uuid.NewString(),
		CommunityID:  communityID,
		ChallengerID: challengerID,
		OpponentID:   opponentID,
		Mode:         mode,
		Status:       rating.MatchPending,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.cfg.ChallengeTTL()),
		UpdatedAt:    now,
	}
	if err := s.backend.Matches().Create(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	slog.Info("Duel challenge created",
		slog.String("type", "engine"),
		slog.String("match_id", m.ID),
		slog.String("challenger_id", challengerID),
		slog.String("opponent_id", opponentID))
	return m, nil
}

// Accept starts a pending duel. Only the challenged user may accept.
func (s *RankingService) Accept(ctx context.Context, matchID, userID string) (*rating.Match, error) {
	now := s.now()
	return s.mutateMatch(ctx, matchID, func(m *rating.Match) error {
		if m.OpponentID != userID {
			return apperrors.Invalid("user", "%s was not challenged in match %s", userID, matchID)
		}
		if !now.Before(m.ExpiresAt) {
			return apperrors.Conflict("match "+matchID, "stale "+string(m.Status), string(rating.MatchInProgress))
		}
		return m.Accept(now, s.cfg.MatchTTL())
	})
}

// ReportMatchResult records a finished duel from userID's side and applies
// the rating change. It serves trusted match controllers: a report without an
// open match rates an ad hoc duel.
func (s *RankingService) ReportMatchResult(ctx context.Context, communityID, userID, opponentID string, outcome rating.Outcome, mode string, duration time.Duration) (*MatchResult, error) {
	return s.report(ctx, communityID, userID, opponentID, outcome, mode, duration, true)
}

// ReportDuel records the result of a duel the opponent accepted. Unlike
// ReportMatchResult it never rates a duel that was not agreed to.
func (s *RankingService) ReportDuel(ctx context.Context, communityID, userID, opponentID string, outcome rating.Outcome, duration time.Duration) (*MatchResult, error) {
	return s.report(ctx, communityID, userID, opponentID, outcome, "", duration, false)
}

func (s *RankingService) report(ctx context.Context, communityID, userID, opponentID string, outcome rating.Outcome, mode string, duration time.Duration, adHoc bool) (*MatchResult, error) {
	if !outcome.Valid() {
		return nil, apperrors.Invalid("outcome", "unknown outcome %q", outcome)
	}
	if userID == opponentID {
		return nil, apperrors.Invalid("participants", "cannot play yourself")
	}
	now := s.now()

	open, err := s.backend.Matches().FindOpen(ctx, communityID, userID, opponentID)
	var m *rating.Match
	switch {
	case err == nil:
		m, err = s.mutateMatch(ctx, open.ID, func(m *rating.Match) error {
			return m.Complete(userID, outcome, duration, now)
		})
		if err != nil {
			return nil, err
		}
	case apperrors.IsNotFound(err) && !adHoc:
		return nil, apperrors.NotFound("accepted duel", userID+" vs "+opponentID)
	case apperrors.IsNotFound(err):
		m = &rating.Match{
			ID:           uuid.NewString(),
			CommunityID:  communityID,
			ChallengerID: userID,
			OpponentID:   opponentID,
			Mode:         mode,
			Status:       rating.MatchInProgress,
			CreatedAt:    now,
			AcceptedAt:   &now,
			ExpiresAt:    now,
			UpdatedAt:    now,
		}
		if err := m.Complete(userID, outcome, duration, now); err != nil {
			return nil, err
		}
		if err := s.backend.Matches().Create(ctx, m); err != nil {
			return nil, fmt.Errorf("failed to record match: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to look up open match: %w", err)
	}

	return s.applyRatings(ctx, m)
}

// applyRatings rates both participants of a terminal match. Each side is
// one compare-and-swap of rating, counters, streaks and history, computed
// from both pre-match ratings; a side that already holds the match id in
// its history is skipped, so a retry after a partial failure is safe.
func (s *RankingService) applyRatings(ctx context.Context, m *rating.Match) (*MatchResult, error) {
	if !m.Rated() {
		return nil, apperrors.Conflict("match "+m.ID, string(m.Status), "rated")
	}

	res := &MatchResult{Match: m}
	err := s.backend.InTx(ctx, func(ctx context.Context) error {
		challenger, err := s.Ranking(ctx, m.CommunityID, m.ChallengerID)
		if err != nil {
			return err
		}
		opponent, err := s.Ranking(ctx, m.CommunityID, m.OpponentID)
		if err != nil {
			return err
		}
		challengerBefore := ratingBefore(challenger, m.ID)
		opponentBefore := ratingBefore(opponent, m.ID)

		var appliedC, appliedO bool
		if res.Challenger, appliedC, err = s.rate(ctx, m, m.ChallengerID, opponentBefore); err != nil {
			return err
		}
		if res.Opponent, appliedO, err = s.rate(ctx, m, m.OpponentID, challengerBefore); err != nil {
			return err
		}
		res.Applied = appliedC || appliedO

		res.Match, err = s.mutateMatch(ctx, m.ID, func(m *rating.Match) error {
			if m.RatingsApplied {
				return errSkip
			}
			m.RatingsApplied = true
			m.UpdatedAt = s.now()
			return nil
		})
		if errors.Is(err, errSkip) {
			return nil
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply ratings for match %s: %w", m.ID, err)
	}

	if res.Applied {
		slog.Info("Match rated",
			slog.String("type", "engine"),
			slog.String("match_id", m.ID),
			slog.String("outcome", string(m.Outcome)),
			slog.Int("challenger_rating", res.Challenger.Rating),
			slog.Int("opponent_rating", res.Opponent.Rating))
		s.trackDuel(ctx, res.Match)
	}
	return res, nil
}

func (s *RankingService) rate(ctx context.Context, m *rating.Match, userID string, opponentBefore int) (*rating.Ranking, bool, error) {
	var (
		out     *rating.Ranking
		applied bool
	)
	err := storage.RetryCAS(ctx, storage.DefaultCASAttempts, func(ctx context.Context) error {
		current, err := s.backend.Rankings().Get(ctx, m.CommunityID, userID)
		created := false
		switch {
		case apperrors.IsNotFound(err):
			current = rating.NewRanking(m.CommunityID, userID)
			created = true
		case err != nil:
			return err
		}

		next := current.Clone()
		if !rating.ApplyResult(next, opponentBefore, m.OutcomeFor(userID), m.Entry(userID), s.cfg.HistoryCap) {
			out, applied = current, false
			return nil
		}

		if created {
			err = s.backend.Rankings().Create(ctx, next)
			if errors.Is(err, apperrors.ErrAlreadyExists) {
				return apperrors.ErrVersionConflict
			}
		} else {
			err = s.backend.Rankings().CompareAndSwap(ctx, next, current.Version)
		}
		if err != nil {
			return err
		}
		out, applied = next, true
		return nil
	})
	return out, applied, err
}

// ratingBefore is the rating r held before matchID, whether or not the
// match was already applied to r.
func ratingBefore(r *rating.Ranking, matchID string) int {
	for _, h := range r.History {
		if h.MatchID == matchID {
			return h.RatingBefore
		}
	}
	return r.Rating
}

func (s *RankingService) trackDuel(ctx context.Context, m *rating.Match) {
	if s.recorder == nil {
		return
	}
	at := s.now()
	if m.CompletedAt != nil {
		at = *m.CompletedAt
	}
	for _, userID := range []string{m.ChallengerID, m.OpponentID} {
		s.recorder.Track(ctx, Activity{UserID: userID, CommunityID: m.CommunityID, Kind: quest.KindDuelPlayed, Scope: m.Mode, Amount: 1, Timestamp: at})
		if m.OutcomeFor(userID) == rating.Win {
			s.recorder.Track(ctx, Activity{UserID: userID, CommunityID: m.CommunityID, Kind: quest.KindDuelWon, Scope: m.Mode, Amount: 1, Timestamp: at})
		}
	}
}

// ExpireStaleMatches force-resolves open matches past their time-to-live.
// Unaccepted challenges are cancelled; started duels resolve per policy and
// are rated. Already terminal matches are skipped.
func (s *RankingService) ExpireStaleMatches(ctx context.Context) (int, error) {
	now := s.now()
	stale, err := s.backend.Matches().ListStale(ctx, now, config.SweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale matches: %w", err)
	}

	resolved := 0
	var errs []error
	for _, candidate := range stale {
		var rated bool
		m, err := s.mutateMatch(ctx, candidate.ID, func(m *rating.Match) error {
			if m.Status.Terminal() || now.Before(m.ExpiresAt) {
				return errSkip
			}
			var err error
			rated, err = m.ForceResolve(s.policy, now)
			return err
		})
		if errors.Is(err, errSkip) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		resolved++

		slog.Info("Stale match resolved",
			slog.String("type", "engine"),
			slog.String("match_id", m.ID),
			slog.String("status", string(m.Status)),
			slog.String("outcome", string(m.Outcome)))

		if rated {
			if _, err := s.applyRatings(ctx, m); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return resolved, errors.Join(errs...)
}

// ApplyUnapplied rates terminal matches whose rating application never
// finished.
func (s *RankingService) ApplyUnapplied(ctx context.Context) (int, error) {
	pending, err := s.backend.Matches().ListUnapplied(ctx, config.SweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list unapplied matches: %w", err)
	}
	applied := 0
	var errs []error
	for _, m := range pending {
		if _, err := s.applyRatings(ctx, m); err != nil {
			errs = append(errs, err)
			continue
		}
		applied++
	}
	return applied, errors.Join(errs...)
}

// mutateMatch applies fn to the latest match until its compare-and-swap
// wins. When fn returns errSkip the stored match is returned with errSkip.
func (s *RankingService) mutateMatch(ctx context.Context, id string, fn func(m *rating.Match) error) (*rating.Match, error) {
	var out *rating.Match
	err := storage.RetryCAS(ctx, storage.DefaultCASAttempts, func(ctx context.Context) error {
		current, err := s.backend.Matches().Get(ctx, id)
		if err != nil {
			return err
		}
		next := *current
		if err := fn(&next); err != nil {
			if errors.Is(err, errSkip) {
				out = current
			}
			return err
		}
		if err := s.backend.Matches().CompareAndSwap(ctx, &next, current.Version); err != nil {
			return err
		}
		out = &next
		return nil
	})
	return out, err
}
