// Package memstore is the in-process backend: every repository contract
// implemented over xsync maps. It backs tests and single-process
// deployments started with storage driver "memory".
package memstore

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/ellavondegurechaff/progression/internal/domain/account"
	"github.com/ellavondegurechaff/progression/internal/domain/apperrors"
	"github.com/ellavondegurechaff/progression/internal/domain/leaderboard"
	"github.com/ellavondegurechaff/progression/internal/domain/quest"
	"github.com/ellavondegurechaff/progression/internal/domain/rating"
	"github.com/ellavondegurechaff/progression/internal/domain/storage"
	"github.com/ellavondegurechaff/progression/internal/domain/trade"
	"github.com/puzpuzpuz/xsync/v3"
)

type Store struct {
	storage.Direct

	quests    *table[*quest.Quest]
	templates *table[*quest.Quest]
	progress  *table[*quest.Progress]
	accounts  *table[*account.Account]
	rankings  *table[*rating.Ranking]
	matches   *table[*rating.Match]
	trades    *table[*trade.Record]
	markers   *xsync.MapOf[string, string]
	boards    *xsync.MapOf[string, *leaderboard.Board]
	stats     *xsync.MapOf[string, []leaderboard.QuestStat]
}

func New() *Store {
	return &Store{
		quests: newTable("quest", (*quest.Quest).Clone,
			func(q *quest.Quest) int64 { return q.Version },
			func(q *quest.Quest, v int64) { q.Version = v }),
		templates: newTable("quest template", (*quest.Quest).Clone,
			func(q *quest.Quest) int64 { return q.Version },
			func(q *quest.Quest, v int64) { q.Version = v }),
		progress: newTable("quest progress", (*quest.Progress).Clone,
			func(p *quest.Progress) int64 { return p.Version },
			func(p *quest.Progress, v int64) { p.Version = v }),
		accounts: newTable("account", (*account.Account).Clone,
			func(a *account.Account) int64 { return a.Version },
			func(a *account.Account, v int64) { a.Version = v }),
		rankings: newTable("ranking", (*rating.Ranking).Clone,
			func(r *rating.Ranking) int64 { return r.Version },
			func(r *rating.Ranking, v int64) { r.Version = v }),
		matches: newTable("match", cloneMatch,
			func(m *rating.Match) int64 { return m.Version },
			func(m *rating.Match, v int64) { m.Version = v }),
		trades: newTable("trade", cloneTrade,
			func(r *trade.Record) int64 { return r.Version },
			func(r *trade.Record, v int64) { r.Version = v }),
		markers: xsync.NewMapOf[string, string](),
		boards:  xsync.NewMapOf[string, *leaderboard.Board](),
		stats:   xsync.NewMapOf[string, []leaderboard.QuestStat](),
	}
}

func (s *Store) Quests() quest.Repository             { return questRepo{s} }
func (s *Store) Templates() quest.TemplateRepository  { return templateRepo{s} }
func (s *Store) Progress() quest.ProgressRepository   { return progressRepo{s} }
func (s *Store) Markers() quest.MarkerRepository      { return markerRepo{s} }
func (s *Store) Accounts() account.Repository         { return accountRepo{s} }
func (s *Store) Rankings() rating.Repository          { return rankingRepo{s} }
func (s *Store) Matches() rating.MatchRepository      { return matchRepo{s} }
func (s *Store) Trades() trade.Repository             { return tradeRepo{s} }
func (s *Store) Leaderboards() leaderboard.Repository { return boardRepo{s} }
func (s *Store) Close(context.Context) error          { return nil }
func (s *Store) Ping(context.Context) error           { return nil }

type questRepo struct{ s *Store }

func (r questRepo) Get(_ context.Context, id string) (*quest.Quest, error) {
	return r.s.quests.get(id)
}

func (r questRepo) Create(_ context.Context, q *quest.Quest) error {
	return r.s.quests.create(q.ID, q)
}

func (r questRepo) CompareAndSwap(_ context.Context, q *quest.Quest, expectedVersion int64) error {
	return r.s.quests.cas(q.ID, q, expectedVersion)
}

func (r questRepo) ListActive(_ context.Context, communityID string) ([]*quest.Quest, error) {
	return r.s.quests.list(func(q *quest.Quest) bool {
		return q.CommunityID == communityID && q.Active
	}), nil
}

func (r questRepo) ListExpired(_ context.Context, closedAfter, now time.Time) ([]*quest.Quest, error) {
	return r.s.quests.list(func(q *quest.Quest) bool {
		return q.Expired(now) && (q.Active || q.AvailableUntil.After(closedAfter))
	}), nil
}

func (r questRepo) ListByCommunity(_ context.Context, communityID string) ([]*quest.Quest, error) {
	return r.s.quests.list(func(q *quest.Quest) bool { return q.CommunityID == communityID }), nil
}

type templateRepo struct{ s *Store }

func (r templateRepo) ListTemplates(context.Context) ([]*quest.Quest, error) {
	return r.s.templates.list(nil), nil
}

func (r templateRepo) GetTemplate(_ context.Context, id string) (*quest.Quest, error) {
	return r.s.templates.get(id)
}

func (r templateRepo) UpsertTemplate(_ context.Context, q *quest.Quest) error {
	r.s.templates.put(q.ID, q)
	return nil
}

type progressRepo struct{ s *Store }

func (r progressRepo) Get(_ context.Context, id string) (*quest.Progress, error) {
	return r.s.progress.get(id)
}

func (r progressRepo) Create(_ context.Context, p *quest.Progress) error {
	return r.s.progress.create(p.ID, p)
}

func (r progressRepo) CompareAndSwap(_ context.Context, p *quest.Progress, expectedVersion int64) error {
	return r.s.progress.cas(p.ID, p, expectedVersion)
}

func (r progressRepo) ListByUser(_ context.Context, communityID, userID string) ([]*quest.Progress, error) {
	return r.s.progress.list(func(p *quest.Progress) bool {
		return p.CommunityID == communityID && p.UserID == userID
	}), nil
}

func (r progressRepo) ListByQuest(_ context.Context, questID string) ([]*quest.Progress, error) {
	return r.s.progress.list(func(p *quest.Progress) bool { return p.QuestID == questID }), nil
}

func (r progressRepo) ListUndelivered(_ context.Context, limit int) ([]*quest.Progress, error) {
	out := r.s.progress.list(func(p *quest.Progress) bool {
		return p.Status == quest.StatusClaimed && !p.RewardDelivered
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type markerRepo struct{ s *Store }

func (r markerRepo) GetMarker(_ context.Context, key string) (string, bool, error) {
	v, ok := r.s.markers.Load(key)
	return v, ok, nil
}

func (r markerRepo) SetMarker(_ context.Context, key, value string) error {
	r.s.markers.Store(key, value)
	return nil
}

type accountRepo struct{ s *Store }

func (r accountRepo) Get(_ context.Context, communityID, userID string) (*account.Account, error) {
	return r.s.accounts.get(account.Key(communityID, userID))
}

func (r accountRepo) Create(_ context.Context, a *account.Account) error {
	return r.s.accounts.create(account.Key(a.CommunityID, a.UserID), a)
}

func (r accountRepo) CompareAndSwap(_ context.Context, a *account.Account, expectedVersion int64) error {
	return r.s.accounts.cas(account.Key(a.CommunityID, a.UserID), a, expectedVersion)
}

func (r accountRepo) ListByCommunity(_ context.Context, communityID string) ([]*account.Account, error) {
	return r.s.accounts.list(func(a *account.Account) bool { return a.CommunityID == communityID }), nil
}

func (r accountRepo) ListCommunities(context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	for _, a := range r.s.accounts.list(nil) {
		seen[a.CommunityID] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

type rankingRepo struct{ s *Store }

func rankingKey(communityID, userID string) string { return communityID + ":" + userID }

func (r rankingRepo) Get(_ context.Context, communityID, userID string) (*rating.Ranking, error) {
	return r.s.rankings.get(rankingKey(communityID, userID))
}

func (r rankingRepo) Create(_ context.Context, rk *rating.Ranking) error {
	return r.s.rankings.create(rankingKey(rk.CommunityID, rk.UserID), rk)
}

func (r rankingRepo) CompareAndSwap(_ context.Context, rk *rating.Ranking, expectedVersion int64) error {
	return r.s.rankings.cas(rankingKey(rk.CommunityID, rk.UserID), rk, expectedVersion)
}

func (r rankingRepo) ListByCommunity(_ context.Context, communityID string) ([]*rating.Ranking, error) {
	return r.s.rankings.list(func(rk *rating.Ranking) bool { return rk.CommunityID == communityID }), nil
}

type matchRepo struct{ s *Store }

func (r matchRepo) Get(_ context.Context, id string) (*rating.Match, error) {
	return r.s.matches.get(id)
}

func (r matchRepo) Create(_ context.Context, m *rating.Match) error {
	return r.s.matches.create(m.ID, m)
}

func (r matchRepo) CompareAndSwap(_ context.Context, m *rating.Match, expectedVersion int64) error {
	return r.s.matches.cas(m.ID, m, expectedVersion)
}

func (r matchRepo) FindOpen(_ context.Context, communityID, userA, userB string) (*rating.Match, error) {
	open := r.s.matches.list(func(m *rating.Match) bool {
		return m.CommunityID == communityID && !m.Status.Terminal() && m.Involves(userA) && m.Involves(userB)
	})
	if len(open) == 0 {
		return nil, apperrors.NotFound("open match", userA+"/"+userB)
	}
	slices.SortFunc(open, func(a, b *rating.Match) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return open[0], nil
}

func (r matchRepo) ListStale(_ context.Context, now time.Time, limit int) ([]*rating.Match, error) {
	return capped(r.s.matches.list(func(m *rating.Match) bool {
		return !m.Status.Terminal() && !m.ExpiresAt.IsZero() && m.ExpiresAt.Before(now)
	}), limit), nil
}

func (r matchRepo) ListUnapplied(_ context.Context, limit int) ([]*rating.Match, error) {
	return capped(r.s.matches.list(func(m *rating.Match) bool {
		return m.Rated() && !m.RatingsApplied
	}), limit), nil
}

type tradeRepo struct{ s *Store }

func (r tradeRepo) Get(_ context.Context, id string) (*trade.Record, error) {
	return r.s.trades.get(id)
}

func (r tradeRepo) Create(_ context.Context, t *trade.Record) error {
	return r.s.trades.create(t.ID, t)
}

func (r tradeRepo) CompareAndSwap(ctx context.Context, t *trade.Record, expectedVersion int64) error {
	current, err := r.s.trades.get(t.ID)
	if err != nil {
		return err
	}
	if current.Status.Terminal() {
		return apperrors.Conflict("trade "+t.ID, string(current.Status), string(t.Status))
	}
	return r.s.trades.cas(t.ID, t, expectedVersion)
}

func (r tradeRepo) ListStalePending(_ context.Context, now time.Time, limit int) ([]*trade.Record, error) {
	return capped(r.s.trades.list(func(t *trade.Record) bool { return t.Stale(now) }), limit), nil
}

func (r tradeRepo) ListSettling(_ context.Context, before time.Time, limit int) ([]*trade.Record, error) {
	return capped(r.s.trades.list(func(t *trade.Record) bool {
		return t.Status == trade.StatusSettling && t.SettlingAt != nil && !t.SettlingAt.After(before)
	}), limit), nil
}

func (r tradeRepo) LastResolvedBy(_ context.Context, communityID, offererID string) (*trade.Record, error) {
	var last *trade.Record
	for _, t := range r.s.trades.list(func(t *trade.Record) bool {
		return t.CommunityID == communityID && t.OffererID == offererID && t.ResolvedAt != nil
	}) {
		if last == nil || t.ResolvedAt.After(*last.ResolvedAt) {
			last = t
		}
	}
	if last == nil {
		return nil, apperrors.NotFound("resolved trade", offererID)
	}
	return last, nil
}

type boardRepo struct{ s *Store }

func boardKey(communityID string, kind leaderboard.Kind) string {
	return communityID + ":" + string(kind)
}

func (r boardRepo) ReplaceBoard(_ context.Context, b *leaderboard.Board) error {
	c := *b
	c.Entries = slices.Clone(b.Entries)
	r.s.boards.Store(boardKey(b.CommunityID, b.Kind), &c)
	return nil
}

func (r boardRepo) GetBoard(_ context.Context, communityID string, kind leaderboard.Kind) (*leaderboard.Board, error) {
	b, ok := r.s.boards.Load(boardKey(communityID, kind))
	if !ok {
		return nil, apperrors.NotFound("leaderboard", boardKey(communityID, kind))
	}
	c := *b
	c.Entries = slices.Clone(b.Entries)
	return &c, nil
}

func (r boardRepo) ReplaceQuestStats(_ context.Context, communityID string, stats []leaderboard.QuestStat) error {
	r.s.stats.Store(communityID, slices.Clone(stats))
	return nil
}

func (r boardRepo) ListQuestStats(_ context.Context, communityID string) ([]leaderboard.QuestStat, error) {
	v, _ := r.s.stats.Load(communityID)
	return slices.Clone(v), nil
}

func cloneMatch(m *rating.Match) *rating.Match {
	c := *m
	return &c
}

func cloneTrade(t *trade.Record) *trade.Record {
	c := *t
	c.Offer.Items = slices.Clone(t.Offer.Items)
	c.Request.Items = slices.Clone(t.Request.Items)
	return &c
}

func capped[T any](rows []T, limit int) []T {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}
