// Package mongostore implements the repository contracts on MongoDB. Each
// record is stored as a versioned envelope and mutated with a conditional
// replace on (_id, version).
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ellavondegurechaff/progression/internal/domain/account"
	"github.com/ellavondegurechaff/progression/internal/domain/apperrors"
	"github.com/ellavondegurechaff/progression/internal/domain/leaderboard"
	"github.com/ellavondegurechaff/progression/internal/domain/quest"
	"github.com/ellavondegurechaff/progression/internal/domain/rating"
	"github.com/ellavondegurechaff/progression/internal/domain/storage"
	"github.com/ellavondegurechaff/progression/internal/domain/trade"
)

type Config struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
	// ConnectTimeout in seconds.
	ConnectTimeout int `toml:"connect_timeout"`
}

type Store struct {
	storage.Direct

	client *mongo.Client
	db     *mongo.Database

	quests    *collection[*quest.Quest]
	templates *collection[*quest.Quest]
	progress  *collection[*quest.Progress]
	accounts  *collection[*account.Account]
	rankings  *collection[*rating.Ranking]
	matches   *collection[*rating.Match]
	trades    *collection[*trade.Record]
	markers   *mongo.Collection
	boards    *mongo.Collection
	stats     *mongo.Collection
}

// Connect dials cfg.URI and prepares the collections and indexes.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	timeout := time.Duration(cfg.ConnectTimeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo unreachable: %w", err)
	}

	s := newStore(client, client.Database(cfg.Database))
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	slog.Info("Mongo store ready",
		slog.String("type", "db"),
		slog.String("database", cfg.Database))
	return s, nil
}

func newStore(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		client: client,
		db:     db,
		quests: &collection[*quest.Quest]{
			entity: "quest", coll: db.Collection("quests"),
			version:    func(q *quest.Quest) int64 { return q.Version },
			setVersion: func(q *quest.Quest, v int64) { q.Version = v },
			index: func(q *quest.Quest) bson.M {
				return bson.M{"community_id": q.CommunityID, "active": q.Active, "available_until": q.AvailableUntil}
			},
		},
		templates: &collection[*quest.Quest]{
			entity: "quest template", coll: db.Collection("quest_templates"),
			version:    func(q *quest.Quest) int64 { return q.Version },
			setVersion: func(q *quest.Quest, v int64) { q.Version = v },
		},
		progress: &collection[*quest.Progress]{
			entity: "quest progress", coll: db.Collection("quest_progress"),
			version:    func(p *quest.Progress) int64 { return p.Version },
			setVersion: func(p *quest.Progress, v int64) { p.Version = v },
			index: func(p *quest.Progress) bson.M {
				return bson.M{
					"community_id": p.CommunityID, "user_id": p.UserID, "quest_id": p.QuestID,
					"status": string(p.Status), "reward_delivered": p.RewardDelivered,
				}
			},
		},
		accounts: &collection[*account.Account]{
			entity: "account", coll: db.Collection("accounts"),
			version:    func(a *account.Account) int64 { return a.Version },
			setVersion: func(a *account.Account, v int64) { a.Version = v },
			index:      func(a *account.Account) bson.M { return bson.M{"community_id": a.CommunityID} },
		},
		rankings: &collection[*rating.Ranking]{
			entity: "ranking", coll: db.Collection("rankings"),
			version:    func(r *rating.Ranking) int64 { return r.Version },
			setVersion: func(r *rating.Ranking, v int64) { r.Version = v },
			index:      func(r *rating.Ranking) bson.M { return bson.M{"community_id": r.CommunityID} },
		},
		matches: &collection[*rating.Match]{
			entity: "match", coll: db.Collection("matches"),
			version:    func(m *rating.Match) int64 { return m.Version },
			setVersion: func(m *rating.Match, v int64) { m.Version = v },
			index: func(m *rating.Match) bson.M {
				return bson.M{
					"community_id": m.CommunityID, "participants": []string{m.ChallengerID, m.OpponentID},
					"status": string(m.Status), "terminal": m.Status.Terminal(), "rated": m.Rated(),
					"ratings_applied": m.RatingsApplied, "expires_at": m.ExpiresAt, "created_at": m.CreatedAt,
				}
			},
		},
		trades: &collection[*trade.Record]{
			entity: "trade", coll: db.Collection("trades"),
			version:    func(r *trade.Record) int64 { return r.Version },
			setVersion: func(r *trade.Record, v int64) { r.Version = v },
			index: func(r *trade.Record) bson.M {
				return bson.M{
					"community_id": r.CommunityID, "offerer_id": r.OffererID, "status": string(r.Status),
					"expires_at": r.ExpiresAt, "settling_at": r.SettlingAt, "resolved_at": r.ResolvedAt,
				}
			},
		},
		markers: db.Collection("app_meta"),
		boards:  db.Collection("leaderboards"),
		stats:   db.Collection("quest_stats"),
	}
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.quests.coll:   {{Keys: bson.D{{Key: "community_id", Value: 1}, {Key: "active", Value: 1}}}},
		s.progress.coll: {{Keys: bson.D{{Key: "community_id", Value: 1}, {Key: "user_id", Value: 1}}}, {Keys: bson.D{{Key: "quest_id", Value: 1}}}, {Keys: bson.D{{Key: "status", Value: 1}, {Key: "reward_delivered", Value: 1}}}},
		s.accounts.coll: {{Keys: bson.D{{Key: "community_id", Value: 1}}}},
		s.rankings.coll: {{Keys: bson.D{{Key: "community_id", Value: 1}}}},
		s.matches.coll:  {{Keys: bson.D{{Key: "terminal", Value: 1}, {Key: "expires_at", Value: 1}}}, {Keys: bson.D{{Key: "participants", Value: 1}}}},
		s.trades.coll:   {{Keys: bson.D{{Key: "status", Value: 1}, {Key: "expires_at", Value: 1}}}, {Keys: bson.D{{Key: "offerer_id", Value: 1}}}},
	}
	for coll, models := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
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

type questRepo struct{ s *Store }

func (r questRepo) Get(ctx context.Context, id string) (*quest.Quest, error) {
	return r.s.quests.get(ctx, id)
}

func (r questRepo) Create(ctx context.Context, q *quest.Quest) error {
	return r.s.quests.create(ctx, q.ID, q)
}

func (r questRepo) CompareAndSwap(ctx context.Context, q *quest.Quest, expectedVersion int64) error {
	return r.s.quests.cas(ctx, q.ID, q, expectedVersion)
}

func (r questRepo) ListActive(ctx context.Context, communityID string) ([]*quest.Quest, error) {
	return r.s.quests.find(ctx, bson.M{"community_id": communityID, "active": true})
}

func (r questRepo) ListExpired(ctx context.Context, closedAfter, now time.Time) ([]*quest.Quest, error) {
	return r.s.quests.find(ctx, bson.M{
		"available_until": bson.M{"$lte": now, "$gt": time.Time{}},
		"$or": bson.A{
			bson.M{"active": true},
			bson.M{"available_until": bson.M{"$gt": closedAfter}},
		},
	})
}

func (r questRepo) ListByCommunity(ctx context.Context, communityID string) ([]*quest.Quest, error) {
	return r.s.quests.find(ctx, bson.M{"community_id": communityID})
}

type templateRepo struct{ s *Store }

func (r templateRepo) ListTemplates(ctx context.Context) ([]*quest.Quest, error) {
	return r.s.templates.find(ctx, bson.M{})
}

func (r templateRepo) GetTemplate(ctx context.Context, id string) (*quest.Quest, error) {
	return r.s.templates.get(ctx, id)
}

func (r templateRepo) UpsertTemplate(ctx context.Context, q *quest.Quest) error {
	return r.s.templates.put(ctx, q.ID, q)
}

type progressRepo struct{ s *Store }

func (r progressRepo) Get(ctx context.Context, id string) (*quest.Progress, error) {
	return r.s.progress.get(ctx, id)
}

func (r progressRepo) Create(ctx context.Context, p *quest.Progress) error {
	return r.s.progress.create(ctx, p.ID, p)
}

func (r progressRepo) CompareAndSwap(ctx context.Context, p *quest.Progress, expectedVersion int64) error {
	return r.s.progress.cas(ctx, p.ID, p, expectedVersion)
}

func (r progressRepo) ListByUser(ctx context.Context, communityID, userID string) ([]*quest.Progress, error) {
	return r.s.progress.find(ctx, bson.M{"community_id": communityID, "user_id": userID})
}

func (r progressRepo) ListByQuest(ctx context.Context, questID string) ([]*quest.Progress, error) {
	return r.s.progress.find(ctx, bson.M{"quest_id": questID})
}

func (r progressRepo) ListUndelivered(ctx context.Context, limit int) ([]*quest.Progress, error) {
	return r.s.progress.find(ctx, bson.M{"status": string(quest.StatusClaimed), "reward_delivered": false}, limited(limit))
}

type markerRepo struct{ s *Store }

func (r markerRepo) GetMarker(ctx context.Context, key string) (string, bool, error) {
	var doc struct {
		Value string `bson:"value"`
	}
	err := r.s.markers.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("find marker %s: %w", key, err)
	}
	return doc.Value, true, nil
}

func (r markerRepo) SetMarker(ctx context.Context, key, value string) error {
	_, err := r.s.markers.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$set": bson.M{"value": value, "updated_at": time.Now()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("set marker %s: %w", key, err)
	}
	return nil
}

type accountRepo struct{ s *Store }

func (r accountRepo) Get(ctx context.Context, communityID, userID string) (*account.Account, error) {
	return r.s.accounts.get(ctx, account.Key(communityID, userID))
}

func (r accountRepo) Create(ctx context.Context, a *account.Account) error {
	return r.s.accounts.create(ctx, account.Key(a.CommunityID, a.UserID), a)
}

func (r accountRepo) CompareAndSwap(ctx context.Context, a *account.Account, expectedVersion int64) error {
	return r.s.accounts.cas(ctx, account.Key(a.CommunityID, a.UserID), a, expectedVersion)
}

func (r accountRepo) ListByCommunity(ctx context.Context, communityID string) ([]*account.Account, error) {
	return r.s.accounts.find(ctx, bson.M{"community_id": communityID})
}

func (r accountRepo) ListCommunities(ctx context.Context) ([]string, error) {
	values, err := r.s.accounts.coll.Distinct(ctx, "community_id", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("distinct communities: %w", err)
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if id, ok := v.(string); ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

type rankingRepo struct{ s *Store }

func rankingKey(communityID, userID string) string { return communityID + ":" + userID }

func (r rankingRepo) Get(ctx context.Context, communityID, userID string) (*rating.Ranking, error) {
	return r.s.rankings.get(ctx, rankingKey(communityID, userID))
}

func (r rankingRepo) Create(ctx context.Context, rk *rating.Ranking) error {
	return r.s.rankings.create(ctx, rankingKey(rk.CommunityID, rk.UserID), rk)
}

func (r rankingRepo) CompareAndSwap(ctx context.Context, rk *rating.Ranking, expectedVersion int64) error {
	return r.s.rankings.cas(ctx, rankingKey(rk.CommunityID, rk.UserID), rk, expectedVersion)
}

func (r rankingRepo) ListByCommunity(ctx context.Context, communityID string) ([]*rating.Ranking, error) {
	return r.s.rankings.find(ctx, bson.M{"community_id": communityID})
}

type matchRepo struct{ s *Store }

func (r matchRepo) Get(ctx context.Context, id string) (*rating.Match, error) {
	return r.s.matches.get(ctx, id)
}

func (r matchRepo) Create(ctx context.Context, m *rating.Match) error {
	return r.s.matches.create(ctx, m.ID, m)
}

func (r matchRepo) CompareAndSwap(ctx context.Context, m *rating.Match, expectedVersion int64) error {
	return r.s.matches.cas(ctx, m.ID, m, expectedVersion)
}

func (r matchRepo) FindOpen(ctx context.Context, communityID, userA, userB string) (*rating.Match, error) {
	found, err := r.s.matches.find(ctx,
		bson.M{"community_id": communityID, "terminal": false, "participants": bson.M{"$all": []string{userA, userB}}},
		options.Find().SetSort(bson.M{"created_at": -1}).SetLimit(1),
	)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, apperrors.NotFound("open match", userA+"/"+userB)
	}
	return found[0], nil
}

func (r matchRepo) ListStale(ctx context.Context, now time.Time, limit int) ([]*rating.Match, error) {
	return r.s.matches.find(ctx,
		bson.M{"terminal": false, "expires_at": bson.M{"$lt": now, "$gt": time.Time{}}},
		limited(limit),
	)
}

func (r matchRepo) ListUnapplied(ctx context.Context, limit int) ([]*rating.Match, error) {
	return r.s.matches.find(ctx, bson.M{"rated": true, "ratings_applied": false}, limited(limit))
}

type tradeRepo struct{ s *Store }

func (r tradeRepo) Get(ctx context.Context, id string) (*trade.Record, error) {
	return r.s.trades.get(ctx, id)
}

func (r tradeRepo) Create(ctx context.Context, t *trade.Record) error {
	return r.s.trades.create(ctx, t.ID, t)
}

// CompareAndSwap only matches records still pending or settling, so a resolved
// trade is never rewritten.
func (r tradeRepo) CompareAndSwap(ctx context.Context, t *trade.Record, expectedVersion int64) error {
	res, err := r.s.trades.coll.ReplaceOne(ctx,
		bson.M{"_id": t.ID, "version": expectedVersion, "status": bson.M{"$in": bson.A{string(trade.StatusPending), string(trade.StatusSettling)}}},
		r.s.trades.document(t.ID, t, expectedVersion+1),
	)
	if err != nil {
		return fmt.Errorf("replace trade %s: %w", t.ID, err)
	}
	if res.MatchedCount == 0 {
		current, err := r.Get(ctx, t.ID)
		if err != nil {
			return err
		}
		if current.Status.Terminal() {
			return apperrors.Conflict("trade "+t.ID, string(current.Status), string(t.Status))
		}
		return apperrors.ErrVersionConflict
	}
	t.Version = expectedVersion + 1
	return nil
}

func (r tradeRepo) ListStalePending(ctx context.Context, now time.Time, limit int) ([]*trade.Record, error) {
	return r.s.trades.find(ctx,
		bson.M{"status": string(trade.StatusPending), "expires_at": bson.M{"$lte": now}},
		limited(limit),
	)
}

func (r tradeRepo) ListSettling(ctx context.Context, before time.Time, limit int) ([]*trade.Record, error) {
	return r.s.trades.find(ctx,
		bson.M{"status": string(trade.StatusSettling), "settling_at": bson.M{"$lte": before}},
		limited(limit),
	)
}

func (r tradeRepo) LastResolvedBy(ctx context.Context, communityID, offererID string) (*trade.Record, error) {
	found, err := r.s.trades.find(ctx,
		bson.M{"community_id": communityID, "offerer_id": offererID, "resolved_at": bson.M{"$ne": nil}},
		options.Find().SetSort(bson.M{"resolved_at": -1}).SetLimit(1),
	)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, apperrors.NotFound("resolved trade", offererID)
	}
	return found[0], nil
}

type boardRepo struct{ s *Store }

func (r boardRepo) ReplaceBoard(ctx context.Context, b *leaderboard.Board) error {
	key := b.CommunityID + ":" + string(b.Kind)
	_, err := r.s.boards.ReplaceOne(ctx, bson.M{"_id": key},
		bson.M{"_id": key, "board": b},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("replace leaderboard %s: %w", key, err)
	}
	return nil
}

func (r boardRepo) GetBoard(ctx context.Context, communityID string, kind leaderboard.Kind) (*leaderboard.Board, error) {
	key := communityID + ":" + string(kind)
	var doc struct {
		Board *leaderboard.Board `bson:"board"`
	}
	err := r.s.boards.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NotFound("leaderboard", key)
	}
	if err != nil {
		return nil, fmt.Errorf("find leaderboard %s: %w", key, err)
	}
	return doc.Board, nil
}

func (r boardRepo) ReplaceQuestStats(ctx context.Context, communityID string, stats []leaderboard.QuestStat) error {
	_, err := r.s.stats.ReplaceOne(ctx, bson.M{"_id": communityID},
		bson.M{"_id": communityID, "stats": stats},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("replace quest stats %s: %w", communityID, err)
	}
	return nil
}

func (r boardRepo) ListQuestStats(ctx context.Context, communityID string) ([]leaderboard.QuestStat, error) {
	var doc struct {
		Stats []leaderboard.QuestStat `bson:"stats"`
	}
	err := r.s.stats.FindOne(ctx, bson.M{"_id": communityID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find quest stats %s: %w", communityID, err)
	}
	return doc.Stats, nil
}
