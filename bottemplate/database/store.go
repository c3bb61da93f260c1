package database

import (
	"context"

	"github.com/ellavondegurechaff/progression/bottemplate/database/repositories"
	"github.com/ellavondegurechaff/progression/internal/domain/account"
	"github.com/ellavondegurechaff/progression/internal/domain/leaderboard"
	"github.com/ellavondegurechaff/progression/internal/domain/quest"
	"github.com/ellavondegurechaff/progression/internal/domain/rating"
	"github.com/ellavondegurechaff/progression/internal/domain/trade"
)

// Store is the Postgres backend. Work passed to InTx runs in one bun
// transaction, so a claim and its account credit commit together.
type Store struct {
	db   *DB
	base *repositories.BaseRepository

	quests       quest.Repository
	templates    quest.TemplateRepository
	progress     quest.ProgressRepository
	markers      quest.MarkerRepository
	accounts     account.Repository
	rankings     rating.Repository
	matches      rating.MatchRepository
	trades       trade.Repository
	leaderboards leaderboard.Repository
}

func NewStore(db *DB) *Store {
	b := db.BunDB()
	return &Store{
		db:           db,
		base:         repositories.NewBaseRepository(b),
		quests:       repositories.NewQuestRepository(b),
		templates:    repositories.NewTemplateRepository(b),
		progress:     repositories.NewProgressRepository(b),
		markers:      repositories.NewMarkerRepository(b),
		accounts:     repositories.NewUserRepository(b),
		rankings:     repositories.NewRankingRepository(b),
		matches:      repositories.NewMatchRepository(b),
		trades:       repositories.NewTradeRepository(b),
		leaderboards: repositories.NewLeaderboardRepository(b),
	}
}

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.base.Transaction(ctx, fn)
}

func (s *Store) Atomic() bool { return true }

func (s *Store) Quests() quest.Repository             { return s.quests }
func (s *Store) Templates() quest.TemplateRepository  { return s.templates }
func (s *Store) Progress() quest.ProgressRepository   { return s.progress }
func (s *Store) Markers() quest.MarkerRepository      { return s.markers }
func (s *Store) Accounts() account.Repository         { return s.accounts }
func (s *Store) Rankings() rating.Repository          { return s.rankings }
func (s *Store) Matches() rating.MatchRepository      { return s.matches }
func (s *Store) Trades() trade.Repository             { return s.trades }
func (s *Store) Leaderboards() leaderboard.Repository { return s.leaderboards }
func (s *Store) Ping(ctx context.Context) error       { return s.db.Ping(ctx) }
func (s *Store) Close(context.Context) error          { s.db.Close(); return nil }
