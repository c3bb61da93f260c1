// Package gateways describes a persistence backend as the set of repository
// contracts the engine needs. Implementations live in the sub-packages and in
// bottemplate/database.
package gateways

import (
	"context"

	"github.com/ellavondegurechaff/progression/internal/domain/account"
	"github.com/ellavondegurechaff/progression/internal/domain/leaderboard"
	"github.com/ellavondegurechaff/progression/internal/domain/quest"
	"github.com/ellavondegurechaff/progression/internal/domain/rating"
	"github.com/ellavondegurechaff/progression/internal/domain/storage"
	"github.com/ellavondegurechaff/progression/internal/domain/trade"
)

type Backend interface {
	storage.Transactor

	Quests() quest.Repository
	Templates() quest.TemplateRepository
	Progress() quest.ProgressRepository
	Markers() quest.MarkerRepository
	Accounts() account.Repository
	Rankings() rating.Repository
	Matches() rating.MatchRepository
	Trades() trade.Repository
	Leaderboards() leaderboard.Repository

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
