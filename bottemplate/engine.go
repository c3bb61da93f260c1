package bottemplate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ellavondegurechaff/progression/bottemplate/config"
	"github.com/ellavondegurechaff/progression/bottemplate/database"
	"github.com/ellavondegurechaff/progression/bottemplate/economy/cooldown"
	"github.com/ellavondegurechaff/progression/bottemplate/scheduler"
	"github.com/ellavondegurechaff/progression/bottemplate/services"
	"github.com/ellavondegurechaff/progression/internal/domain/session"
	"github.com/ellavondegurechaff/progression/internal/gateways"
	"github.com/ellavondegurechaff/progression/internal/gateways/memstore"
	"github.com/ellavondegurechaff/progression/internal/gateways/mongostore"
)

// Engine is the wired set of progression services over one backend.
type Engine struct {
	Backend      gateways.Backend
	Cooldowns    *cooldown.Manager
	Accounts     *services.AccountService
	Catalog      *services.QuestCatalog
	Quests       *services.QuestService
	Progression  *services.ProgressionService
	Tracker      *services.QuestTracker
	Voice        *services.VoiceService
	Rankings     *services.RankingService
	Trades       *services.TradeService
	Leaderboards *services.LeaderboardService
}

// OpenBackend connects the storage driver named in cfg. For postgres the
// schema is initialised and seed templates are upserted.
func OpenBackend(ctx context.Context, cfg Config) (gateways.Backend, error) {
	start := time.Now()
	var (
		backend gateways.Backend
		err     error
	)
	switch cfg.Storage.Driver {
	case DriverPostgres:
		var db *database.DB
		db, err = database.New(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		if err = db.InitializeSchema(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize database schema: %w", err)
		}
		backend = database.NewStore(db)
	case DriverMongo:
		backend, err = mongostore.Connect(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
	case DriverMemory:
		backend = memstore.New()
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if err := database.SeedTemplates(ctx, backend.Templates(), time.Now()); err != nil {
		_ = backend.Close(ctx)
		return nil, err
	}

	slog.Info("Storage ready",
		slog.String("type", "db"),
		slog.String("driver", cfg.Storage.Driver),
		slog.Duration("took", time.Since(start)))
	return backend, nil
}

// NewEngine wires the services. uploader may be nil.
func NewEngine(backend gateways.Backend, cfg config.Engine, uploader services.SnapshotUploader) (*Engine, error) {
	cfg = cfg.WithDefaults()

	catalog, err := services.NewQuestCatalog(backend.Templates())
	if err != nil {
		return nil, err
	}

	e := &Engine{
		Backend:   backend,
		Cooldowns: cooldown.NewManager(),
		Accounts:  services.NewAccountService(backend.Accounts()),
		Catalog:   catalog,
	}
	e.Quests = services.NewQuestService(backend, e.Accounts, catalog, cfg)
	e.Progression = services.NewProgressionService(e.Accounts, e.Quests, e.Cooldowns, cfg)
	e.Tracker = services.NewQuestTracker(e.Progression)
	e.Voice = services.NewVoiceService(session.NewTracker(), e.Tracker)
	e.Rankings = services.NewRankingService(backend, e.Tracker, cfg)
	e.Trades = services.NewTradeService(backend, e.Accounts, e.Tracker, cfg)
	e.Leaderboards = services.NewLeaderboardService(backend, uploader, cfg)
	return e, nil
}

// Sweeps returns the maintenance sweeps for the engine.
func (e *Engine) Sweeps(cfg config.Engine) []scheduler.Sweep {
	return scheduler.Sweeps(scheduler.Engine{
		Quests:       e.Quests,
		Rankings:     e.Rankings,
		Trades:       e.Trades,
		Leaderboards: e.Leaderboards,
		Voice:        e.Voice,
	}, cfg)
}

// NewUploader returns the Spaces uploader, or nil when publishing is off.
func NewUploader(ctx context.Context, cfg SpacesConfig) (services.SnapshotUploader, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	return services.NewSpacesService(ctx, cfg.Key, cfg.Secret, cfg.Region, cfg.Bucket, cfg.Root)
}
