// Package migration copies progression data between storage backends, for
// example from a MongoDB deployment into Postgres.
package migration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/ellavondegurechaff/progression/internal/domain/apperrors"
	"github.com/ellavondegurechaff/progression/internal/gateways"
)

// MigrationStats summarises one run.
type MigrationStats struct {
	Tables         map[string]*TableStats `json:"tables"`
	StartTime      time.Time              `json:"start_time"`
	EndTime        time.Time              `json:"end_time"`
	TotalErrors    int                    `json:"total_errors"`
	TotalSkipped   int                    `json:"total_skipped"`
	TotalProcessed int                    `json:"total_processed"`
}

// TableStats tracks one record kind.
type TableStats struct {
	TableName    string        `json:"table_name"`
	Processed    int           `json:"processed"`
	Successful   int           `json:"successful"`
	Skipped      int           `json:"skipped"`
	Errors       int           `json:"errors"`
	ErrorRecords []ErrorRecord `json:"error_records,omitempty"`
}

type ErrorRecord struct {
	RecordID string `json:"record_id"`
	Error    string `json:"error"`
}

// maxErrorRecords bounds the per-table error list kept in the report.
const maxErrorRecords = 50

// Migrator copies templates, quests, progress, accounts and rankings from src
// into dst. Records that already exist in dst are skipped, so a run can be
// repeated after a partial failure. Open matches and pending trades are
// short-lived and are not copied.
type Migrator struct {
	src, dst gateways.Backend
	stats    MigrationStats
}

func NewMigrator(src, dst gateways.Backend) *Migrator {
	return &Migrator{
		src: src,
		dst: dst,
		stats: MigrationStats{
			Tables: make(map[string]*TableStats),
		},
	}
}

// Stats returns the statistics of the last run.
func (m *Migrator) Stats() MigrationStats {
	return m.stats
}

// MigrateAll runs every step in dependency order.
func (m *Migrator) MigrateAll(ctx context.Context) error {
	m.stats = MigrationStats{Tables: make(map[string]*TableStats), StartTime: time.Now()}

	communities, err := m.communities(ctx)
	if err != nil {
		return err
	}

	steps := []struct {
		name string
		fn   func(ctx context.Context, communities []string) error
	}{
		{"quest_templates", m.migrateTemplates},
		{"quests", m.migrateQuests},
		{"accounts", m.migrateAccounts},
		{"rankings", m.migrateRankings},
	}
	for _, step := range steps {
		slog.Info("Starting migration step",
			slog.String("type", "db"),
			slog.String("step", step.name))
		if err := step.fn(ctx, communities); err != nil {
			return fmt.Errorf("migration failed at step %s: %w", step.name, err)
		}
	}

	m.stats.EndTime = time.Now()
	m.logFinalStats()
	return nil
}

// communities lists every community that holds at least one account.
func (m *Migrator) communities(ctx context.Context) ([]string, error) {
	ids, err := m.src.Accounts().ListCommunities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list communities: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *Migrator) migrateTemplates(ctx context.Context, _ []string) error {
	templates, err := m.src.Templates().ListTemplates(ctx)
	if err != nil {
		return fmt.Errorf("failed to list templates: %w", err)
	}
	for _, t := range templates {
		m.record("quest_templates", t.ID, m.dst.Templates().UpsertTemplate(ctx, t))
	}
	return nil
}

func (m *Migrator) migrateQuests(ctx context.Context, communities []string) error {
	for _, c := range communities {
		quests, err := m.src.Quests().ListByCommunity(ctx, c)
		if err != nil {
			return fmt.Errorf("failed to list quests for %s: %w", c, err)
		}
		for _, q := range quests {
			m.record("quests", q.ID, m.dst.Quests().Create(ctx, q))

			progress, err := m.src.Progress().ListByQuest(ctx, q.ID)
			if err != nil {
				return fmt.Errorf("failed to list progress for %s: %w", q.ID, err)
			}
			for _, p := range progress {
				m.record("quest_progress", p.ID, m.dst.Progress().Create(ctx, p))
			}
		}
	}
	return nil
}

func (m *Migrator) migrateAccounts(ctx context.Context, communities []string) error {
	for _, c := range communities {
		accounts, err := m.src.Accounts().ListByCommunity(ctx, c)
		if err != nil {
			return fmt.Errorf("failed to list accounts for %s: %w", c, err)
		}
		for _, a := range accounts {
			m.record("accounts", a.CommunityID+"/"+a.UserID, m.dst.Accounts().Create(ctx, a))
		}
	}
	return nil
}

func (m *Migrator) migrateRankings(ctx context.Context, communities []string) error {
	for _, c := range communities {
		rankings, err := m.src.Rankings().ListByCommunity(ctx, c)
		if err != nil {
			return fmt.Errorf("failed to list rankings for %s: %w", c, err)
		}
		for _, r := range rankings {
			m.record("rankings", r.CommunityID+"/"+r.UserID, m.dst.Rankings().Create(ctx, r))
		}
	}
	return nil
}

func (m *Migrator) record(table, id string, err error) {
	ts, ok := m.stats.Tables[table]
	if !ok {
		ts = &TableStats{TableName: table}
		m.stats.Tables[table] = ts
	}
	ts.Processed++
	m.stats.TotalProcessed++

	switch {
	case err == nil:
		ts.Successful++
	case errors.Is(err, apperrors.ErrAlreadyExists):
		ts.Skipped++
		m.stats.TotalSkipped++
	default:
		ts.Errors++
		m.stats.TotalErrors++
		if len(ts.ErrorRecords) < maxErrorRecords {
			ts.ErrorRecords = append(ts.ErrorRecords, ErrorRecord{RecordID: id, Error: err.Error()})
		}
		slog.Warn("Failed to migrate record",
			slog.String("type", "db"),
			slog.String("table", table),
			slog.String("record_id", id),
			slog.Any("error", err))
	}
}

func (m *Migrator) logFinalStats() {
	names := make([]string, 0, len(m.stats.Tables))
	for name := range m.stats.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ts := m.stats.Tables[name]
		slog.Info("Migration table summary",
			slog.String("type", "db"),
			slog.String("table", name),
			slog.Int("processed", ts.Processed),
			slog.Int("successful", ts.Successful),
			slog.Int("skipped", ts.Skipped),
			slog.Int("errors", ts.Errors))
	}
	slog.Info("Migration completed",
		slog.String("type", "db"),
		slog.Int("processed", m.stats.TotalProcessed),
		slog.Int("skipped", m.stats.TotalSkipped),
		slog.Int("errors", m.stats.TotalErrors),
		slog.Duration("took", m.stats.EndTime.Sub(m.stats.StartTime)))
}
