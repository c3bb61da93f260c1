package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ellavondegurechaff/progression/bottemplate/config"
	"github.com/ellavondegurechaff/progression/internal/domain/apperrors"
	"github.com/ellavondegurechaff/progression/internal/domain/quest"
	lru "github.com/hashicorp/golang-lru"
	"github.com/sahilm/fuzzy"
)

const allTemplatesKey = "\x00all"

type catalogEntry struct {
	templates []*quest.Quest
	template  *quest.Quest
	loadedAt  time.Time
}

// QuestCatalog is the read-only view of the quest authoring store. Loaded
// templates are validated; invalid ones are skipped and logged so a bad
// definition never reaches a rotation.
type QuestCatalog struct {
	templates quest.TemplateRepository
	cache     *lru.Cache
	ttl       time.Duration
	now       func() time.Time

	loadMu sync.Mutex
}

func NewQuestCatalog(templates quest.TemplateRepository) (*QuestCatalog, error) {
	cache, err := lru.New(config.CatalogCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog cache: %w", err)
	}
	return &QuestCatalog{
		templates: templates,
		cache:     cache,
		ttl:       config.CatalogCacheTTL,
		now:       time.Now,
	}, nil
}

// Templates returns every valid template. The returned quests are shared and
// must not be mutated; clone or instantiate them instead.
func (c *QuestCatalog) Templates(ctx context.Context) ([]*quest.Quest, error) {
	if e, ok := c.lookup(allTemplatesKey); ok {
		return e.templates, nil
	}

	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	if e, ok := c.lookup(allTemplatesKey); ok {
		return e.templates, nil
	}

	stored, err := c.templates.ListTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list quest templates: %w", err)
	}

	now := c.now()
	valid := make([]*quest.Quest, 0, len(stored))
	for _, t := range stored {
		if err := t.Validate(); err != nil {
			slog.Warn("Skipping invalid quest template",
				slog.String("type", "engine"),
				slog.String("quest_id", t.ID),
				slog.Any("error", err))
			continue
		}
		valid = append(valid, t)
		c.cache.Add(t.ID, catalogEntry{template: t, loadedAt: now})
	}
	c.cache.Add(allTemplatesKey, catalogEntry{templates: valid, loadedAt: now})

	slog.Debug("Quest catalog loaded",
		slog.String("type", "engine"),
		slog.Int("templates", len(valid)),
		slog.Int("skipped", len(stored)-len(valid)))
	return valid, nil
}

// Template returns one valid template by id.
func (c *QuestCatalog) Template(ctx context.Context, id string) (*quest.Quest, error) {
	if e, ok := c.lookup(id); ok {
		return e.template, nil
	}

	t, err := c.templates.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		slog.Warn("Rejected invalid quest template",
			slog.String("type", "engine"),
			slog.String("quest_id", id),
			slog.Any("error", err))
		return nil, apperrors.NotFound("quest template", id)
	}
	c.cache.Add(id, catalogEntry{template: t, loadedAt: c.now()})
	return t, nil
}

type templateSource []*quest.Quest

func (s templateSource) String(i int) string { return s[i].Title + " " + s[i].ID }
func (s templateSource) Len() int            { return len(s) }

// Search fuzzy-matches query against template titles and ids, best first.
func (c *QuestCatalog) Search(ctx context.Context, query string, limit int) ([]*quest.Quest, error) {
	all, err := c.Templates(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = config.FuzzyMaxResults
	}
	if query == "" {
		return all[:min(limit, len(all))], nil
	}

	matches := fuzzy.FindFrom(query, templateSource(all))
	out := make([]*quest.Quest, 0, min(limit, len(matches)))
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, all[m.Index])
	}
	return out, nil
}

// Invalidate drops every cached template so the next read reloads.
func (c *QuestCatalog) Invalidate() {
	c.cache.Purge()
}

func (c *QuestCatalog) lookup(key string) (catalogEntry, bool) {
	v, ok := c.cache.Get(key)
	if !ok {
		return catalogEntry{}, false
	}
	e := v.(catalogEntry)
	if c.now().Sub(e.loadedAt) > c.ttl {
		c.cache.Remove(key)
		return catalogEntry{}, false
	}
	return e, true
}
