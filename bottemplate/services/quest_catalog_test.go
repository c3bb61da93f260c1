package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ellavondegurechaff/progression/internal/domain/apperrors"
	"github.com/ellavondegurechaff/progression/internal/domain/quest"
	"github.com/ellavondegurechaff/progression/internal/domain/quest/mock"
)

func template(id, title string) *quest.Quest {
	return &quest.Quest{
		ID:         id,
		Title:      title,
		Type:       quest.TypeDaily,
		Tier:       1,
		Objectives: []quest.Objective{{ID: "o1", Kind: quest.KindMessageSent, Target: 10}},
		Active:     true,
	}
}

func TestCatalogSkipsInvalidTemplates(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock.NewMockTemplateRepository(ctrl)
	broken := template("broken", "")
	repo.EXPECT().ListTemplates(gomock.Any()).Return([]*quest.Quest{template("chat", "Chatterbox"), broken}, nil)

	catalog, err := NewQuestCatalog(repo)
	require.NoError(t, err)

	all, err := catalog.Templates(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "chat", all[0].ID)
}

func TestCatalogCachesUntilTTL(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock.NewMockTemplateRepository(ctrl)
	repo.EXPECT().ListTemplates(gomock.Any()).Return([]*quest.Quest{template("chat", "Chatterbox")}, nil).Times(2)

	catalog, err := NewQuestCatalog(repo)
	require.NoError(t, err)
	clock := &fakeClock{t: epoch}
	catalog.now = clock.Now
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := catalog.Templates(ctx)
		require.NoError(t, err)
	}

	// Template lookups are served from the bulk load.
	tpl, err := catalog.Template(ctx, "chat")
	require.NoError(t, err)
	assert.Equal(t, "Chatterbox", tpl.Title)

	clock.Advance(catalog.ttl + time.Second)
	_, err = catalog.Templates(ctx)
	require.NoError(t, err)
}

func TestCatalogTemplateRejectsInvalid(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock.NewMockTemplateRepository(ctrl)
	repo.EXPECT().GetTemplate(gomock.Any(), "broken").Return(template("broken", ""), nil)

	catalog, err := NewQuestCatalog(repo)
	require.NoError(t, err)

	_, err = catalog.Template(context.Background(), "broken")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCatalogSearch(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	for _, tpl := range []*quest.Quest{
		template("chat", "Chatterbox"),
		template("voice", "Voice Veteran"),
		template("duel", "Duelist"),
	} {
		require.NoError(t, env.backend.Templates().UpsertTemplate(ctx, tpl))
	}

	found, err := env.catalog.Search(ctx, "vet", 5)
	require.NoError(t, err)
	require.NotEmpty(t, found)
	assert.Equal(t, "voice", found[0].ID)

	found, err = env.catalog.Search(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = env.catalog.Search(ctx, "zzz", 5)
	require.NoError(t, err)
	assert.Empty(t, found)
}
