package system

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"
	"github.com/ellavondegurechaff/progression/bottemplate"
	"github.com/ellavondegurechaff/progression/bottemplate/config"
	"github.com/ellavondegurechaff/progression/bottemplate/utils"
	"github.com/ellavondegurechaff/progression/internal/domain/quest"
)

const (
	catalogPageSize   = 5
	catalogMaxResults = 50
)

var QuestCatalogCommand = discord.SlashCommandCreate{
	Name:        "questcatalog",
	Description: "Search the quest templates this bot rotates through",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:         "query",
			Description:  "Part of a quest title",
			Required:     false,
			Autocomplete: true,
		},
	},
}

func QuestCatalogHandler(b *bottemplate.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
		defer cancel()

		query := strings.TrimSpace(e.SlashCommandInteractionData().String("query"))
		found, err := b.Engine.Catalog.Search(ctx, query, catalogMaxResults)
		if err != nil {
			slog.Error("Quest catalog search failed",
				slog.String("type", "cmd"),
				slog.String("query", query),
				slog.Any("error", err))
			return utils.EH.CreateEngineError(e, "search the quest catalog", err)
		}
		if len(found) == 0 {
			return utils.EH.CreateInfoEmbed(e, fmt.Sprintf("No quests match `%s`.", query))
		}

		totalPages := (len(found) + catalogPageSize - 1) / catalogPageSize
		return b.Paginator.Create(e.Respond, paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				start := page * catalogPageSize
				end := min(start+catalogPageSize, len(found))
				fillCatalogEmbed(embed, query, found[start:end])
				embed.SetFooter(fmt.Sprintf("Page %d/%d • %d result%s", page+1, totalPages, len(found), utils.Pluralize(len(found))), "")
			},
			Pages:      totalPages,
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, false)
	}
}

func QuestCatalogAutocomplete(b *bottemplate.Bot) handler.AutocompleteHandler {
	return func(e *handler.AutocompleteEvent) error {
		var query string
		if focused := e.Data.Focused(); focused.Value != nil {
			_ = json.Unmarshal(focused.Value, &query)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		found, err := b.Engine.Catalog.Search(ctx, strings.TrimSpace(query), 25)
		if err != nil {
			return e.AutocompleteResult([]discord.AutocompleteChoice{})
		}
		choices := make([]discord.AutocompleteChoice, 0, len(found))
		for _, q := range found {
			choices = append(choices, discord.AutocompleteChoiceString{
				Name:  q.Title,
				Value: q.Title,
			})
		}
		return e.AutocompleteResult(choices)
	}
}

func fillCatalogEmbed(embed *discord.EmbedBuilder, query string, quests []*quest.Quest) {
	title := "📚 Quest Catalog"
	if query != "" {
		title = fmt.Sprintf("📚 Quests matching \"%s\"", query)
	}

	var description strings.Builder
	for _, q := range quests {
		description.WriteString(fmt.Sprintf("%s **%s** • %s • T%d\n", getTierEmoji(q.Tier), q.Title, q.Type, q.Tier))
		for _, o := range q.Objectives {
			description.WriteString(fmt.Sprintf("└ %d %s\n", o.Target, o.Kind.Unit()))
		}
		description.WriteString(fmt.Sprintf("└ Rewards: %s\n\n", formatRewards(q.Rewards)))
	}

	embed.
		SetTitle(title).
		SetColor(config.EmbedDefaultColor).
		SetDescription(description.String())
}
