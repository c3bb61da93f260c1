package social

import (
	"context"
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/ellavondegurechaff/progression/bottemplate"
	"github.com/ellavondegurechaff/progression/bottemplate/config"
	"github.com/ellavondegurechaff/progression/bottemplate/utils"
	"github.com/ellavondegurechaff/progression/internal/domain/rating"
)

const recentMatches = 5

var Rank = discord.SlashCommandCreate{
	Name:        "rank",
	Description: "Show a ladder rating, tier and recent duels",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionUser{
			Name:        "user",
			Description: "Whose rank to show",
			Required:    false,
		},
	},
}

func RankHandler(b *bottemplate.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		communityID, ok, err := utils.RequireGuild(e)
		if !ok {
			return err
		}

		target := e.User()
		if u, ok := e.SlashCommandInteractionData().OptUser("user"); ok {
			target = u
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
		defer cancel()

		r, err := b.Engine.Rankings.Ranking(ctx, communityID, target.ID.String())
		if err != nil {
			return utils.EH.CreateEngineError(e, "load that rank", err)
		}
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{createRankEmbed(target.Username, r)},
		})
	}
}

func createRankEmbed(username string, r *rating.Ranking) discord.Embed {
	var description strings.Builder
	description.WriteString(fmt.Sprintf("%s **%s**\n", utils.TierEmoji(r.Tier), utils.FormatTier(r.Tier, r.Division)))
	description.WriteString(fmt.Sprintf("Rating **%d** • Peak **%d**\n", r.Rating, r.PeakRating))
	description.WriteString(fmt.Sprintf("%dW / %dL / %dD over %d game%s\n", r.Wins, r.Losses, r.Draws, r.Games(), utils.Pluralize(r.Games())))
	if r.BestStreak > 0 {
		description.WriteString(fmt.Sprintf("🔥 Streak %d • Best %d\n", r.WinStreak, r.BestStreak))
	}

	if len(r.History) > 0 {
		description.WriteString("\n**Recent duels**\n")
		for i := len(r.History) - 1; i >= 0 && i >= len(r.History)-recentMatches; i-- {
			h := r.History[i]
			description.WriteString(fmt.Sprintf("%s vs <@%s> %s (%+d)\n", outcomeEmoji(h.Outcome), h.OpponentID, h.Outcome, h.Delta))
		}
	}

	return discord.NewEmbedBuilder().
		SetTitle(fmt.Sprintf("⚔️ %s's Rank", username)).
		SetColor(utils.TierColor(r.Tier)).
		SetDescription(description.String()).
		Build()
}

func outcomeEmoji(o rating.Outcome) string {
	switch o {
	case rating.Win:
		return "🟢"
	case rating.Loss:
		return "🔴"
	default:
		return "⚪"
	}
}
