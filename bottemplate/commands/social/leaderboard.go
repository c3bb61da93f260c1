package social

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/ellavondegurechaff/progression/bottemplate"
	"github.com/ellavondegurechaff/progression/bottemplate/config"
	"github.com/ellavondegurechaff/progression/bottemplate/utils"
	"github.com/ellavondegurechaff/progression/internal/domain/apperrors"
	"github.com/ellavondegurechaff/progression/internal/domain/leaderboard"
)

const leaderboardShown = 10

var Leaderboard = discord.SlashCommandCreate{
	Name:        "leaderboard",
	Description: "Show the top members of this server",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "kind",
			Description: "Which board to show",
			Required:    false,
			Choices: []discord.ApplicationCommandOptionChoiceString{
				{Name: "Rating", Value: string(leaderboard.KindRating)},
				{Name: "XP", Value: string(leaderboard.KindXP)},
				{Name: "Clans", Value: string(leaderboard.KindClans)},
			},
		},
	},
}

func LeaderboardHandler(b *bottemplate.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		communityID, ok, err := utils.RequireGuild(e)
		if !ok {
			return err
		}
		kind := leaderboard.Kind(e.SlashCommandInteractionData().String("kind"))
		if kind == "" {
			kind = leaderboard.KindRating
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
		defer cancel()

		board, err := b.Engine.Leaderboards.Board(ctx, communityID, kind)
		if apperrors.IsNotFound(err) {
			// Boards are rebuilt on a schedule; build this one on first use.
			if _, err = b.Engine.Leaderboards.RefreshCommunity(ctx, communityID); err == nil {
				board, err = b.Engine.Leaderboards.Board(ctx, communityID, kind)
			}
		}
		if err != nil {
			return utils.EH.CreateEngineError(e, "load the leaderboard", err)
		}

		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{createLeaderboardEmbed(board, time.Now())},
		})
	}
}

func createLeaderboardEmbed(board *leaderboard.Board, now time.Time) discord.Embed {
	embed := discord.NewEmbedBuilder().
		SetTitle(fmt.Sprintf("🏆 %s Leaderboard", boardTitle(board.Kind))).
		SetColor(config.EmbedDefaultColor).
		SetFooter(fmt.Sprintf("Updated %s ago", utils.FormatDuration(now.Sub(board.GeneratedAt))), "")

	if len(board.Entries) == 0 {
		return embed.SetDescription("Nobody is on this board yet.").Build()
	}

	var description strings.Builder
	for i, entry := range board.Entries {
		if i == leaderboardShown {
			break
		}
		description.WriteString(fmt.Sprintf("%s %s • %s\n", rankMedal(entry.Rank), entryName(board.Kind, entry), entryScore(board.Kind, entry)))
	}
	return embed.SetDescription(description.String()).Build()
}

func boardTitle(k leaderboard.Kind) string {
	switch k {
	case leaderboard.KindXP:
		return "XP"
	case leaderboard.KindClans:
		return "Clan"
	default:
		return "Rating"
	}
}

func entryName(k leaderboard.Kind, e leaderboard.Entry) string {
	if k == leaderboard.KindClans {
		return fmt.Sprintf("**%s** (%d member%s)", e.ID, e.Count, utils.Pluralize(e.Count))
	}
	return fmt.Sprintf("<@%s>", e.ID)
}

func entryScore(k leaderboard.Kind, e leaderboard.Entry) string {
	switch k {
	case leaderboard.KindRating:
		return fmt.Sprintf("**%d** %s (%d game%s)", e.Score, utils.TitleCase(e.Detail), e.Count, utils.Pluralize(e.Count))
	case leaderboard.KindXP:
		return fmt.Sprintf("**%s** XP • Lv %d", utils.FormatNumber(e.Score), e.Count)
	default:
		return fmt.Sprintf("**%s** XP", utils.FormatNumber(e.Score))
	}
}

func rankMedal(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return fmt.Sprintf("`#%d`", rank)
	}
}
