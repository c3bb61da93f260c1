package social

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/ellavondegurechaff/progression/bottemplate"
	"github.com/ellavondegurechaff/progression/bottemplate/config"
	"github.com/ellavondegurechaff/progression/bottemplate/services"
	"github.com/ellavondegurechaff/progression/bottemplate/utils"
	"github.com/ellavondegurechaff/progression/internal/domain/rating"
)

var Duel = discord.SlashCommandCreate{
	Name:        "duel",
	Description: "Challenge, accept and report ranked duels",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "challenge",
			Description: "Challenge another member to a ranked duel",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "Who to challenge",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "mode",
					Description: "Game mode label",
					Required:    false,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "accept",
			Description: "Accept a pending challenge",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "match",
					Description: "Match id from the challenge",
					Required:    true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "report",
			Description: "Report the result of an accepted duel",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "opponent",
					Description: "Who you played",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "outcome",
					Description: "Your result",
					Required:    true,
					Choices: []discord.ApplicationCommandOptionChoiceString{
						{Name: "Win", Value: string(rating.Win)},
						{Name: "Loss", Value: string(rating.Loss)},
						{Name: "Draw", Value: string(rating.Draw)},
					},
				},
			},
		},
	},
}

func DuelChallengeHandler(b *bottemplate.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		communityID, ok, err := utils.RequireGuild(e)
		if !ok {
			return err
		}
		data := e.SlashCommandInteractionData()
		opponent := data.User("user")
		if opponent.Bot {
			return utils.EH.CreateClassifiedError(e, utils.UserError, "Bots don't duel.")
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
		defer cancel()

		m, err := b.Engine.Rankings.Challenge(ctx, communityID, e.User().ID.String(), opponent.ID.String(), data.String("mode"))
		if err != nil {
			return utils.EH.CreateEngineError(e, "open that challenge", err)
		}

		return e.CreateMessage(discord.MessageCreate{
			Content: fmt.Sprintf("<@%s>", opponent.ID),
			Embeds: []discord.Embed{discord.NewEmbedBuilder().
				SetTitle("⚔️ Duel Challenge").
				SetColor(config.InfoColor).
				SetDescription(fmt.Sprintf("<@%s> challenged <@%s>!\nAccept with `/duel accept match:%s`", m.ChallengerID, m.OpponentID, m.ID)).
				SetFooter(fmt.Sprintf("Expires in %s", utils.FormatDuration(m.ExpiresAt.Sub(m.CreatedAt))), "").
				Build()},
		})
	}
}

func DuelAcceptHandler(b *bottemplate.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		if _, ok, err := utils.RequireGuild(e); !ok {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
		defer cancel()

		m, err := b.Engine.Rankings.Accept(ctx, e.SlashCommandInteractionData().String("match"), e.User().ID.String())
		if err != nil {
			return utils.EH.CreateEngineError(e, "accept that duel", err)
		}
		return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("⚔️ Duel on! <@%s> vs <@%s>. Report the result with `/duel report`.", m.ChallengerID, m.OpponentID))
	}
}

func DuelReportHandler(b *bottemplate.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		communityID, ok, err := utils.RequireGuild(e)
		if !ok {
			return err
		}
		data := e.SlashCommandInteractionData()
		opponent := data.User("opponent")
		outcome := rating.Outcome(data.String("outcome"))
		userID := e.User().ID.String()

		ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
		defer cancel()

		res, err := b.Engine.Rankings.ReportDuel(ctx, communityID, userID, opponent.ID.String(), outcome, 0)
		if err != nil {
			slog.Error("Failed to report match result",
				slog.String("type", "cmd"),
				slog.String("user_id", userID),
				slog.Any("error", err))
			return utils.EH.CreateEngineError(e, "report that duel", err)
		}
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{createResultEmbed(res)},
		})
	}
}

func createResultEmbed(res *services.MatchResult) discord.Embed {
	m := res.Match
	line := func(r *rating.Ranking) string {
		h := m.Entry(r.UserID)
		for _, entry := range r.History {
			if entry.MatchID == m.ID {
				h = entry
			}
		}
		return fmt.Sprintf("%s <@%s> **%d** (%+d) • %s", outcomeEmoji(h.Outcome), r.UserID, r.Rating, h.Delta, utils.FormatTier(r.Tier, r.Division))
	}

	description := line(res.Challenger) + "\n" + line(res.Opponent)
	if !res.Applied {
		description += "\n\nThis result was already recorded."
	}

	return discord.NewEmbedBuilder().
		SetTitle("🏁 Duel Result").
		SetColor(utils.TierColor(res.Challenger.Tier)).
		SetDescription(description).
		Build()
}
