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
	"github.com/ellavondegurechaff/progression/internal/domain/reward"
	"github.com/ellavondegurechaff/progression/internal/domain/trade"
)

var Trade = discord.SlashCommandCreate{
	Name:        "trade",
	Description: "Trade coins and tokens with another member",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "offer",
			Description: "Propose a trade",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "Who to trade with",
					Required:    true,
				},
				discord.ApplicationCommandOptionInt{
					Name:        "offer_coins",
					Description: "Coins you give",
					Required:    false,
					MinValue:    utils.Ptr(0),
				},
				discord.ApplicationCommandOptionInt{
					Name:        "offer_tokens",
					Description: "Tokens you give",
					Required:    false,
					MinValue:    utils.Ptr(0),
				},
				discord.ApplicationCommandOptionInt{
					Name:        "request_coins",
					Description: "Coins you ask for",
					Required:    false,
					MinValue:    utils.Ptr(0),
				},
				discord.ApplicationCommandOptionInt{
					Name:        "request_tokens",
					Description: "Tokens you ask for",
					Required:    false,
					MinValue:    utils.Ptr(0),
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "respond",
			Description: "Accept, decline or cancel a trade",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "trade",
					Description: "Trade id",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "action",
					Description: "What to do",
					Required:    true,
					Choices: []discord.ApplicationCommandOptionChoiceString{
						{Name: "Accept", Value: "accept"},
						{Name: "Decline", Value: "decline"},
						{Name: "Cancel", Value: "cancel"},
					},
				},
			},
		},
	},
}

func TradeOfferHandler(b *bottemplate.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		communityID, ok, err := utils.RequireGuild(e)
		if !ok {
			return err
		}
		data := e.SlashCommandInteractionData()
		target := data.User("user")
		if target.Bot {
			return utils.EH.CreateClassifiedError(e, utils.UserError, "You can't trade with a bot.")
		}

		offer := reward.Bundle{Coins: int64(data.Int("offer_coins")), Tokens: int64(data.Int("offer_tokens"))}
		request := reward.Bundle{Coins: int64(data.Int("request_coins")), Tokens: int64(data.Int("request_tokens"))}
		if offer.IsZero() && request.IsZero() {
			return utils.EH.CreateClassifiedError(e, utils.UserError, "A trade needs something on at least one side.")
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
		defer cancel()

		r, err := b.Engine.Trades.Propose(ctx, communityID, e.User().ID.String(), target.ID.String(), offer, request)
		if err != nil {
			return utils.EH.CreateEngineError(e, "propose that trade", err)
		}

		return e.CreateMessage(discord.MessageCreate{
			Content: fmt.Sprintf("<@%s>", target.ID),
			Embeds:  []discord.Embed{createTradeEmbed(r)},
		})
	}
}

func TradeRespondHandler(b *bottemplate.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		if _, ok, err := utils.RequireGuild(e); !ok {
			return err
		}
		data := e.SlashCommandInteractionData()
		tradeID := data.String("trade")
		userID := e.User().ID.String()

		ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
		defer cancel()

		var (
			r   *trade.Record
			err error
		)
		action := data.String("action")
		switch action {
		case "accept":
			r, err = b.Engine.Trades.Accept(ctx, tradeID, userID)
		case "decline":
			r, err = b.Engine.Trades.Decline(ctx, tradeID, userID)
		case "cancel":
			r, err = b.Engine.Trades.Cancel(ctx, tradeID, userID)
		default:
			return utils.EH.CreateClassifiedError(e, utils.UserError, "Unknown action.")
		}
		if err != nil {
			return utils.EH.CreateEngineError(e, action+" that trade", err)
		}

		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{createTradeEmbed(r)},
		})
	}
}

func createTradeEmbed(r *trade.Record) discord.Embed {
	color := config.InfoColor
	title := "🤝 Trade Offer"
	switch r.Status {
	case trade.StatusAccepted:
		color, title = config.SuccessColor, "✅ Trade Completed"
	case trade.StatusSettling:
		title = "⏳ Trade Settling"
	case trade.StatusDeclined, trade.StatusCancelled, trade.StatusExpired:
		color, title = config.WarningColor, "❌ Trade "+utils.TitleCase(string(r.Status))
	}

	var description strings.Builder
	description.WriteString(fmt.Sprintf("<@%s> gives: %s\n", r.OffererID, bundleText(r.Offer)))
	description.WriteString(fmt.Sprintf("<@%s> gives: %s\n", r.TargetID, bundleText(r.Request)))
	if r.Status == trade.StatusPending {
		description.WriteString(fmt.Sprintf("\nRespond with `/trade respond trade:%s`", r.ID))
	}

	embed := discord.NewEmbedBuilder().
		SetTitle(title).
		SetColor(color).
		SetDescription(description.String())
	if r.Status == trade.StatusPending {
		embed.SetFooter(fmt.Sprintf("Expires in %s", utils.FormatDuration(r.ExpiresAt.Sub(r.CreatedAt))), "")
	}
	return embed.Build()
}

func bundleText(b reward.Bundle) string {
	var parts []string
	if b.Coins > 0 {
		parts = append(parts, fmt.Sprintf("🪙 %s", utils.FormatNumber(b.Coins)))
	}
	if b.Tokens > 0 {
		parts = append(parts, fmt.Sprintf("🎟️ %d", b.Tokens))
	}
	for _, it := range b.Items {
		parts = append(parts, fmt.Sprintf("📦 %dx %s", it.Quantity, it.ItemID))
	}
	if len(parts) == 0 {
		return "nothing"
	}
	return strings.Join(parts, ", ")
}
