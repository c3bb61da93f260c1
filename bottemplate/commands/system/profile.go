package system

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
	"github.com/ellavondegurechaff/progression/internal/domain/account"
	"github.com/ellavondegurechaff/progression/internal/domain/rating"
)

var Profile = discord.SlashCommandCreate{
	Name:        "profile",
	Description: "Show your level, balance and ladder standing",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionUser{
			Name:        "user",
			Description: "Whose profile to show",
			Required:    false,
		},
	},
}

func ProfileHandler(b *bottemplate.Bot) handler.CommandHandler {
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

		userID := target.ID.String()
		acct, err := b.Engine.Accounts.Get(ctx, communityID, userID)
		if err != nil {
			return utils.EH.CreateEngineError(e, "load that profile", err)
		}
		ranking, err := b.Engine.Rankings.Ranking(ctx, communityID, userID)
		if err != nil {
			return utils.EH.CreateEngineError(e, "load that profile", err)
		}

		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{createProfileEmbed(target.Username, acct, ranking, time.Now())},
		})
	}
}

func createProfileEmbed(username string, a *account.Account, r *rating.Ranking, now time.Time) discord.Embed {
	into, need := account.LevelProgress(a.XP)
	pct := 100
	if need > 0 {
		pct = int(into * 100 / need)
	}

	var description strings.Builder
	description.WriteString(fmt.Sprintf("**Level %d**\n%s %s/%s XP\n\n",
		a.Level, utils.ProgressBar(pct, config.ProgressBarLength), utils.FormatNumber(into), utils.FormatNumber(need)))
	description.WriteString(fmt.Sprintf("🪙 **%s** coins • 🎟️ **%d** tokens\n", utils.FormatNumber(a.Coins), a.Tokens))
	if a.DailyStreak > 0 {
		description.WriteString(fmt.Sprintf("🔥 **%d** day streak\n", a.DailyStreak))
	}
	if a.Boost != nil && a.Boost.ExpiresAt.After(now) {
		description.WriteString(fmt.Sprintf("⚡ **%.1fx** XP boost for %s\n", a.Boost.Multiplier, utils.FormatDuration(a.Boost.ExpiresAt.Sub(now))))
	}

	description.WriteString(fmt.Sprintf("\n%s **%s** • %d rating\n", utils.TierEmoji(r.Tier), utils.FormatTier(r.Tier, r.Division), r.Rating))
	description.WriteString(fmt.Sprintf("%dW / %dL / %dD", r.Wins, r.Losses, r.Draws))
	if r.WinStreak > 1 {
		description.WriteString(fmt.Sprintf(" • 🔥 %d win streak", r.WinStreak))
	}
	description.WriteString("\n")

	embed := discord.NewEmbedBuilder().
		SetTitle(fmt.Sprintf("👤 %s", username)).
		SetColor(utils.TierColor(r.Tier)).
		SetDescription(description.String())
	if len(a.Titles) > 0 {
		embed.AddField("Titles", strings.Join(a.Titles, ", "), false)
	}
	if a.ClanID != "" {
		embed.AddField("Clan", a.ClanID, true)
	}
	return embed.Build()
}
