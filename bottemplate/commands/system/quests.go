package system

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/ellavondegurechaff/progression/bottemplate"
	"github.com/ellavondegurechaff/progression/bottemplate/config"
	"github.com/ellavondegurechaff/progression/bottemplate/services"
	"github.com/ellavondegurechaff/progression/bottemplate/utils"
	"github.com/ellavondegurechaff/progression/internal/domain/quest"
)

var QuestsCommand = discord.SlashCommandCreate{
	Name:        "quests",
	Description: "View your quests and their progress",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "type",
			Description: "Only show one quest type",
			Required:    false,
			Choices: []discord.ApplicationCommandOptionChoiceString{
				{Name: "Daily", Value: string(quest.TypeDaily)},
				{Name: "Weekly", Value: string(quest.TypeWeekly)},
				{Name: "Monthly", Value: string(quest.TypeMonthly)},
				{Name: "Event", Value: string(quest.TypeEvent)},
				{Name: "Chain", Value: string(quest.TypeChain)},
			},
		},
	},
}

var questTypeOrder = []quest.Type{
	quest.TypeDaily, quest.TypeWeekly, quest.TypeMonthly,
	quest.TypeSeasonal, quest.TypeEvent, quest.TypeChain,
}

func QuestsHandler(b *bottemplate.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		communityID, ok, err := utils.RequireGuild(e)
		if !ok {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
		defer cancel()

		userID := e.User().ID.String()
		filter := quest.Type(e.SlashCommandInteractionData().String("type"))

		status, err := b.Engine.Quests.Status(ctx, communityID, userID)
		if err != nil {
			slog.Error("Failed to get quest status",
				slog.String("type", "cmd"),
				slog.String("user_id", userID),
				slog.Any("error", err))
			return utils.EH.CreateEngineError(e, "load your quests", err)
		}
		open, err := b.Engine.Quests.Available(ctx, communityID)
		if err != nil {
			return utils.EH.CreateEngineError(e, "load your quests", err)
		}

		embed := createQuestEmbed(status, notStarted(status, open), filter, e.User().Username, time.Now())
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{embed},
		})
	}
}

// notStarted lists open quests the user has no record for yet. They start on
// the first matching activity.
func notStarted(status []services.QuestStatus, open []*quest.Quest) []*quest.Quest {
	seen := make(map[string]bool, len(status))
	for _, s := range status {
		seen[s.Quest.ID] = true
	}
	var out []*quest.Quest
	for _, q := range open {
		if !seen[q.ID] {
			out = append(out, q)
		}
	}
	return out
}

func createQuestEmbed(status []services.QuestStatus, waiting []*quest.Quest, filter quest.Type, username string, now time.Time) discord.Embed {
	embed := discord.NewEmbedBuilder().
		SetTitle(fmt.Sprintf("📜 %s's Quests", username)).
		SetColor(getQuestTypeColor(filter))

	var description strings.Builder
	claimable := 0
	for _, typ := range questTypeOrder {
		if filter != "" && typ != filter {
			continue
		}
		var lines []string
		for _, s := range status {
			if s.Quest.Type != typ {
				continue
			}
			if s.Progress.Status == quest.StatusCompleted {
				claimable++
			}
			lines = append(lines, questLine(s, now))
		}
		for _, q := range waiting {
			if q.Type == typ {
				lines = append(lines, fmt.Sprintf("🆕 **%s**\n└ %s\n└ Rewards: %s", q.Title, q.Description, formatRewards(q.Rewards)))
			}
		}
		if len(lines) == 0 {
			continue
		}
		description.WriteString(fmt.Sprintf("**__%s__**\n", strings.ToUpper(string(typ[:1]))+string(typ[1:])))
		description.WriteString(strings.Join(lines, "\n\n"))
		description.WriteString("\n\n")
	}

	if description.Len() == 0 {
		embed.SetDescription("No quests available right now. New quests arrive at the next reset.")
		return embed.Build()
	}
	embed.SetDescription(description.String())

	if claimable > 0 {
		embed.SetFooter(fmt.Sprintf("💡 %d quest%s ready to claim! Use /questclaim", claimable, utils.Pluralize(claimable)), "")
	} else {
		embed.SetFooter("💡 Quests progress from your messages, reactions, voice time and duels", "")
	}
	return embed.Build()
}

func questLine(s services.QuestStatus, now time.Time) string {
	statusEmoji := "⏳"
	statusText := ""
	switch s.Progress.Status {
	case quest.StatusCompleted:
		statusEmoji = "🎁"
		statusText = " *(Ready to claim!)*"
	case quest.StatusClaimed:
		statusEmoji = "✅"
		statusText = " *(Claimed)*"
	}

	line := fmt.Sprintf("%s **%s**%s\n└ %s", statusEmoji, s.Quest.Title, statusText, s.Quest.Description)
	if s.Progress.Status == quest.StatusActive {
		for _, o := range s.Quest.Objectives {
			current := s.Progress.Counters.Get(o.ID)
			if current > o.Target {
				current = o.Target
			}
			line += fmt.Sprintf("\n└ %s %d/%d %s", utils.ProgressBar(int(current*100/o.Target), config.ProgressBarLength), current, o.Target, o.Kind.Unit())
		}
	}
	line += fmt.Sprintf("\n└ Rewards: %s", formatRewards(s.Quest.Rewards))
	if !s.ResetsAt.IsZero() && s.ResetsAt.After(now) {
		line += fmt.Sprintf("\n└ Ends in %s", utils.FormatDuration(s.ResetsAt.Sub(now)))
	}
	return line
}

func formatRewards(r quest.Rewards) string {
	var parts []string
	if r.XP > 0 {
		parts = append(parts, fmt.Sprintf("⭐ %s XP", utils.FormatNumber(r.XP)))
	}
	if r.Coins > 0 {
		parts = append(parts, fmt.Sprintf("🪙 %s", utils.FormatNumber(r.Coins)))
	}
	if r.Tokens > 0 {
		parts = append(parts, fmt.Sprintf("🎟️ %d", r.Tokens))
	}
	for _, it := range r.Items {
		parts = append(parts, fmt.Sprintf("📦 %dx %s", it.Quantity, it.ItemID))
	}
	if r.Effect != nil {
		parts = append(parts, "✨ "+string(r.Effect.Kind))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " • ")
}

func getQuestTypeColor(questType quest.Type) int {
	switch questType {
	case quest.TypeDaily:
		return 0x3498db // Blue
	case quest.TypeWeekly:
		return 0x9b59b6 // Purple
	case quest.TypeMonthly:
		return 0xe74c3c // Red
	default:
		return config.EmbedDefaultColor
	}
}
