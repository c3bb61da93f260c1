package system

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
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

var QuestClaimCommand = discord.SlashCommandCreate{
	Name:        "questclaim",
	Description: "🎁 Claim your completed quest rewards!",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:         "quest",
			Description:  "The quest to claim; all completed quests when empty",
			Required:     false,
			Autocomplete: true,
		},
	},
}

func QuestClaimHandler(b *bottemplate.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		communityID, ok, err := utils.RequireGuild(e)
		if !ok {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
		defer cancel()

		userID := e.User().ID.String()
		questID := e.SlashCommandInteractionData().String("quest")

		var ids []string
		if questID != "" {
			ids = []string{questID}
		} else {
			ids, err = claimableQuests(ctx, b, communityID, userID)
			if err != nil {
				return utils.EH.CreateEngineError(e, "load your quests", err)
			}
			if len(ids) == 0 {
				return utils.EH.CreateInfoEmbed(e, "You don't have any completed quests to claim!")
			}
		}

		var results []*services.ClaimResult
		for _, id := range ids {
			res, err := b.Engine.Quests.Claim(ctx, communityID, userID, id)
			if err != nil {
				slog.Error("Failed to claim quest rewards",
					slog.String("type", "cmd"),
					slog.String("user_id", userID),
					slog.String("quest_id", id),
					slog.Any("error", err))
				if len(ids) == 1 {
					return utils.EH.CreateEngineError(e, "claim that quest", err)
				}
				continue
			}
			results = append(results, res)
		}
		if len(results) == 0 {
			return utils.EH.CreateErrorEmbed(e, "Failed to claim rewards. Please try again.")
		}

		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{createClaimEmbed(results, e.User().Username)},
		})
	}
}

// QuestClaimAutocomplete suggests the caller's completed quests.
func QuestClaimAutocomplete(b *bottemplate.Bot) handler.AutocompleteHandler {
	return func(e *handler.AutocompleteEvent) error {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Panic in autocomplete handler",
					slog.Any("panic", r),
					slog.String("stack_trace", string(debug.Stack())),
				)
			}
		}()

		communityID, ok := utils.CommunityID(e.GuildID())
		if !ok {
			return e.AutocompleteResult([]discord.AutocompleteChoice{})
		}

		searchTerm := ""
		if focused := e.Data.Focused(); focused.Value != nil {
			var s string
			if err := json.Unmarshal(focused.Value, &s); err == nil {
				searchTerm = strings.ToLower(strings.TrimSpace(s))
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		status, err := b.Engine.Quests.Status(ctx, communityID, e.User().ID.String())
		if err != nil {
			slog.Error("Failed to load claimable quests",
				slog.String("error", err.Error()))
			return e.AutocompleteResult([]discord.AutocompleteChoice{})
		}

		choices := make([]discord.AutocompleteChoice, 0, 25)
		for _, s := range status {
			if s.Progress.Status != quest.StatusCompleted {
				continue
			}
			if searchTerm != "" && !strings.Contains(strings.ToLower(s.Quest.Title), searchTerm) {
				continue
			}
			choices = append(choices, discord.AutocompleteChoiceString{
				Name:  s.Quest.Title,
				Value: s.Quest.ID,
			})
			if len(choices) == 25 {
				break
			}
		}
		return e.AutocompleteResult(choices)
	}
}

func claimableQuests(ctx context.Context, b *bottemplate.Bot, communityID, userID string) ([]string, error) {
	status, err := b.Engine.Quests.Status(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, s := range status {
		if s.Progress.Status == quest.StatusCompleted {
			ids = append(ids, s.Quest.ID)
		}
	}
	return ids, nil
}

func createClaimEmbed(results []*services.ClaimResult, username string) discord.Embed {
	embed := discord.NewEmbedBuilder().
		SetTitle("🎉 Quest Rewards Claimed!").
		SetColor(config.SuccessColor)

	var xp, coins, tokens int64
	var description strings.Builder
	description.WriteString(fmt.Sprintf("**%s completed:**\n", username))
	for _, res := range results {
		xp += res.Reward.XP
		coins += res.Reward.Coins
		tokens += res.Reward.Tokens
		description.WriteString(fmt.Sprintf("%s **%s** (T%d)\n", getTierEmoji(res.Quest.Tier), res.Quest.Title, res.Quest.Tier))
	}

	description.WriteString("\n**🎁 Total Rewards:**\n")
	if xp > 0 {
		description.WriteString(fmt.Sprintf("⭐ **%s** XP\n", utils.FormatNumber(xp)))
	}
	if coins > 0 {
		description.WriteString(fmt.Sprintf("🪙 **%s** coins\n", utils.FormatNumber(coins)))
	}
	if tokens > 0 {
		description.WriteString(fmt.Sprintf("🎟️ **%d** tokens\n", tokens))
	}

	last := results[len(results)-1]
	if last.Account.LeveledUp() {
		description.WriteString(fmt.Sprintf("\n🆙 You reached level **%d**!", last.Account.LevelAfter))
	}

	pending := 0
	for _, res := range results {
		if !res.Delivered {
			pending++
		}
	}
	if pending > 0 {
		embed.SetFooter(fmt.Sprintf("%d reward%s will arrive shortly", pending, utils.Pluralize(pending)), "")
	} else {
		embed.SetFooter("Your rewards have been added to your account!", "")
	}

	embed.SetDescription(description.String())
	return embed.Build()
}

func getTierEmoji(tier int) string {
	switch tier {
	case 1:
		return "🎵"
	case 2:
		return "🌟"
	case 3:
		return "👑"
	default:
		return "🎯"
	}
}
