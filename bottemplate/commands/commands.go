package commands

import (
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/ellavondegurechaff/progression/bottemplate"
	"github.com/ellavondegurechaff/progression/bottemplate/commands/social"
	"github.com/ellavondegurechaff/progression/bottemplate/commands/system"
	"github.com/ellavondegurechaff/progression/bottemplate/handlers"
)

// Commands is every slash command synced to Discord.
var Commands = append(append([]discord.ApplicationCommandCreate{}, system.Commands...), social.Commands...)

// Register wires every command route onto h.
func Register(h handler.Router, b *bottemplate.Bot) {
	tracker := b.Engine.Tracker

	h.Command("/version", system.VersionHandler(b))
	h.Command("/profile", handlers.WrapWithLogging("profile", system.ProfileHandler(b), tracker))
	h.Command("/quests", handlers.WrapWithLogging("quests", system.QuestsHandler(b), tracker))
	h.Command("/questclaim", handlers.WrapWithLogging("questclaim", system.QuestClaimHandler(b), tracker))
	h.Autocomplete("/questclaim", system.QuestClaimAutocomplete(b))
	h.Command("/questcatalog", handlers.WrapWithLogging("questcatalog", system.QuestCatalogHandler(b), tracker))
	h.Autocomplete("/questcatalog", system.QuestCatalogAutocomplete(b))

	h.Command("/rank", handlers.WrapWithLogging("rank", social.RankHandler(b), tracker))
	h.Command("/duel/challenge", handlers.WrapWithLogging("duel-challenge", social.DuelChallengeHandler(b), tracker))
	h.Command("/duel/accept", handlers.WrapWithLogging("duel-accept", social.DuelAcceptHandler(b), tracker))
	h.Command("/duel/report", handlers.WrapWithLogging("duel-report", social.DuelReportHandler(b), tracker))
	h.Command("/leaderboard", handlers.WrapWithLogging("leaderboard", social.LeaderboardHandler(b), tracker))
	h.Command("/trade/offer", handlers.WrapWithLogging("trade-offer", social.TradeOfferHandler(b), tracker))
	h.Command("/trade/respond", handlers.WrapWithLogging("trade-respond", social.TradeRespondHandler(b), tracker))
}
