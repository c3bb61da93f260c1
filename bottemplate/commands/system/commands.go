package system

import "github.com/disgoorg/disgo/discord"

var Commands = []discord.ApplicationCommandCreate{
	Version,
	Profile,
	QuestsCommand,
	QuestClaimCommand,
	QuestCatalogCommand,
}
