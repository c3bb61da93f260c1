package social

import "github.com/disgoorg/disgo/discord"

var Commands = []discord.ApplicationCommandCreate{
	Rank,
	Duel,
	Leaderboard,
	Trade,
}
