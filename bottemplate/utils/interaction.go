package utils

import (
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/snowflake/v2"
)

// CommunityID returns the guild an interaction ran in. Engine commands are
// guild-only.
func CommunityID(guildID *snowflake.ID) (string, bool) {
	if guildID == nil {
		return "", false
	}
	return guildID.String(), true
}

// RequireGuild answers DMs with a notice and reports whether the command may
// continue.
func RequireGuild(e *handler.CommandEvent) (string, bool, error) {
	communityID, ok := CommunityID(e.GuildID())
	if ok {
		return communityID, true, nil
	}
	err := e.CreateMessage(discord.MessageCreate{
		Content: "This command only works inside a server.",
		Flags:   discord.MessageFlagEphemeral,
	})
	return "", false, err
}
