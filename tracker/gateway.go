package tracker

// Gateway is the thin slice of the chat platform the core needs, implemented
// over the discord session in plugin_bot.go and faked in tests.
type Gateway interface {
	// SendMessage delivers a reply to a channel
	SendMessage(channelID int64, content string) error

	// OpenPrivateChannel returns the id of a DM channel with the user
	OpenPrivateChannel(userID int64) (int64, error)

	// GuildTextChannels lists every text channel in the guild
	GuildTextChannels(guildID int64) ([]*TrackedChannel, error)

	// IsGuildMember reports whether the user is currently in the guild
	IsGuildMember(guildID, userID int64) (bool, error)

	// HasAdministrator reports whether the user holds the administrator
	// permission in the channel's guild
	HasAdministrator(channelID, userID int64) (bool, error)
}
