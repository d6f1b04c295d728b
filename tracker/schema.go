package tracker

// Content is stored truncated to the discord message cap, runes beyond that
// are dropped in the store before the insert. The original deployment used
// much narrower columns and silently lost data, so widths here are generous
// on purpose.
const MaxStoredContentLength = 2000

var DBSchemas = []string{
	`
CREATE TABLE IF NOT EXISTS tracked_channels (
	guild_id     BIGINT NOT NULL,
	guild_name   TEXT NOT NULL,
	channel_id   BIGINT NOT NULL PRIMARY KEY,
	channel_name TEXT NOT NULL
);`,
	`CREATE INDEX IF NOT EXISTS tracked_channels_guild_idx ON tracked_channels(guild_id);`,

	`
CREATE TABLE IF NOT EXISTS tracked_members (
	guild_id      BIGINT NOT NULL,
	guild_name    TEXT NOT NULL,
	user_id       BIGINT NOT NULL,
	user_name     TEXT NOT NULL,
	nickname      TEXT NOT NULL DEFAULT '',
	messages_sent BIGINT NOT NULL DEFAULT 0,

	PRIMARY KEY (guild_id, user_id)
);`,
	`CREATE INDEX IF NOT EXISTS tracked_members_user_idx ON tracked_members(user_id);`,

	`
CREATE TABLE IF NOT EXISTS recorded_messages (
	guild_id     BIGINT NOT NULL,
	guild_name   TEXT NOT NULL,
	channel_id   BIGINT NOT NULL,
	channel_name TEXT NOT NULL,
	user_id      BIGINT NOT NULL,
	user_name    TEXT NOT NULL,
	nickname     TEXT NOT NULL DEFAULT '',
	content      VARCHAR(2000) NOT NULL,
	message_id   BIGINT NOT NULL PRIMARY KEY,
	created_at   BIGINT NOT NULL
);`,
	`CREATE INDEX IF NOT EXISTS recorded_messages_channel_idx ON recorded_messages(channel_id);`,
	`CREATE INDEX IF NOT EXISTS recorded_messages_guild_idx ON recorded_messages(guild_id);`,
	`CREATE INDEX IF NOT EXISTS recorded_messages_user_idx ON recorded_messages(user_id);`,
	`CREATE INDEX IF NOT EXISTS recorded_messages_created_at_idx ON recorded_messages(created_at);`,
}
