package tracker

// TrackedChannel is a channel on the watchlist, the existence of the row is
// the tracking flag itself.
type TrackedChannel struct {
	GuildID     int64  `db:"guild_id"`
	GuildName   string `db:"guild_name"`
	ChannelID   int64  `db:"channel_id"`
	ChannelName string `db:"channel_name"`
}

// Member is the per guild activity row for a user, the same discord user has
// one independent row per guild.
type Member struct {
	GuildID      int64  `db:"guild_id"`
	GuildName    string `db:"guild_name"`
	UserID       int64  `db:"user_id"`
	UserName     string `db:"user_name"`
	Nickname     string `db:"nickname"`
	MessagesSent int64  `db:"messages_sent"`
}

// RecordedMessage is an append only fact, never mutated or deleted.
type RecordedMessage struct {
	GuildID     int64  `db:"guild_id"`
	GuildName   string `db:"guild_name"`
	ChannelID   int64  `db:"channel_id"`
	ChannelName string `db:"channel_name"`
	UserID      int64  `db:"user_id"`
	UserName    string `db:"user_name"`
	Nickname    string `db:"nickname"`
	Content     string `db:"content"`
	MessageID   int64  `db:"message_id"`
	CreatedAt   int64  `db:"created_at"`
}

// MessageEvent is the platform independent view of an incoming message,
// built by the gateway glue before it reaches any core component.
type MessageEvent struct {
	GuildID   int64
	GuildName string

	ChannelID   int64
	ChannelName string

	AuthorID    int64
	AuthorName  string
	AuthorNick  string
	AuthorIsBot bool

	Content   string
	MessageID int64
	Timestamp int64 // unix seconds

	MentionedChannels []*TrackedChannel
}

func (evt *MessageEvent) recordedMessage() *RecordedMessage {
	return &RecordedMessage{
		GuildID:     evt.GuildID,
		GuildName:   evt.GuildName,
		ChannelID:   evt.ChannelID,
		ChannelName: evt.ChannelName,
		UserID:      evt.AuthorID,
		UserName:    evt.AuthorName,
		Nickname:    evt.AuthorNick,
		Content:     evt.Content,
		MessageID:   evt.MessageID,
		CreatedAt:   evt.Timestamp,
	}
}

// Outcome is the result of a single watchlist mutation, these are expected
// branch results and not errors.
type Outcome int

const (
	OutcomeAdded Outcome = iota
	OutcomeAlreadyTracked
	OutcomeRemoved
	OutcomeNotTracked
)

// ChannelOutcome pairs a channel with the outcome of a batch watchlist
// operation on it, Err is set when that single channel failed.
type ChannelOutcome struct {
	Channel *TrackedChannel
	Outcome Outcome
	Err     error
}
