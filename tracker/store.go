package tracker

import (
	"context"

	"emperror.dev/errors"
)

const (
	// ErrNotTracked is returned for stat queries against channels outside
	// the watchlist, callers surface it instead of fabricating zeros
	ErrNotTracked = errors.Sentinel("channel is not tracked")

	// ErrUnknownUser is returned for user queries where no member row
	// exists in any guild, "never seen" is distinct from "no activity"
	ErrUnknownUser = errors.Sentinel("user has never been seen")

	// ErrMemberNotFound is returned by GetMember when the guild/user pair
	// has no row
	ErrMemberNotFound = errors.Sentinel("member not found")

	// ErrDuplicateMessage is returned when inserting a message id that was
	// already recorded
	ErrDuplicateMessage = errors.Sentinel("message id already recorded")

	// ErrStorageUnavailable is returned when a storage call hit its
	// deadline instead of completing
	ErrStorageUnavailable = errors.Sentinel("storage unavailable")
)

// MessageFilter scopes a message count, zero valued fields are unbounded.
// After is an inclusive lower bound on the timestamp, Before an exclusive
// upper bound.
type MessageFilter struct {
	GuildID   int64
	ChannelID int64
	UserID    int64

	After  int64
	Before int64
}

// Store is the persistence gateway the core components are built on, it is
// injected at construction so tests can substitute the in-memory fake in
// trackertest.
//
// RecordMessage performs the member upsert, the message insert and the
// counter increment as one atomic unit, keeping messages_sent equal to the
// number of recorded rows for that member.
type Store interface {
	ChannelTracked(ctx context.Context, channelID int64) (bool, error)
	InsertChannel(ctx context.Context, channel *TrackedChannel) error
	DeleteChannel(ctx context.Context, channelID int64) error
	ListChannelIDs(ctx context.Context, guildID int64) ([]int64, error)

	RecordMessage(ctx context.Context, msg *RecordedMessage) error

	GetMember(ctx context.Context, guildID, userID int64) (*Member, error)
	UserKnown(ctx context.Context, userID int64) (bool, error)
	CountUserGuilds(ctx context.Context, userID int64) (int64, error)

	CountMessages(ctx context.Context, filter MessageFilter) (int64, error)
}
