package tracker

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// storageOpTimeout bounds every single storage call so a stuck database
// surfaces as ErrStorageUnavailable instead of wedging the event loop
const storageOpTimeout = time.Second * 10

const pqUniqueViolation = "23505"

// PostgresStore is the production Store, all predicates use parameter
// binding, identifiers from platform events are treated as untrusted.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ChannelTracked(ctx context.Context, channelID int64) (bool, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	const q = `SELECT EXISTS(SELECT 1 FROM tracked_channels WHERE channel_id = $1)`

	var tracked bool
	err := s.db.GetContext(ctx, &tracked, q, channelID)
	return tracked, wrapStoreErr(err, "channeltracked")
}

func (s *PostgresStore) InsertChannel(ctx context.Context, channel *TrackedChannel) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	const q = `INSERT INTO tracked_channels (guild_id, guild_name, channel_id, channel_name)
VALUES ($1, $2, $3, $4)`

	_, err := s.db.ExecContext(ctx, q, channel.GuildID, channel.GuildName, channel.ChannelID, channel.ChannelName)
	return wrapStoreErr(err, "insertchannel")
}

func (s *PostgresStore) DeleteChannel(ctx context.Context, channelID int64) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	const q = `DELETE FROM tracked_channels WHERE channel_id = $1`

	_, err := s.db.ExecContext(ctx, q, channelID)
	return wrapStoreErr(err, "deletechannel")
}

func (s *PostgresStore) ListChannelIDs(ctx context.Context, guildID int64) ([]int64, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	const q = `SELECT channel_id FROM tracked_channels WHERE guild_id = $1 ORDER BY channel_id`

	ids := make([]int64, 0)
	err := s.db.SelectContext(ctx, &ids, q, guildID)
	return ids, wrapStoreErr(err, "listchannelids")
}

// RecordMessage runs the member upsert, the message insert and the counter
// increment in one transaction. The row lock taken by the increment also
// serializes concurrent writers on the same member.
func (s *PostgresStore) RecordMessage(ctx context.Context, msg *RecordedMessage) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	const qEnsureMember = `INSERT INTO tracked_members (guild_id, guild_name, user_id, user_name, nickname, messages_sent)
VALUES ($1, $2, $3, $4, $5, 0)
ON CONFLICT (guild_id, user_id) DO NOTHING`

	const qInsertMessage = `INSERT INTO recorded_messages
(guild_id, guild_name, channel_id, channel_name, user_id, user_name, nickname, content, message_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	const qBumpCounter = `UPDATE tracked_members SET messages_sent = messages_sent + 1
WHERE guild_id = $1 AND user_id = $2`

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrapStoreErr(err, "recordmessage begin")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, qEnsureMember, msg.GuildID, msg.GuildName, msg.UserID, msg.UserName, msg.Nickname)
	if err != nil {
		return wrapStoreErr(err, "recordmessage member")
	}

	_, err = tx.ExecContext(ctx, qInsertMessage, msg.GuildID, msg.GuildName, msg.ChannelID, msg.ChannelName,
		msg.UserID, msg.UserName, msg.Nickname, truncateContent(msg.Content), msg.MessageID, msg.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.WrapIf(ErrDuplicateMessage, "recordmessage")
		}
		return wrapStoreErr(err, "recordmessage insert")
	}

	_, err = tx.ExecContext(ctx, qBumpCounter, msg.GuildID, msg.UserID)
	if err != nil {
		return wrapStoreErr(err, "recordmessage counter")
	}

	return wrapStoreErr(tx.Commit(), "recordmessage commit")
}

func (s *PostgresStore) GetMember(ctx context.Context, guildID, userID int64) (*Member, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	const q = `SELECT guild_id, guild_name, user_id, user_name, nickname, messages_sent
FROM tracked_members WHERE guild_id = $1 AND user_id = $2`

	var m Member
	err := s.db.GetContext(ctx, &m, q, guildID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, wrapStoreErr(err, "getmember")
	}

	return &m, nil
}

func (s *PostgresStore) UserKnown(ctx context.Context, userID int64) (bool, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	const q = `SELECT EXISTS(SELECT 1 FROM tracked_members WHERE user_id = $1)`

	var known bool
	err := s.db.GetContext(ctx, &known, q, userID)
	return known, wrapStoreErr(err, "userknown")
}

func (s *PostgresStore) CountUserGuilds(ctx context.Context, userID int64) (int64, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	const q = `SELECT COUNT(*) FROM tracked_members WHERE user_id = $1`

	var n int64
	err := s.db.GetContext(ctx, &n, q, userID)
	return n, wrapStoreErr(err, "countuserguilds")
}

func (s *PostgresStore) CountMessages(ctx context.Context, filter MessageFilter) (int64, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	where, args := filter.whereClause()

	var n int64
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM recorded_messages`+where, args...)
	return n, wrapStoreErr(err, "countmessages")
}

func (f MessageFilter) whereClause() (string, []interface{}) {
	var conds []string
	var args []interface{}

	add := func(cond string, v interface{}) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.GuildID != 0 {
		add("guild_id = $%d", f.GuildID)
	}
	if f.ChannelID != 0 {
		add("channel_id = $%d", f.ChannelID)
	}
	if f.UserID != 0 {
		add("user_id = $%d", f.UserID)
	}
	if f.After != 0 {
		add("created_at >= $%d", f.After)
	}
	if f.Before != 0 {
		add("created_at < $%d", f.Before)
	}

	if len(conds) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

func opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, storageOpTimeout)
}

func wrapStoreErr(err error, op string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return errors.WrapIf(ErrStorageUnavailable, op)
	}

	return errors.WrapIf(err, op)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

func truncateContent(content string) string {
	runes := []rune(content)
	if len(runes) <= MaxStoredContentLength {
		return content
	}

	return string(runes[:MaxStoredContentLength])
}
