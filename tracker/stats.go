package tracker

import (
	"context"

	"emperror.dev/errors"
)

// SecondsInWeek is the rolling stats window, [now-SecondsInWeek, now)
const SecondsInWeek = 604800

// MessageCounts is an all time total paired with the rolling week count.
type MessageCounts struct {
	Total    int64
	LastWeek int64
}

// UserStats covers a user across every guild they were seen in, the in guild
// fields are only meaningful when InGuild is set.
type UserStats struct {
	DistinctGuilds    int64
	TotalAllGuilds    int64
	LastWeekAllGuilds int64

	InGuild         bool
	TotalInGuild    int64
	LastWeekInGuild int64
}

// Stats answers count queries by scanning recorded messages, the
// messages_sent counter on members is deliberately not consulted so answers
// stay correct even if that counter ever drifts.
type Stats struct {
	store Store
}

func NewStats(store Store) *Stats {
	return &Stats{store: store}
}

// ChannelStats returns counts for a tracked channel, ErrNotTracked for
// anything outside the watchlist.
func (s *Stats) ChannelStats(ctx context.Context, channelID, now int64) (*MessageCounts, error) {
	tracked, err := s.store.ChannelTracked(ctx, channelID)
	if err != nil {
		return nil, errors.WrapIf(err, "channelstats")
	}
	if !tracked {
		return nil, ErrNotTracked
	}

	return s.counts(ctx, MessageFilter{ChannelID: channelID}, now)
}

// ServerStats returns counts for a guild, always answerable, possibly zero.
func (s *Stats) ServerStats(ctx context.Context, guildID, now int64) (*MessageCounts, error) {
	return s.counts(ctx, MessageFilter{GuildID: guildID}, now)
}

// UserStats returns cross guild counts for a user plus counts inside the
// asking guild when inGuild is true. ErrUnknownUser when no member row
// exists anywhere, an unknown user is not the same as a silent one.
func (s *Stats) UserStats(ctx context.Context, userID, guildID int64, inGuild bool, now int64) (*UserStats, error) {
	known, err := s.store.UserKnown(ctx, userID)
	if err != nil {
		return nil, errors.WrapIf(err, "userstats")
	}
	if !known {
		return nil, ErrUnknownUser
	}

	guilds, err := s.store.CountUserGuilds(ctx, userID)
	if err != nil {
		return nil, errors.WrapIf(err, "userstats")
	}

	overall, err := s.counts(ctx, MessageFilter{UserID: userID}, now)
	if err != nil {
		return nil, errors.WrapIf(err, "userstats")
	}

	stats := &UserStats{
		DistinctGuilds:    guilds,
		TotalAllGuilds:    overall.Total,
		LastWeekAllGuilds: overall.LastWeek,
	}

	if !inGuild {
		return stats, nil
	}

	scoped, err := s.counts(ctx, MessageFilter{UserID: userID, GuildID: guildID}, now)
	if err != nil {
		return nil, errors.WrapIf(err, "userstats")
	}

	stats.InGuild = true
	stats.TotalInGuild = scoped.Total
	stats.LastWeekInGuild = scoped.LastWeek

	return stats, nil
}

func (s *Stats) counts(ctx context.Context, filter MessageFilter, now int64) (*MessageCounts, error) {
	total, err := s.store.CountMessages(ctx, filter)
	if err != nil {
		return nil, errors.WrapIf(err, "counts total")
	}

	filter.After = now - SecondsInWeek
	filter.Before = now
	lastWeek, err := s.store.CountMessages(ctx, filter)
	if err != nil {
		return nil, errors.WrapIf(err, "counts lastweek")
	}

	return &MessageCounts{Total: total, LastWeek: lastWeek}, nil
}
