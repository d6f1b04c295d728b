package tracker

import (
	"context"

	"emperror.dev/errors"
)

// Watchlist owns the set of tracked channels, nothing is cached in memory,
// every check goes to the store.
type Watchlist struct {
	store Store
}

func NewWatchlist(store Store) *Watchlist {
	return &Watchlist{store: store}
}

func (w *Watchlist) IsTracked(ctx context.Context, channelID int64) (bool, error) {
	return w.store.ChannelTracked(ctx, channelID)
}

// Add puts the channel on the watchlist, the existence check runs first so
// we never depend on constraint errors for the expected already-tracked case.
func (w *Watchlist) Add(ctx context.Context, channel *TrackedChannel) (Outcome, error) {
	tracked, err := w.store.ChannelTracked(ctx, channel.ChannelID)
	if err != nil {
		return 0, errors.WrapIf(err, "add")
	}

	if tracked {
		return OutcomeAlreadyTracked, nil
	}

	err = w.store.InsertChannel(ctx, channel)
	if err != nil {
		return 0, errors.WrapIf(err, "add")
	}

	return OutcomeAdded, nil
}

func (w *Watchlist) Remove(ctx context.Context, channel *TrackedChannel) (Outcome, error) {
	tracked, err := w.store.ChannelTracked(ctx, channel.ChannelID)
	if err != nil {
		return 0, errors.WrapIf(err, "remove")
	}

	if !tracked {
		return OutcomeNotTracked, nil
	}

	err = w.store.DeleteChannel(ctx, channel.ChannelID)
	if err != nil {
		return 0, errors.WrapIf(err, "remove")
	}

	return OutcomeRemoved, nil
}

// AddAll adds every channel independently, a failure on one channel does not
// abort the rest, the batch is best effort and not transactional.
func (w *Watchlist) AddAll(ctx context.Context, channels []*TrackedChannel) []ChannelOutcome {
	results := make([]ChannelOutcome, 0, len(channels))
	for _, c := range channels {
		outcome, err := w.Add(ctx, c)
		results = append(results, ChannelOutcome{Channel: c, Outcome: outcome, Err: err})
	}

	return results
}

// RemoveAll is the removal counterpart of AddAll, same best effort semantics.
func (w *Watchlist) RemoveAll(ctx context.Context, channels []*TrackedChannel) []ChannelOutcome {
	results := make([]ChannelOutcome, 0, len(channels))
	for _, c := range channels {
		outcome, err := w.Remove(ctx, c)
		results = append(results, ChannelOutcome{Channel: c, Outcome: outcome, Err: err})
	}

	return results
}

// List returns the ids of all tracked channels in the guild ordered by
// channel id, an empty result means no tracked channels.
func (w *Watchlist) List(ctx context.Context, guildID int64) ([]int64, error) {
	return w.store.ListChannelIDs(ctx, guildID)
}
