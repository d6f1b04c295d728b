package tracker_test

import (
	"context"
	"testing"

	"github.com/electriccapital/cryptobot/tracker"
	"github.com/electriccapital/cryptobot/tracker/trackertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChannel(guildID, channelID int64) *tracker.TrackedChannel {
	return &tracker.TrackedChannel{
		GuildID:     guildID,
		GuildName:   "test guild",
		ChannelID:   channelID,
		ChannelName: "general",
	}
}

func TestWatchlistAddIdempotent(t *testing.T) {
	store := trackertest.NewFakeStore()
	watchlist := tracker.NewWatchlist(store)
	ctx := context.Background()

	c := testChannel(1, 10)

	outcome, err := watchlist.Add(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, tracker.OutcomeAdded, outcome)

	outcome, err = watchlist.Add(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, tracker.OutcomeAlreadyTracked, outcome)

	ids, err := watchlist.List(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, ids)
}

func TestWatchlistAddRemoveSymmetry(t *testing.T) {
	store := trackertest.NewFakeStore()
	watchlist := tracker.NewWatchlist(store)
	ctx := context.Background()

	c := testChannel(1, 10)

	_, err := watchlist.Add(ctx, c)
	require.NoError(t, err)

	outcome, err := watchlist.Remove(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, tracker.OutcomeRemoved, outcome)

	tracked, err := watchlist.IsTracked(ctx, c.ChannelID)
	require.NoError(t, err)
	assert.False(t, tracked)

	outcome, err = watchlist.Remove(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, tracker.OutcomeNotTracked, outcome)
}

func TestWatchlistBatchBestEffort(t *testing.T) {
	store := trackertest.NewFakeStore()
	watchlist := tracker.NewWatchlist(store)
	ctx := context.Background()

	// one of the three is already tracked, the batch still reports each
	// channel individually
	_, err := watchlist.Add(ctx, testChannel(1, 11))
	require.NoError(t, err)

	results := watchlist.AddAll(ctx, []*tracker.TrackedChannel{
		testChannel(1, 10),
		testChannel(1, 11),
		testChannel(1, 12),
	})

	require.Len(t, results, 3)
	assert.Equal(t, tracker.OutcomeAdded, results[0].Outcome)
	assert.Equal(t, tracker.OutcomeAlreadyTracked, results[1].Outcome)
	assert.Equal(t, tracker.OutcomeAdded, results[2].Outcome)

	ids, err := watchlist.List(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11, 12}, ids)
}

func TestWatchlistListEmpty(t *testing.T) {
	store := trackertest.NewFakeStore()
	watchlist := tracker.NewWatchlist(store)

	ids, err := watchlist.List(context.Background(), 99)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
