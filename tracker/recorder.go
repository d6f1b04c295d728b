package tracker

import (
	"context"

	"emperror.dev/errors"
)

// Recorder turns incoming message events into durable rows, gated by the
// watchlist.
type Recorder struct {
	store     Store
	watchlist *Watchlist
}

func NewRecorder(store Store, watchlist *Watchlist) *Recorder {
	return &Recorder{store: store, watchlist: watchlist}
}

// Record persists the message if its channel is tracked. Bot authors and
// untracked channels are silent no-ops. A duplicate message id is logged and
// swallowed, the platform promises unique ids so a duplicate means we saw a
// redelivery.
func (r *Recorder) Record(ctx context.Context, evt *MessageEvent) error {
	if evt.AuthorIsBot {
		return nil
	}

	tracked, err := r.watchlist.IsTracked(ctx, evt.ChannelID)
	if err != nil {
		return errors.WrapIf(err, "record")
	}

	if !tracked {
		return nil
	}

	err = r.store.RecordMessage(ctx, evt.recordedMessage())
	if errors.Is(err, ErrDuplicateMessage) {
		logger.WithField("message_id", evt.MessageID).Warn("skipped duplicate message id")
		return nil
	}
	if err != nil {
		return errors.WrapIf(err, "record")
	}

	metricsMessagesRecorded.Inc()
	return nil
}
