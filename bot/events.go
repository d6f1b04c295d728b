package bot

import (
	"runtime/debug"

	"github.com/bwmarrin/discordgo"
)

// MessageCreateHandler handles a single gateway message create event
type MessageCreateHandler func(s *discordgo.Session, m *discordgo.MessageCreate)

var messageCreateHandlers []MessageCreateHandler

// AddMessageCreateHandler registers a handler for message create events,
// not safe to call after Run
func AddMessageCreateHandler(h MessageCreateHandler) {
	messageCreateHandlers = append(messageCreateHandlers, h)
}

func dispatchMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	metricsHandledEvents.With(eventLabelMessageCreate).Inc()

	for _, h := range messageCreateHandlers {
		runIsolated(h, s, m)
	}
}

// runIsolated invokes the handler with panic isolation, a failure handling
// one message must never take down the event loop
func runIsolated(h MessageCreateHandler, s *discordgo.Session, m *discordgo.MessageCreate) {
	defer func() {
		if r := recover(); r != nil {
			stack := string(debug.Stack())
			logger.WithField("message_id", m.ID).Errorf("recovered from panic in message handler\n%v\n%s", r, stack)
		}
	}()

	h(s, m)
}
