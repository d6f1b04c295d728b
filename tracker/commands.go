package tracker

import (
	"context"
	"strconv"
	"strings"
	"time"

	"emperror.dev/errors"
)

const (
	replyAdminOnly      = "Only administrators can use this command."
	replyGenericFailure = "Something went wrong, please try again later."
	replyNoMentions     = "Please specify at least one channel."
	replyNoTextChannels = "Your server has no text channels!"
	replyInvalidUser    = "You need to provide a valid and tracked user ID!"
)

// CommandData is what a command handler gets to work with.
type CommandData struct {
	Evt  *MessageEvent
	Args string // remainder after the trigger, lowercased and trimmed
	Now  int64  // unix seconds, fixed once per event
}

// Command is a single entry in the dispatch table, adding a command is a
// data change here rather than a control flow change.
type Command struct {
	Trigger      string
	Description  string
	RequireAdmin bool
	Run          func(ctx context.Context, data *CommandData) (string, error)
}

// Router classifies events as commands or plain messages and dispatches
// them, it is the only component that talks back to the platform.
type Router struct {
	prefix  string
	gateway Gateway

	watchlist *Watchlist
	recorder  *Recorder
	stats     *Stats

	commands []*Command
	now      func() int64
}

func NewRouter(prefix string, gateway Gateway, store Store) *Router {
	watchlist := NewWatchlist(store)
	r := &Router{
		prefix:    prefix,
		gateway:   gateway,
		watchlist: watchlist,
		recorder:  NewRecorder(store, watchlist),
		stats:     NewStats(store),
		now:       func() int64 { return time.Now().Unix() },
	}

	r.commands = []*Command{
		{Trigger: "help", Description: "Sends help through DMs.", Run: r.cmdHelp},
		{Trigger: "add", Description: "Adds channels to the watchlist of channels to track.", RequireAdmin: true, Run: r.cmdAdd},
		{Trigger: "add-full-server", Description: "Adds all channels in the server to the watchlist of channels to track.", RequireAdmin: true, Run: r.cmdAddFullServer},
		{Trigger: "remove", Description: "Removes channels from the watchlist of channels to track.", RequireAdmin: true, Run: r.cmdRemove},
		{Trigger: "remove-full-server", Description: "Removes all channels in the server from the watchlist of channels to track.", RequireAdmin: true, Run: r.cmdRemoveFullServer},
		{Trigger: "channel-stats", Description: "Lists stats about a channel.", Run: r.cmdChannelStats},
		{Trigger: "server-stats", Description: "Lists stats about a server.", Run: r.cmdServerStats},
		{Trigger: "user-stats", Description: "Lists stats about a user.", Run: r.cmdUserStats},
		{Trigger: "show-channels", Description: "Lists all channels tracked in a server.", Run: r.cmdShowChannels},
	}

	return r
}

// HandleEvent processes one inbound event to completion, every failure is
// terminal for this event only and never propagates.
func (r *Router) HandleEvent(ctx context.Context, evt *MessageEvent) {
	if evt.AuthorIsBot {
		return
	}

	lowered := strings.ToLower(evt.Content)
	if !strings.HasPrefix(lowered, r.prefix) {
		r.recordPlain(ctx, evt)
		return
	}

	cmd, args := r.matchCommand(lowered[len(r.prefix):])
	if cmd == nil {
		// an unmatched ;something still counts as a plain message, this
		// fallthrough is intentional, see DESIGN.md
		r.recordPlain(ctx, evt)
		return
	}

	metricsCommandsHandled.WithLabelValues(cmd.Trigger).Inc()

	if cmd.RequireAdmin {
		admin, err := r.gateway.HasAdministrator(evt.ChannelID, evt.AuthorID)
		if err != nil {
			logger.WithError(err).WithField("guild", evt.GuildID).Error("failed checking administrator permission")
			r.reply(evt, replyGenericFailure)
			return
		}
		if !admin {
			r.reply(evt, replyAdminOnly)
			return
		}
	}

	resp, err := cmd.Run(ctx, &CommandData{Evt: evt, Args: args, Now: r.now()})
	if err != nil {
		metricsStorageErrors.Inc()
		logger.WithError(err).WithField("guild", evt.GuildID).Errorf("command %q failed", cmd.Trigger)
		r.reply(evt, replyGenericFailure)
		return
	}

	if resp != "" {
		r.reply(evt, resp)
	}
}

// matchCommand requires the trigger as a full first token so ";addfoo" never
// matches "add". Longer triggers are checked first so "add-full-server"
// wins over "add".
func (r *Router) matchCommand(text string) (*Command, string) {
	var match *Command
	for _, cmd := range r.commands {
		if text != cmd.Trigger && !strings.HasPrefix(text, cmd.Trigger+" ") {
			continue
		}
		if match == nil || len(cmd.Trigger) > len(match.Trigger) {
			match = cmd
		}
	}

	if match == nil {
		return nil, ""
	}

	return match, strings.TrimSpace(text[len(match.Trigger):])
}

func (r *Router) recordPlain(ctx context.Context, evt *MessageEvent) {
	err := r.recorder.Record(ctx, evt)
	if err != nil {
		metricsStorageErrors.Inc()
		logger.WithError(err).WithField("guild", evt.GuildID).Error("failed recording message")
	}
}

// reply sends to the origin channel, delivery failures are logged once and
// never retried
func (r *Router) reply(evt *MessageEvent, content string) {
	err := r.gateway.SendMessage(evt.ChannelID, content)
	if err != nil {
		logger.WithError(err).WithField("channel", evt.ChannelID).Warn("failed delivering reply")
	}
}

func (r *Router) cmdHelp(ctx context.Context, data *CommandData) (string, error) {
	dmChannel, err := r.gateway.OpenPrivateChannel(data.Evt.AuthorID)
	if err == nil {
		err = r.gateway.SendMessage(dmChannel, r.helpMessage())
	}

	if err != nil {
		// DMs disabled or rate limited, apologize in the origin channel
		// instead and leave it at that
		logger.WithError(err).WithField("user", data.Evt.AuthorID).Warn("failed delivering help DM")
		return "Oops - an error occurred. Please try again.", nil
	}

	return "", nil
}

func (r *Router) cmdAdd(ctx context.Context, data *CommandData) (string, error) {
	if len(data.Evt.MentionedChannels) == 0 {
		return replyNoMentions, nil
	}

	return formatChannelOutcomes(r.watchlist.AddAll(ctx, data.Evt.MentionedChannels)), nil
}

func (r *Router) cmdAddFullServer(ctx context.Context, data *CommandData) (string, error) {
	channels, err := r.gateway.GuildTextChannels(data.Evt.GuildID)
	if err != nil {
		return "", err
	}

	if len(channels) == 0 {
		return replyNoTextChannels, nil
	}

	return formatChannelOutcomes(r.watchlist.AddAll(ctx, channels)), nil
}

func (r *Router) cmdRemove(ctx context.Context, data *CommandData) (string, error) {
	if len(data.Evt.MentionedChannels) == 0 {
		return replyNoMentions, nil
	}

	return formatChannelOutcomes(r.watchlist.RemoveAll(ctx, data.Evt.MentionedChannels)), nil
}

func (r *Router) cmdRemoveFullServer(ctx context.Context, data *CommandData) (string, error) {
	channels, err := r.gateway.GuildTextChannels(data.Evt.GuildID)
	if err != nil {
		return "", err
	}

	if len(channels) == 0 {
		return replyNoTextChannels, nil
	}

	return formatChannelOutcomes(r.watchlist.RemoveAll(ctx, channels)), nil
}

func (r *Router) cmdChannelStats(ctx context.Context, data *CommandData) (string, error) {
	counts, err := r.stats.ChannelStats(ctx, data.Evt.ChannelID, data.Now)
	if errors.Is(err, ErrNotTracked) {
		return "Channel " + channelMention(data.Evt.ChannelID) + " is not in the watchlist!", nil
	}
	if err != nil {
		return "", err
	}

	return "Total messages recorded in this channel: " + strconv.FormatInt(counts.Total, 10) +
		"\nTotal messages recorded in this channel in the past week: " + strconv.FormatInt(counts.LastWeek, 10), nil
}

func (r *Router) cmdServerStats(ctx context.Context, data *CommandData) (string, error) {
	counts, err := r.stats.ServerStats(ctx, data.Evt.GuildID, data.Now)
	if err != nil {
		return "", err
	}

	return "Total messages recorded in this server: " + strconv.FormatInt(counts.Total, 10) +
		"\nTotal messages sent in this server in the past week: " + strconv.FormatInt(counts.LastWeek, 10), nil
}

func (r *Router) cmdUserStats(ctx context.Context, data *CommandData) (string, error) {
	fields := strings.Fields(data.Args)
	if len(fields) == 0 {
		return replyInvalidUser, nil
	}

	userID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return replyInvalidUser, nil
	}

	inGuild, err := r.gateway.IsGuildMember(data.Evt.GuildID, userID)
	if err != nil {
		return "", err
	}

	stats, err := r.stats.UserStats(ctx, userID, data.Evt.GuildID, inGuild, data.Now)
	if errors.Is(err, ErrUnknownUser) {
		return replyInvalidUser, nil
	}
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Number of distinct tracked servers that this user is in: " + strconv.FormatInt(stats.DistinctGuilds, 10))
	b.WriteString("\nNumber of tracked messages across all servers: " + strconv.FormatInt(stats.TotalAllGuilds, 10))
	b.WriteString("\nNumber of tracked messages across all servers in the past week: " + strconv.FormatInt(stats.LastWeekAllGuilds, 10))

	if !stats.InGuild {
		b.WriteString("\nThis user is not in the server!")
		return b.String(), nil
	}

	b.WriteString("\nNumber of tracked messages in this server: " + strconv.FormatInt(stats.TotalInGuild, 10))
	b.WriteString("\nNumber of tracked messages in this server in the past week: " + strconv.FormatInt(stats.LastWeekInGuild, 10))

	return b.String(), nil
}

func (r *Router) cmdShowChannels(ctx context.Context, data *CommandData) (string, error) {
	ids, err := r.watchlist.List(ctx, data.Evt.GuildID)
	if err != nil {
		return "", err
	}

	if len(ids) == 0 {
		return "I can't find any tracked channels in this server!", nil
	}

	var b strings.Builder
	b.WriteString("List of tracked channels in this server:")
	for _, id := range ids {
		b.WriteString("\n" + channelMention(id))
	}

	return b.String(), nil
}

func formatChannelOutcomes(results []ChannelOutcome) string {
	lines := make([]string, 0, len(results))
	for _, res := range results {
		mention := channelMention(res.Channel.ChannelID)

		switch {
		case res.Err != nil:
			metricsStorageErrors.Inc()
			logger.WithError(res.Err).WithField("channel", res.Channel.ChannelID).Error("failed updating watchlist")
			lines = append(lines, "Something went wrong with channel "+mention+", please try again later.")
		case res.Outcome == OutcomeAdded:
			lines = append(lines, "Channel "+mention+" has been successfully added to the watchlist!")
		case res.Outcome == OutcomeAlreadyTracked:
			lines = append(lines, "Channel "+mention+" is already in the watchlist!")
		case res.Outcome == OutcomeRemoved:
			lines = append(lines, "Channel "+mention+" has been successfully removed from the watchlist!")
		case res.Outcome == OutcomeNotTracked:
			lines = append(lines, "Channel "+mention+" is not in the watchlist!")
		}
	}

	return strings.Join(lines, "\n")
}

func channelMention(channelID int64) string {
	return "<#" + strconv.FormatInt(channelID, 10) + ">"
}
