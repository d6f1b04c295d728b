package tracker_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/electriccapital/cryptobot/tracker"
	"github.com/electriccapital/cryptobot/tracker/trackertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dmChannelBase = int64(5000000)

type sentMessage struct {
	channelID int64
	content   string
}

type fakeGateway struct {
	sent []sentMessage

	dmErr         error
	guildChannels map[int64][]*tracker.TrackedChannel
	members       map[int64]map[int64]bool
	admins        map[int64]bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		guildChannels: make(map[int64][]*tracker.TrackedChannel),
		members:       make(map[int64]map[int64]bool),
		admins:        make(map[int64]bool),
	}
}

func (g *fakeGateway) SendMessage(channelID int64, content string) error {
	g.sent = append(g.sent, sentMessage{channelID: channelID, content: content})
	return nil
}

func (g *fakeGateway) OpenPrivateChannel(userID int64) (int64, error) {
	if g.dmErr != nil {
		return 0, g.dmErr
	}
	return dmChannelBase + userID, nil
}

func (g *fakeGateway) GuildTextChannels(guildID int64) ([]*tracker.TrackedChannel, error) {
	return g.guildChannels[guildID], nil
}

func (g *fakeGateway) IsGuildMember(guildID, userID int64) (bool, error) {
	return g.members[guildID][userID], nil
}

func (g *fakeGateway) HasAdministrator(channelID, userID int64) (bool, error) {
	return g.admins[userID], nil
}

func (g *fakeGateway) lastSent() *sentMessage {
	if len(g.sent) == 0 {
		return nil
	}
	return &g.sent[len(g.sent)-1]
}

type routerFixture struct {
	store   *trackertest.FakeStore
	gateway *fakeGateway
	router  *tracker.Router

	nextMessageID int64
}

func newRouterFixture() *routerFixture {
	store := trackertest.NewFakeStore()
	gateway := newFakeGateway()

	return &routerFixture{
		store:         store,
		gateway:       gateway,
		router:        tracker.NewRouter(";", gateway, store),
		nextMessageID: 1000,
	}
}

// send feeds one message event through the router, timestamps sit slightly
// in the past so they always fall inside the rolling window
func (f *routerFixture) send(guildID, channelID, userID int64, content string, mentions ...*tracker.TrackedChannel) int64 {
	f.nextMessageID++

	evt := &tracker.MessageEvent{
		GuildID:           guildID,
		GuildName:         "test guild",
		ChannelID:         channelID,
		ChannelName:       "general",
		AuthorID:          userID,
		AuthorName:        "tester",
		Content:           content,
		MessageID:         f.nextMessageID,
		Timestamp:         time.Now().Unix() - 5,
		MentionedChannels: mentions,
	}

	f.router.HandleEvent(context.Background(), evt)
	return f.nextMessageID
}

func TestRouterDeniesNonAdmins(t *testing.T) {
	adminCommands := []string{";add <#10>", ";add-full-server", ";remove <#10>", ";remove-full-server"}

	for _, cmd := range adminCommands {
		t.Run(cmd, func(t *testing.T) {
			f := newRouterFixture()
			f.gateway.guildChannels[1] = []*tracker.TrackedChannel{testChannel(1, 10)}

			f.send(1, 10, 100, cmd, testChannel(1, 10))

			require.NotNil(t, f.gateway.lastSent())
			assert.Equal(t, "Only administrators can use this command.", f.gateway.lastSent().content)
			assert.Equal(t, 0, f.store.Writes, "denied command must not touch the watchlist")
		})
	}
}

func TestRouterAddAndRemove(t *testing.T) {
	f := newRouterFixture()
	f.gateway.admins[100] = true
	ctx := context.Background()

	f.send(1, 10, 100, ";add <#20>", testChannel(1, 20))
	assert.Equal(t, "Channel <#20> has been successfully added to the watchlist!", f.gateway.lastSent().content)

	f.send(1, 10, 100, ";add <#20>", testChannel(1, 20))
	assert.Equal(t, "Channel <#20> is already in the watchlist!", f.gateway.lastSent().content)

	f.send(1, 10, 100, ";remove <#20>", testChannel(1, 20))
	assert.Equal(t, "Channel <#20> has been successfully removed from the watchlist!", f.gateway.lastSent().content)

	tracked, err := f.store.ChannelTracked(ctx, 20)
	require.NoError(t, err)
	assert.False(t, tracked)

	f.send(1, 10, 100, ";remove <#20>", testChannel(1, 20))
	assert.Equal(t, "Channel <#20> is not in the watchlist!", f.gateway.lastSent().content)
}

func TestRouterAddWithoutMentions(t *testing.T) {
	f := newRouterFixture()
	f.gateway.admins[100] = true

	f.send(1, 10, 100, ";add")
	assert.Equal(t, "Please specify at least one channel.", f.gateway.lastSent().content)

	f.send(1, 10, 100, ";remove")
	assert.Equal(t, "Please specify at least one channel.", f.gateway.lastSent().content)
}

func TestRouterFullServer(t *testing.T) {
	f := newRouterFixture()
	f.gateway.admins[100] = true
	f.gateway.guildChannels[1] = []*tracker.TrackedChannel{testChannel(1, 20), testChannel(1, 21)}

	f.send(1, 10, 100, ";add-full-server")
	assert.Equal(t,
		"Channel <#20> has been successfully added to the watchlist!\n"+
			"Channel <#21> has been successfully added to the watchlist!",
		f.gateway.lastSent().content)

	f.send(1, 10, 100, ";remove-full-server")
	assert.Equal(t,
		"Channel <#20> has been successfully removed from the watchlist!\n"+
			"Channel <#21> has been successfully removed from the watchlist!",
		f.gateway.lastSent().content)

	f.send(2, 30, 100, ";add-full-server")
	assert.Equal(t, "Your server has no text channels!", f.gateway.lastSent().content)
}

func TestRouterUnknownCommandFallthrough(t *testing.T) {
	f := newRouterFixture()

	// untracked channel, the bogus command is neither run nor recorded
	f.send(1, 10, 100, ";bogus hello")
	assert.Nil(t, f.gateway.lastSent())
	assert.Equal(t, 0, f.store.Writes)

	// tracked channel, the bogus command is stored as a plain message with
	// the leading prefix preserved
	f.gateway.admins[100] = true
	f.send(1, 10, 100, ";add <#10>", testChannel(1, 10))

	msgID := f.send(1, 10, 100, ";bogus hello")

	msg := f.store.Message(msgID)
	require.NotNil(t, msg)
	assert.Equal(t, ";bogus hello", msg.Content)
}

func TestRouterTriggerNeedsFullToken(t *testing.T) {
	f := newRouterFixture()
	f.gateway.admins[100] = true

	// ;addfoo must not match add, it falls through to plain handling and
	// the channel stays untracked
	f.send(1, 10, 100, ";addfoo <#20>", testChannel(1, 20))

	tracked, err := f.store.ChannelTracked(context.Background(), 20)
	require.NoError(t, err)
	assert.False(t, tracked)
	assert.Nil(t, f.gateway.lastSent())
}

func TestRouterTriggerCaseInsensitive(t *testing.T) {
	f := newRouterFixture()
	f.gateway.admins[100] = true

	f.send(1, 10, 100, ";ADD <#20>", testChannel(1, 20))
	assert.Equal(t, "Channel <#20> has been successfully added to the watchlist!", f.gateway.lastSent().content)
}

func TestRouterHelpGoesToDM(t *testing.T) {
	f := newRouterFixture()

	f.send(1, 10, 100, ";help")

	require.NotNil(t, f.gateway.lastSent())
	assert.Equal(t, dmChannelBase+100, f.gateway.lastSent().channelID)
	assert.True(t, strings.HasPrefix(f.gateway.lastSent().content, "Hey, I'm CryptoBot!"))
	assert.Contains(t, f.gateway.lastSent().content, ";add <channel list>")
	assert.Contains(t, f.gateway.lastSent().content, ";user-stats <userID>")
}

func TestRouterHelpFallsBackOnDMFailure(t *testing.T) {
	f := newRouterFixture()
	f.gateway.dmErr = errors.New("cannot send messages to this user")

	f.send(1, 10, 100, ";help")

	require.NotNil(t, f.gateway.lastSent())
	assert.Equal(t, int64(10), f.gateway.lastSent().channelID)
	assert.Equal(t, "Oops - an error occurred. Please try again.", f.gateway.lastSent().content)
}

func TestRouterUserStatsInvalidArgument(t *testing.T) {
	f := newRouterFixture()

	f.send(1, 10, 100, ";user-stats")
	assert.Equal(t, "You need to provide a valid and tracked user ID!", f.gateway.lastSent().content)

	f.send(1, 10, 100, ";user-stats notanumber")
	assert.Equal(t, "You need to provide a valid and tracked user ID!", f.gateway.lastSent().content)

	// numeric but never seen
	f.send(1, 10, 100, ";user-stats 424242")
	assert.Equal(t, "You need to provide a valid and tracked user ID!", f.gateway.lastSent().content)
}

func TestRouterChannelStatsUntracked(t *testing.T) {
	f := newRouterFixture()

	f.send(1, 10, 100, ";channel-stats")
	assert.Equal(t, "Channel <#10> is not in the watchlist!", f.gateway.lastSent().content)
}

func TestRouterShowChannels(t *testing.T) {
	f := newRouterFixture()
	f.gateway.admins[100] = true

	f.send(1, 10, 100, ";show-channels")
	assert.Equal(t, "I can't find any tracked channels in this server!", f.gateway.lastSent().content)

	f.send(1, 10, 100, ";add <#11>", testChannel(1, 11))
	f.send(1, 10, 100, ";add <#12>", testChannel(1, 12))

	f.send(1, 10, 100, ";show-channels")
	assert.Equal(t, "List of tracked channels in this server:\n<#11>\n<#12>", f.gateway.lastSent().content)
}

func TestRouterStorageFailureIsTerminalForEvent(t *testing.T) {
	f := newRouterFixture()
	f.store.Err = errors.New("connection refused")

	f.send(1, 10, 100, ";server-stats")
	assert.Equal(t, "Something went wrong, please try again later.", f.gateway.lastSent().content)

	// the loop keeps going, a later event on a healthy store succeeds
	f.store.Err = nil
	f.send(1, 10, 100, ";server-stats")
	assert.True(t, strings.HasPrefix(f.gateway.lastSent().content, "Total messages recorded in this server: 0"))
}

func TestRouterEndToEnd(t *testing.T) {
	f := newRouterFixture()
	f.gateway.admins[100] = true
	f.gateway.members[1] = map[int64]bool{200: true}
	ctx := context.Background()

	f.send(1, 10, 100, ";add <#10>", testChannel(1, 10))

	// previously unseen user speaks in the tracked channel
	f.send(1, 10, 200, "hello")

	member, err := f.store.GetMember(ctx, 1, 200)
	require.NoError(t, err)
	assert.EqualValues(t, 1, member.MessagesSent)

	f.send(1, 10, 100, ";channel-stats")
	assert.Equal(t,
		"Total messages recorded in this channel: 1\nTotal messages recorded in this channel in the past week: 1",
		f.gateway.lastSent().content)

	f.send(1, 10, 100, fmt.Sprintf(";user-stats %d", 200))
	assert.Equal(t,
		"Number of distinct tracked servers that this user is in: 1\n"+
			"Number of tracked messages across all servers: 1\n"+
			"Number of tracked messages across all servers in the past week: 1\n"+
			"Number of tracked messages in this server: 1\n"+
			"Number of tracked messages in this server in the past week: 1",
		f.gateway.lastSent().content)
}
