package tracker

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/electriccapital/cryptobot/bot"
	"github.com/electriccapital/cryptobot/common"
)

var _ bot.BotInitHandler = (*Plugin)(nil)

func (p *Plugin) BotInit() {
	prefix := confPrefix.GetString()
	if prefix == "" {
		prefix = ";"
	}

	gateway := &discordGateway{session: common.BotSession}
	p.router = NewRouter(prefix, gateway, NewPostgresStore(common.PQ))

	bot.AddMessageCreateHandler(p.handleMessageCreate)
}

func (p *Plugin) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.GuildID == "" {
		// DMs are neither tracked nor a command surface
		return
	}

	evt, err := p.eventFromMessage(s, m)
	if err != nil {
		logger.WithError(err).WithField("message_id", m.ID).Error("failed decoding message event")
		return
	}

	p.router.HandleEvent(context.Background(), evt)
}

var channelMentionRegex = regexp.MustCompile(`<#(\d+)>`)

func (p *Plugin) eventFromMessage(s *discordgo.Session, m *discordgo.MessageCreate) (*MessageEvent, error) {
	guildID, err := strconv.ParseInt(m.GuildID, 10, 64)
	if err != nil {
		return nil, err
	}
	channelID, err := strconv.ParseInt(m.ChannelID, 10, 64)
	if err != nil {
		return nil, err
	}
	authorID, err := strconv.ParseInt(m.Author.ID, 10, 64)
	if err != nil {
		return nil, err
	}
	messageID, err := strconv.ParseInt(m.ID, 10, 64)
	if err != nil {
		return nil, err
	}

	guildName := guildName(s, m.GuildID)

	nick := ""
	if m.Member != nil {
		nick = m.Member.Nick
	}

	evt := &MessageEvent{
		GuildID:     guildID,
		GuildName:   guildName,
		ChannelID:   channelID,
		ChannelName: channelName(s, m.ChannelID),
		AuthorID:    authorID,
		AuthorName:  m.Author.Username,
		AuthorNick:  nick,
		AuthorIsBot: m.Author.Bot,
		Content:     m.Content,
		MessageID:   messageID,
		Timestamp:   m.Timestamp.Unix(),
	}

	// channel mentions are only meaningful for the add/remove commands, so
	// only resolve them for prefixed messages
	if strings.HasPrefix(evt.Content, p.router.prefix) {
		evt.MentionedChannels = p.resolveChannelMentions(s, guildID, guildName, evt.Content)
	}

	return evt, nil
}

func (p *Plugin) resolveChannelMentions(s *discordgo.Session, guildID int64, guildName, content string) []*TrackedChannel {
	matches := channelMentionRegex.FindAllStringSubmatch(content, -1)

	channels := make([]*TrackedChannel, 0, len(matches))
	for _, match := range matches {
		id, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			continue
		}

		seen := false
		for _, existing := range channels {
			if existing.ChannelID == id {
				seen = true
				break
			}
		}
		if seen {
			continue
		}

		channels = append(channels, &TrackedChannel{
			GuildID:     guildID,
			GuildName:   guildName,
			ChannelID:   id,
			ChannelName: channelName(s, match[1]),
		})
	}

	return channels
}

func guildName(s *discordgo.Session, guildID string) string {
	g, err := s.State.Guild(guildID)
	if err != nil {
		g, err = s.Guild(guildID)
	}
	if err != nil {
		logger.WithError(err).WithField("guild", guildID).Warn("failed resolving guild name")
		return ""
	}

	return g.Name
}

func channelName(s *discordgo.Session, channelID string) string {
	c, err := s.State.Channel(channelID)
	if err != nil {
		c, err = s.Channel(channelID)
	}
	if err != nil {
		logger.WithError(err).WithField("channel", channelID).Warn("failed resolving channel name")
		return ""
	}

	return c.Name
}

// discordGateway implements Gateway over the live discord session.
type discordGateway struct {
	session *discordgo.Session
}

func (g *discordGateway) SendMessage(channelID int64, content string) error {
	_, err := g.session.ChannelMessageSend(strconv.FormatInt(channelID, 10), content)
	return err
}

func (g *discordGateway) OpenPrivateChannel(userID int64) (int64, error) {
	channel, err := g.session.UserChannelCreate(strconv.FormatInt(userID, 10))
	if err != nil {
		return 0, err
	}

	return strconv.ParseInt(channel.ID, 10, 64)
}

func (g *discordGateway) GuildTextChannels(guildID int64) ([]*TrackedChannel, error) {
	gidStr := strconv.FormatInt(guildID, 10)
	channels, err := g.session.GuildChannels(gidStr)
	if err != nil {
		return nil, err
	}

	gName := guildName(g.session, gidStr)

	out := make([]*TrackedChannel, 0, len(channels))
	for _, c := range channels {
		if c.Type != discordgo.ChannelTypeGuildText {
			continue
		}

		id, err := strconv.ParseInt(c.ID, 10, 64)
		if err != nil {
			continue
		}

		out = append(out, &TrackedChannel{
			GuildID:     guildID,
			GuildName:   gName,
			ChannelID:   id,
			ChannelName: c.Name,
		})
	}

	return out, nil
}

func (g *discordGateway) IsGuildMember(guildID, userID int64) (bool, error) {
	_, err := g.session.GuildMember(strconv.FormatInt(guildID, 10), strconv.FormatInt(userID, 10))
	if err != nil {
		if restErr, ok := err.(*discordgo.RESTError); ok && restErr.Response != nil && restErr.Response.StatusCode == 404 {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (g *discordGateway) HasAdministrator(channelID, userID int64) (bool, error) {
	perms, err := g.session.UserChannelPermissions(strconv.FormatInt(userID, 10), strconv.FormatInt(channelID, 10))
	if err != nil {
		return false, err
	}

	return perms&discordgo.PermissionAdministrator != 0, nil
}
