// Package trackertest provides an in-memory Store for tests, it mirrors the
// semantics of the postgres store including atomic message recording and
// duplicate message id detection.
package trackertest

import (
	"context"
	"sort"
	"sync"

	"github.com/electriccapital/cryptobot/tracker"
)

type FakeStore struct {
	mu sync.Mutex

	channels map[int64]*tracker.TrackedChannel
	members  map[memberKey]*tracker.Member
	messages map[int64]*tracker.RecordedMessage

	// Writes counts every mutating call that reached storage, useful for
	// asserting that gated events write nothing
	Writes int

	// Err, when set, is returned by every operation
	Err error
}

type memberKey struct {
	guildID int64
	userID  int64
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		channels: make(map[int64]*tracker.TrackedChannel),
		members:  make(map[memberKey]*tracker.Member),
		messages: make(map[int64]*tracker.RecordedMessage),
	}
}

// Message returns a copy of the recorded message with the given id, nil if
// none was recorded
func (s *FakeStore) Message(messageID int64) *tracker.RecordedMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[messageID]
	if !ok {
		return nil
	}

	cop := *msg
	return &cop
}

// MessageCount returns the number of recorded messages
func (s *FakeStore) MessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.messages)
}

func (s *FakeStore) ChannelTracked(ctx context.Context, channelID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return false, s.Err
	}

	_, ok := s.channels[channelID]
	return ok, nil
}

func (s *FakeStore) InsertChannel(ctx context.Context, channel *tracker.TrackedChannel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}

	s.Writes++
	cop := *channel
	s.channels[channel.ChannelID] = &cop
	return nil
}

func (s *FakeStore) DeleteChannel(ctx context.Context, channelID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}

	s.Writes++
	delete(s.channels, channelID)
	return nil
}

func (s *FakeStore) ListChannelIDs(ctx context.Context, guildID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}

	ids := make([]int64, 0)
	for _, c := range s.channels {
		if c.GuildID == guildID {
			ids = append(ids, c.ChannelID)
		}
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *FakeStore) RecordMessage(ctx context.Context, msg *tracker.RecordedMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}

	if _, ok := s.messages[msg.MessageID]; ok {
		return tracker.ErrDuplicateMessage
	}

	s.Writes++

	key := memberKey{guildID: msg.GuildID, userID: msg.UserID}
	member, ok := s.members[key]
	if !ok {
		member = &tracker.Member{
			GuildID:   msg.GuildID,
			GuildName: msg.GuildName,
			UserID:    msg.UserID,
			UserName:  msg.UserName,
			Nickname:  msg.Nickname,
		}
		s.members[key] = member
	}

	cop := *msg
	s.messages[msg.MessageID] = &cop
	member.MessagesSent++

	return nil
}

func (s *FakeStore) GetMember(ctx context.Context, guildID, userID int64) (*tracker.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}

	member, ok := s.members[memberKey{guildID: guildID, userID: userID}]
	if !ok {
		return nil, tracker.ErrMemberNotFound
	}

	cop := *member
	return &cop, nil
}

func (s *FakeStore) UserKnown(ctx context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return false, s.Err
	}

	for key := range s.members {
		if key.userID == userID {
			return true, nil
		}
	}

	return false, nil
}

func (s *FakeStore) CountUserGuilds(ctx context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return 0, s.Err
	}

	var n int64
	for key := range s.members {
		if key.userID == userID {
			n++
		}
	}

	return n, nil
}

func (s *FakeStore) CountMessages(ctx context.Context, filter tracker.MessageFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return 0, s.Err
	}

	var n int64
	for _, msg := range s.messages {
		if filter.GuildID != 0 && msg.GuildID != filter.GuildID {
			continue
		}
		if filter.ChannelID != 0 && msg.ChannelID != filter.ChannelID {
			continue
		}
		if filter.UserID != 0 && msg.UserID != filter.UserID {
			continue
		}
		if filter.After != 0 && msg.CreatedAt < filter.After {
			continue
		}
		if filter.Before != 0 && msg.CreatedAt >= filter.Before {
			continue
		}
		n++
	}

	return n, nil
}
