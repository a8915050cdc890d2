package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"ripple/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory stand-ins for the database repos. They mimic the repo
// contract: misses return (nil, nil), reads hand back copies so later
// store writes do not leak into values a caller already holds.

type fakeChatStore struct {
	chats map[primitive.ObjectID]*models.Chat
}

func newFakeChatStore() *fakeChatStore {
	return &fakeChatStore{chats: make(map[primitive.ObjectID]*models.Chat)}
}

func copyChat(c *models.Chat) *models.Chat {
	d := *c
	d.Participants = append([]primitive.ObjectID(nil), c.Participants...)
	if c.LastMessageID != nil {
		id := *c.LastMessageID
		d.LastMessageID = &id
	}
	d.Members = nil
	d.LastMessage = nil
	return &d
}

func (s *fakeChatStore) Insert(ctx context.Context, chat *models.Chat) error {
	chat.ID = primitive.NewObjectID()
	now := time.Now().Unix()
	chat.CreatedAt = now
	chat.UpdatedAt = now
	s.chats[chat.ID] = copyChat(chat)
	return nil
}

func (s *fakeChatStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error) {
	if chat, ok := s.chats[id]; ok {
		return copyChat(chat), nil
	}
	return nil, nil
}

func (s *fakeChatStore) FindForParticipant(ctx context.Context, chatID, userID primitive.ObjectID) (*models.Chat, error) {
	chat, ok := s.chats[chatID]
	if !ok || !chat.HasParticipant(userID) {
		return nil, nil
	}
	return copyChat(chat), nil
}

func (s *fakeChatStore) FindGroupForParticipant(ctx context.Context, chatID, userID primitive.ObjectID) (*models.Chat, error) {
	chat, err := s.FindForParticipant(ctx, chatID, userID)
	if err != nil || chat == nil || !chat.IsGroup {
		return nil, err
	}
	return chat, nil
}

func (s *fakeChatStore) FindDirect(ctx context.Context, a, b primitive.ObjectID) (*models.Chat, error) {
	for _, chat := range s.chats {
		if chat.IsGroup || len(chat.Participants) != 2 {
			continue
		}
		if chat.HasParticipant(a) && chat.HasParticipant(b) {
			return copyChat(chat), nil
		}
	}
	return nil, nil
}

func (s *fakeChatStore) FindForUser(ctx context.Context, userID primitive.ObjectID, limit, offset int64) ([]*models.Chat, error) {
	var out []*models.Chat
	for _, chat := range s.chats {
		if chat.HasParticipant(userID) {
			out = append(out, copyChat(chat))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt > out[j].UpdatedAt })
	if offset >= int64(len(out)) {
		return nil, nil
	}
	out = out[offset:]
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeChatStore) CountForUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	var n int64
	for _, chat := range s.chats {
		if chat.HasParticipant(userID) {
			n++
		}
	}
	return n, nil
}

func (s *fakeChatStore) Save(ctx context.Context, chat *models.Chat) error {
	if _, ok := s.chats[chat.ID]; !ok {
		return errors.New("chat not found")
	}
	chat.UpdatedAt = time.Now().Unix()
	s.chats[chat.ID] = copyChat(chat)
	return nil
}

func (s *fakeChatStore) SetLastMessage(ctx context.Context, chatID primitive.ObjectID, messageID *primitive.ObjectID) error {
	chat, ok := s.chats[chatID]
	if !ok {
		return errors.New("chat not found")
	}
	if messageID == nil {
		chat.LastMessageID = nil
	} else {
		id := *messageID
		chat.LastMessageID = &id
	}
	chat.UpdatedAt = time.Now().Unix()
	return nil
}

func (s *fakeChatStore) Delete(ctx context.Context, chatID primitive.ObjectID) error {
	delete(s.chats, chatID)
	return nil
}

type fakeMessageStore struct {
	msgs []*models.Message
	seq  int64
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{}
}

func copyMessage(m *models.Message) *models.Message {
	d := *m
	if m.ReplyToID != nil {
		id := *m.ReplyToID
		d.ReplyToID = &id
	}
	d.Sender = nil
	d.ReplyTo = nil
	return &d
}

func (s *fakeMessageStore) Insert(ctx context.Context, msg *models.Message) error {
	msg.ID = primitive.NewObjectID()
	s.seq++
	msg.CreatedAt = s.seq
	msg.UpdatedAt = s.seq
	s.msgs = append(s.msgs, copyMessage(msg))
	return nil
}

func (s *fakeMessageStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error) {
	for _, m := range s.msgs {
		if m.ID == id {
			return copyMessage(m), nil
		}
	}
	return nil, nil
}

func (s *fakeMessageStore) FindInChat(ctx context.Context, id, chatID primitive.ObjectID) (*models.Message, error) {
	for _, m := range s.msgs {
		if m.ID == id && m.ChatID == chatID {
			return copyMessage(m), nil
		}
	}
	return nil, nil
}

func (s *fakeMessageStore) FindByChat(ctx context.Context, chatID primitive.ObjectID) ([]*models.Message, error) {
	var out []*models.Message
	for _, m := range s.msgs {
		if m.ChatID == chatID {
			out = append(out, copyMessage(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

func (s *fakeMessageStore) LatestInChat(ctx context.Context, chatID primitive.ObjectID) (*models.Message, error) {
	var latest *models.Message
	for _, m := range s.msgs {
		if m.ChatID != chatID {
			continue
		}
		if latest == nil || m.CreatedAt > latest.CreatedAt {
			latest = m
		}
	}
	if latest == nil {
		return nil, nil
	}
	return copyMessage(latest), nil
}

func (s *fakeMessageStore) Save(ctx context.Context, msg *models.Message) error {
	for i, m := range s.msgs {
		if m.ID == msg.ID {
			s.seq++
			msg.UpdatedAt = s.seq
			s.msgs[i] = copyMessage(msg)
			return nil
		}
	}
	return errors.New("message not found")
}

func (s *fakeMessageStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	for i, m := range s.msgs {
		if m.ID == id {
			s.msgs = append(s.msgs[:i], s.msgs[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *fakeMessageStore) DeleteByChat(ctx context.Context, chatID primitive.ObjectID) (int64, error) {
	var kept []*models.Message
	var n int64
	for _, m := range s.msgs {
		if m.ChatID == chatID {
			n++
			continue
		}
		kept = append(kept, m)
	}
	s.msgs = kept
	return n, nil
}

type fakeUserStore struct {
	users map[primitive.ObjectID]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[primitive.ObjectID]*models.User)}
}

func (s *fakeUserStore) add(name string) primitive.ObjectID {
	u := &models.User{
		ID:     primitive.NewObjectID(),
		Name:   name,
		Email:  name + "@example.com",
		Avatar: "https://example.com/" + name + ".png",
	}
	s.users[u.ID] = u
	return u.ID
}

func (s *fakeUserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		d := *u
		return &d, nil
	}
	return nil, nil
}

func (s *fakeUserStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.User, error) {
	var out []*models.User
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			d := *u
			out = append(out, &d)
		}
	}
	return out, nil
}

// recordingBroadcaster captures every emitted event for assertions.
type recordedEvent struct {
	Event   string
	Users   []primitive.ObjectID // personal-channel audience, nil for room events
	ChatID  primitive.ObjectID   // room target, zero for user events
	Payload any
}

type recordingBroadcaster struct {
	events []recordedEvent
}

func (b *recordingBroadcaster) ToUsers(userIDs []primitive.ObjectID, event string, payload any) {
	users := append([]primitive.ObjectID(nil), userIDs...)
	b.events = append(b.events, recordedEvent{Event: event, Users: users, Payload: payload})
}

func (b *recordingBroadcaster) ToRoom(chatID primitive.ObjectID, event string, payload any) {
	b.events = append(b.events, recordedEvent{Event: event, ChatID: chatID, Payload: payload})
}

func (b *recordingBroadcaster) named(event string) []recordedEvent {
	var out []recordedEvent
	for _, e := range b.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

type stubUploader struct {
	url string
	err error
}

func (u stubUploader) Upload(ctx context.Context, data, folder string) (string, error) {
	return u.url, u.err
}

// fixture wires the two services against the fakes.
type fixture struct {
	chats    *fakeChatStore
	messages *fakeMessageStore
	users    *fakeUserStore
	rt       *recordingBroadcaster
	uploads  *stubUploader

	chatSvc *ChatService
	msgSvc  *MessageService
}

func newFixture() *fixture {
	f := &fixture{
		chats:    newFakeChatStore(),
		messages: newFakeMessageStore(),
		users:    newFakeUserStore(),
		rt:       &recordingBroadcaster{},
		uploads:  &stubUploader{url: "https://cdn.example.com/img.png"},
	}
	f.chatSvc = NewChatService(f.chats, f.messages, f.users, f.rt)
	f.msgSvc = NewMessageService(f.chats, f.messages, f.users, f.uploads, f.rt)
	return f
}

func containsUser(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
