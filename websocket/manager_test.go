package websocket

import (
	"context"
	"encoding/json"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeDirectory struct {
	chats map[string][]primitive.ObjectID // user id hex -> chat ids
}

func (d *fakeDirectory) IDsForUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return d.chats[userID.Hex()], nil
}

func testManager() (*Manager, *fakeDirectory) {
	dir := &fakeDirectory{chats: make(map[string][]primitive.ObjectID)}
	return NewManager(dir), dir
}

// recvEvent drains one queued frame, or reports that nothing arrived.
func recvEvent(t *testing.T, c *Client) (string, json.RawMessage, bool) {
	t.Helper()
	select {
	case data := <-c.send:
		var env struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("bad frame %q: %v", data, err)
		}
		return env.Type, env.Payload, true
	default:
		return "", nil, false
	}
}

func TestRegisterUnregister(t *testing.T) {
	m, _ := testManager()
	user := primitive.NewObjectID()

	a := newClient(m, nil, user.Hex())
	b := newClient(m, nil, user.Hex())
	m.Register(a)
	m.Register(b)
	if got := m.ConnectedClients(); got != 2 {
		t.Fatalf("ConnectedClients = %d, want 2", got)
	}

	m.Unregister(a)
	if got := m.ConnectedClients(); got != 1 {
		t.Fatalf("ConnectedClients = %d after unregister, want 1", got)
	}
	// Second unregister of the same client is a no-op, not a double
	// close of the send channel.
	m.Unregister(a)

	m.Unregister(b)
	if got := m.ConnectedClients(); got != 0 {
		t.Fatalf("ConnectedClients = %d, want 0", got)
	}
}

func TestToUsersMultiDeviceFanout(t *testing.T) {
	m, _ := testManager()
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()

	phone := newClient(m, nil, alice.Hex())
	laptop := newClient(m, nil, alice.Hex())
	other := newClient(m, nil, bob.Hex())
	m.Register(phone)
	m.Register(laptop)
	m.Register(other)

	m.ToUsers([]primitive.ObjectID{alice}, "last-message-updated", map[string]string{"chatId": "x"})

	for _, c := range []*Client{phone, laptop} {
		event, _, ok := recvEvent(t, c)
		if !ok || event != "last-message-updated" {
			t.Errorf("device missed the personal event (got %q, ok=%v)", event, ok)
		}
	}
	if _, _, ok := recvEvent(t, other); ok {
		t.Error("event leaked to a user outside the audience")
	}
}

func TestToRoomReachesOnlyMembers(t *testing.T) {
	m, _ := testManager()
	chatID := primitive.NewObjectID()

	member := newClient(m, nil, primitive.NewObjectID().Hex())
	outsider := newClient(m, nil, primitive.NewObjectID().Hex())
	m.Register(member)
	m.Register(outsider)
	m.JoinRooms(member, []primitive.ObjectID{chatID})

	m.ToRoom(chatID, "new-message", map[string]string{"content": "hi"})

	event, payload, ok := recvEvent(t, member)
	if !ok || event != "new-message" {
		t.Fatalf("member missed room event (got %q, ok=%v)", event, ok)
	}
	var body map[string]string
	if err := json.Unmarshal(payload, &body); err != nil || body["content"] != "hi" {
		t.Errorf("payload = %s, want content hi", payload)
	}
	if _, _, ok := recvEvent(t, outsider); ok {
		t.Error("room event leaked to a non-member")
	}
}

func TestSubscribeVerifiesMembership(t *testing.T) {
	m, dir := testManager()
	user := primitive.NewObjectID()
	chatID := primitive.NewObjectID()

	c := newClient(m, nil, user.Hex())
	m.Register(c)

	if m.Subscribe(context.Background(), c, chatID) {
		t.Fatal("subscribe succeeded for a chat the user does not belong to")
	}
	m.ToRoom(chatID, "new-message", nil)
	if _, _, ok := recvEvent(t, c); ok {
		t.Fatal("unverified client received a room event")
	}

	dir.chats[user.Hex()] = []primitive.ObjectID{chatID}
	if !m.Subscribe(context.Background(), c, chatID) {
		t.Fatal("subscribe failed for a chat the user belongs to")
	}
	m.ToRoom(chatID, "new-message", nil)
	if event, _, ok := recvEvent(t, c); !ok || event != "new-message" {
		t.Fatalf("subscribed client missed room event (got %q, ok=%v)", event, ok)
	}
}

func TestUnregisterLeavesRooms(t *testing.T) {
	m, _ := testManager()
	chatID := primitive.NewObjectID()

	c := newClient(m, nil, primitive.NewObjectID().Hex())
	m.Register(c)
	m.JoinRooms(c, []primitive.ObjectID{chatID})
	m.Unregister(c)

	// Must not panic by sending on the closed channel.
	m.ToRoom(chatID, "new-message", nil)
	m.ToUsers([]primitive.ObjectID{chatID}, "new-chat", nil)
}

func TestJoinRoomsIgnoresUnregisteredClients(t *testing.T) {
	m, _ := testManager()
	chatID := primitive.NewObjectID()

	c := newClient(m, nil, primitive.NewObjectID().Hex())
	m.JoinRooms(c, []primitive.ObjectID{chatID})

	m.ToRoom(chatID, "new-message", nil)
	if _, _, ok := recvEvent(t, c); ok {
		t.Error("unregistered client enrolled in a room")
	}
}

func TestBroadcastToUnregisteredClientIsNoOp(t *testing.T) {
	m, _ := testManager()
	user := primitive.NewObjectID()
	chatID := primitive.NewObjectID()

	gone := newClient(m, nil, user.Hex())
	alive := newClient(m, nil, user.Hex())
	m.Register(gone)
	m.Register(alive)
	m.JoinRooms(gone, []primitive.ObjectID{chatID})
	m.JoinRooms(alive, []primitive.ObjectID{chatID})
	m.Unregister(gone)

	// The departed connection's send queue is closed; delivery to it
	// must be skipped, not attempted.
	m.ToUsers([]primitive.ObjectID{user}, "new-chat", nil)
	m.ToRoom(chatID, "new-message", nil)
	gone.reply("pong", nil)

	if event, _, ok := recvEvent(t, alive); !ok || event != "new-chat" {
		t.Errorf("surviving client missed personal event (got %q, ok=%v)", event, ok)
	}
	if event, _, ok := recvEvent(t, alive); !ok || event != "new-message" {
		t.Errorf("surviving client missed room event (got %q, ok=%v)", event, ok)
	}
}

func TestBroadcastConcurrentWithDisconnect(t *testing.T) {
	m, _ := testManager()
	user := primitive.NewObjectID()
	chatID := primitive.NewObjectID()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			m.ToUsers([]primitive.ObjectID{user}, "last-message-updated", nil)
			m.ToRoom(chatID, "new-message", nil)
		}
	}()

	// Connections churn while broadcasts are in flight. A disconnect
	// landing mid-broadcast must never panic the fan-out goroutine.
	for i := 0; i < 500; i++ {
		c := newClient(m, nil, user.Hex())
		m.Register(c)
		m.JoinRooms(c, []primitive.ObjectID{chatID})
		c.reply("pong", nil)
		m.Unregister(c)
	}
	<-done

	if got := m.ConnectedClients(); got != 0 {
		t.Fatalf("ConnectedClients = %d after churn, want 0", got)
	}
}

func TestPushDropsClientWithFullQueue(t *testing.T) {
	m, _ := testManager()
	user := primitive.NewObjectID()

	c := newClient(m, nil, user.Hex())
	m.Register(c)
	for i := 0; i < cap(c.send); i++ {
		c.send <- []byte("backlog")
	}

	m.ToUsers([]primitive.ObjectID{user}, "new-message", nil)

	if got := m.ConnectedClients(); got != 0 {
		t.Fatalf("ConnectedClients = %d, want 0 after dropping a stalled client", got)
	}
}
