// Package websocket keeps the live side of the app: who is connected,
// which chat rooms each connection is enrolled in, and the fan-out of
// events to rooms and personal channels.
package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoomDirectory answers "which chats does this user belong to"; the
// registry queries it once per connection to build the room snapshot,
// and again when a client explicitly re-subscribes.
type RoomDirectory interface {
	IDsForUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
}

// Manager is the presence registry and live event broadcaster. All
// state is ephemeral: maps are rebuilt from reconnects and never
// persisted. Safe for concurrent use from any connection handler.
type Manager struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	users   map[string]map[*Client]bool // personal channels, keyed by user id
	rooms   map[string]map[*Client]bool // chat rooms, keyed by chat id

	directory RoomDirectory
}

func NewManager(directory RoomDirectory) *Manager {
	return &Manager{
		clients:   make(map[*Client]bool),
		users:     make(map[string]map[*Client]bool),
		rooms:     make(map[string]map[*Client]bool),
		directory: directory,
	}
}

// Register enrolls an authenticated connection into its personal
// channel. Room enrollment happens separately via JoinRooms with the
// snapshot taken at connect time.
func (m *Manager) Register(c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[c] = true
	if m.users[c.userID] == nil {
		m.users[c.userID] = make(map[*Client]bool)
	}
	m.users[c.userID][c] = true
	log.Printf("websocket: client registered for user %s (%d total)", c.userID, len(m.clients))
}

// Unregister removes the connection from every channel and room it was
// enrolled in and closes its send queue. Safe to call more than once;
// a broadcast already in flight to this connection becomes a no-op.
func (m *Manager) Unregister(c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.clients[c] {
		return
	}
	delete(m.clients, c)
	if conns := m.users[c.userID]; conns != nil {
		delete(conns, c)
		if len(conns) == 0 {
			delete(m.users, c.userID)
		}
	}
	for chatID, members := range m.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(m.rooms, chatID)
		}
	}
	close(c.send)
	log.Printf("websocket: client unregistered for user %s (%d total)", c.userID, len(m.clients))
}

// JoinRooms enrolls the connection into the given chat rooms.
func (m *Manager) JoinRooms(c *Client, chatIDs []primitive.ObjectID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.clients[c] {
		return
	}
	for _, id := range chatIDs {
		key := id.Hex()
		if m.rooms[key] == nil {
			m.rooms[key] = make(map[*Client]bool)
		}
		m.rooms[key][c] = true
	}
}

// Subscribe re-enrolls the connection into a single chat room after
// re-verifying membership against the directory. Clients call this
// after being added to a chat that postdates their room snapshot.
func (m *Manager) Subscribe(ctx context.Context, c *Client, chatID primitive.ObjectID) bool {
	userID, err := primitive.ObjectIDFromHex(c.userID)
	if err != nil {
		return false
	}
	ids, err := m.directory.IDsForUser(ctx, userID)
	if err != nil {
		log.Printf("websocket: subscribe lookup failed for user %s: %v", c.userID, err)
		return false
	}
	for _, id := range ids {
		if id == chatID {
			m.JoinRooms(c, []primitive.ObjectID{chatID})
			return true
		}
	}
	return false
}

// ToUsers pushes the event to every live connection of each listed
// user. A connection shared between two listed users (impossible in
// practice, but cheap to guard) still receives the event once.
func (m *Manager) ToUsers(userIDs []primitive.ObjectID, event string, payload any) {
	data, ok := encodeEvent(event, payload)
	if !ok {
		return
	}

	m.mu.RLock()
	targets := make(map[*Client]bool)
	for _, id := range userIDs {
		for c := range m.users[id.Hex()] {
			targets[c] = true
		}
	}
	stale := queueLocked(targets, data)
	m.mu.RUnlock()

	m.drop(stale)
}

// ToRoom pushes the event to every connection enrolled in the chat's
// room.
func (m *Manager) ToRoom(chatID primitive.ObjectID, event string, payload any) {
	data, ok := encodeEvent(event, payload)
	if !ok {
		return
	}

	m.mu.RLock()
	targets := make(map[*Client]bool, len(m.rooms[chatID.Hex()]))
	for c := range m.rooms[chatID.Hex()] {
		targets[c] = true
	}
	stale := queueLocked(targets, data)
	m.mu.RUnlock()

	m.drop(stale)
}

// send queues data on one connection if it is still registered. A
// disconnect racing the broadcast makes this a no-op.
func (m *Manager) send(c *Client, data []byte) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.clients[c] {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// queueLocked queues data on each target and reports the connections
// whose queue was full. Callers must hold mu (read is enough): send
// queues are only closed under the write lock, so holding it keeps a
// concurrent Unregister from closing a channel mid-send.
func queueLocked(targets map[*Client]bool, data []byte) []*Client {
	var stale []*Client
	for c := range targets {
		select {
		case c.send <- data:
		default:
			stale = append(stale, c)
		}
	}
	return stale
}

// drop evicts connections whose send queue was full; they are treated
// as dead.
func (m *Manager) drop(stale []*Client) {
	for _, c := range stale {
		log.Printf("websocket: dropping unresponsive client for user %s", c.userID)
		m.Unregister(c)
		if c.conn != nil {
			c.conn.Close()
		}
	}
}

// ConnectedClients reports the current connection count.
func (m *Manager) ConnectedClients() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func encodeEvent(event string, payload any) ([]byte, bool) {
	data, err := json.Marshal(envelope{Type: event, Payload: payload})
	if err != nil {
		log.Printf("websocket: error marshaling %s event: %v", event, err)
		return nil, false
	}
	return data, true
}
