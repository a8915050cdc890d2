package websocket

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	readLimit  = 4096
)

// Client is one live connection of one authenticated user. A user may
// hold several clients at once (multi-device).
type Client struct {
	conn    *websocket.Conn
	userID  string
	send    chan []byte
	manager *Manager
}

func newClient(manager *Manager, conn *websocket.Conn, userID string) *Client {
	return &Client{
		conn:    conn,
		userID:  userID,
		send:    make(chan []byte, 256),
		manager: manager,
	}
}

type clientFrame struct {
	Type    string `json:"type"`
	Payload struct {
		ChatID string `json:"chatId"`
	} `json:"payload"`
}

func (c *Client) readPump() {
	defer func() {
		c.manager.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket: read error: %v", err)
			}
			break
		}

		var frame clientFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			log.Printf("websocket: bad frame from user %s: %v", c.userID, err)
			continue
		}

		switch frame.Type {
		case "subscribe_chat":
			c.handleSubscribeChat(frame)
		case "typing_start", "typing_end":
			c.handleTyping(frame)
		case "ping":
			c.reply("pong", map[string]any{"time": time.Now().Unix()})
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleSubscribeChat joins a chat room that postdates the connect-time
// snapshot, after the manager re-verifies membership.
func (c *Client) handleSubscribeChat(frame clientFrame) {
	chatID, err := primitive.ObjectIDFromHex(frame.Payload.ChatID)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if c.manager.Subscribe(ctx, c, chatID) {
		c.reply("chat_subscribed", map[string]any{
			"chatId": frame.Payload.ChatID,
			"userId": c.userID,
		})
	}
}

// handleTyping relays a typing indicator to the chat room. Purely
// ephemeral, never persisted.
func (c *Client) handleTyping(frame clientFrame) {
	chatID, err := primitive.ObjectIDFromHex(frame.Payload.ChatID)
	if err != nil {
		return
	}
	c.manager.ToRoom(chatID, frame.Type, map[string]any{
		"chatId":    frame.Payload.ChatID,
		"userId":    c.userID,
		"timestamp": time.Now().Unix(),
	})
}

func (c *Client) reply(event string, payload any) {
	data, ok := encodeEvent(event, payload)
	if !ok {
		return
	}
	c.manager.send(c, data)
}
