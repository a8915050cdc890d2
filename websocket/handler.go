package websocket

import (
	"context"
	"log"
	"net/http"
	"time"

	"ripple/middleware"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades an authenticated HTTP request to a websocket
// connection and enrolls it into the registry: the user's personal
// channel plus one room per chat the user currently belongs to. The
// credential is the same JWT used on the REST boundary, taken from the
// ?token= query parameter or the access_token cookie.
func Handler(m *Manager, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			if cookie, err := r.Cookie("access_token"); err == nil {
				token = cookie.Value
			}
		}
		if token == "" {
			http.Error(w, "Token required", http.StatusUnauthorized)
			return
		}

		userIDStr, err := middleware.ParseToken(token, jwtSecret)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		userID, err := primitive.ObjectIDFromHex(userIDStr)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		// Room snapshot is taken before the upgrade; chats created
		// later need an explicit subscribe_chat frame.
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		chatIDs, err := m.directory.IDsForUser(ctx, userID)
		cancel()
		if err != nil {
			log.Printf("websocket: room lookup failed for user %s: %v", userIDStr, err)
			http.Error(w, "Failed to resolve chats", http.StatusInternalServerError)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("websocket: upgrade failed: %v", err)
			return
		}

		client := newClient(m, conn, userIDStr)
		m.Register(client)
		m.JoinRooms(client, chatIDs)

		client.reply("connected", map[string]any{
			"userId": userIDStr,
			"time":   time.Now().Unix(),
		})

		go client.writePump()
		go client.readPump()
	}
}
