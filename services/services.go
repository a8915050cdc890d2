// Package services holds the chat and message domain logic. Services
// talk to storage through narrow store interfaces (satisfied by the
// database package) and hand every state change to a Broadcaster for
// live fan-out, so the logic is testable against in-memory fakes.
package services

import (
	"context"

	"ripple/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Live event names pushed over the websocket boundary.
const (
	EventNewChat            = "new-chat"
	EventNewMessage         = "new-message"
	EventLastMessageUpdated = "last-message-updated"
	EventMessageEdited      = "message-edited"
	EventMessageDeleted     = "message-deleted"
	EventMessagesCleared    = "messages-cleared"
	EventGroupUpdated       = "group-updated"
	EventChatDeleted        = "chat-deleted"
)

// Broadcaster delivers a semantic event to an audience of currently
// connected clients. Delivery is best effort: offline targets are
// dropped, and neither method returns an error.
type Broadcaster interface {
	// ToUsers pushes the event to every live connection of each user
	// (personal channels, multi-device fan-out).
	ToUsers(userIDs []primitive.ObjectID, event string, payload any)
	// ToRoom pushes the event to every connection enrolled in the
	// chat's room.
	ToRoom(chatID primitive.ObjectID, event string, payload any)
}

type ChatStore interface {
	Insert(ctx context.Context, chat *models.Chat) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error)
	FindForParticipant(ctx context.Context, chatID, userID primitive.ObjectID) (*models.Chat, error)
	FindGroupForParticipant(ctx context.Context, chatID, userID primitive.ObjectID) (*models.Chat, error)
	FindDirect(ctx context.Context, a, b primitive.ObjectID) (*models.Chat, error)
	FindForUser(ctx context.Context, userID primitive.ObjectID, limit, offset int64) ([]*models.Chat, error)
	CountForUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
	Save(ctx context.Context, chat *models.Chat) error
	SetLastMessage(ctx context.Context, chatID primitive.ObjectID, messageID *primitive.ObjectID) error
	Delete(ctx context.Context, chatID primitive.ObjectID) error
}

type MessageStore interface {
	Insert(ctx context.Context, msg *models.Message) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error)
	FindInChat(ctx context.Context, id, chatID primitive.ObjectID) (*models.Message, error)
	FindByChat(ctx context.Context, chatID primitive.ObjectID) ([]*models.Message, error)
	LatestInChat(ctx context.Context, chatID primitive.ObjectID) (*models.Message, error)
	Save(ctx context.Context, msg *models.Message) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByChat(ctx context.Context, chatID primitive.ObjectID) (int64, error)
}

type UserStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.User, error)
}

// Uploader turns raw image data into a durable URL. Failures abort
// the enclosing mutation before any persistence write.
type Uploader interface {
	Upload(ctx context.Context, data, folder string) (string, error)
}
