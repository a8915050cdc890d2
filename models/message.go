package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Message struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ChatID    primitive.ObjectID  `bson:"chatId" json:"chatId"`
	SenderID  primitive.ObjectID  `bson:"sender" json:"senderId"`
	Content   string              `bson:"content" json:"content"`
	Image     string              `bson:"image,omitempty" json:"image,omitempty"`
	ReplyToID *primitive.ObjectID `bson:"replyTo,omitempty" json:"replyToId,omitempty"`
	CreatedAt int64               `bson:"createdAt" json:"createdAt"`
	UpdatedAt int64               `bson:"updatedAt" json:"updatedAt"`

	// Populated in responses only
	Sender  *UserRef      `bson:"-" json:"sender,omitempty"`
	ReplyTo *ReplyPreview `bson:"-" json:"replyTo,omitempty"`
}

// ReplyPreview is the short form of a replied-to message embedded in
// responses and live events.
type ReplyPreview struct {
	ID      primitive.ObjectID `json:"id"`
	Content string             `json:"content"`
	Image   string             `json:"image,omitempty"`
	Sender  *UserRef           `json:"sender,omitempty"`
}
