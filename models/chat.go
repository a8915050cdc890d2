package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Chat struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Participants  []primitive.ObjectID `bson:"participants" json:"-"`
	IsGroup       bool                 `bson:"isGroup" json:"isGroup"`
	GroupName     string               `bson:"groupName,omitempty" json:"groupName,omitempty"`
	GroupImage    string               `bson:"groupImage,omitempty" json:"groupImage,omitempty"`
	CreatedBy     primitive.ObjectID   `bson:"createdBy" json:"createdBy"`
	LastMessageID *primitive.ObjectID  `bson:"lastMessage,omitempty" json:"-"`
	CreatedAt     int64                `bson:"createdAt" json:"createdAt"`
	UpdatedAt     int64                `bson:"updatedAt" json:"updatedAt"`

	// Populated in responses only
	Members     []UserRef `bson:"-" json:"participants"`
	LastMessage *Message  `bson:"-" json:"lastMessage,omitempty"`
}

// HasParticipant reports whether the user belongs to the chat.
func (c *Chat) HasParticipant(userID primitive.ObjectID) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}
