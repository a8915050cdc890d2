package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PostID    primitive.ObjectID `bson:"post" json:"postId"`
	UserID    primitive.ObjectID `bson:"user" json:"userId"`
	Content   string             `bson:"content" json:"content"`
	CreatedAt int64              `bson:"createdAt" json:"createdAt"`

	User *UserRef `bson:"-" json:"user,omitempty"` // Populated in response only
}
