package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Post struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID   `bson:"user" json:"userId"`
	Caption    string               `bson:"caption" json:"caption"`
	Images     []string             `bson:"images" json:"images"`
	Location   string               `bson:"location,omitempty" json:"location,omitempty"`
	Likes      []primitive.ObjectID `bson:"likes" json:"-"`
	LikesCount int                  `bson:"likesCount" json:"likesCount"`
	CreatedAt  int64                `bson:"createdAt" json:"createdAt"`

	User *UserRef `bson:"-" json:"user,omitempty"` // Populated in response only
}

func (p *Post) LikedBy(userID primitive.ObjectID) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}
