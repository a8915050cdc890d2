package database

import (
	"context"
	"time"

	"ripple/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ChatRepo is the Mongo-backed chat collection. All lookups that take
// a user id are member-scoped: a chat the user does not belong to is
// indistinguishable from a missing one.
type ChatRepo struct {
	coll *mongo.Collection
}

func NewChatRepo() *ChatRepo {
	return &ChatRepo{coll: Chats}
}

func (r *ChatRepo) Insert(ctx context.Context, chat *models.Chat) error {
	if chat.ID.IsZero() {
		chat.ID = primitive.NewObjectID()
	}
	now := time.Now().Unix()
	if chat.CreatedAt == 0 {
		chat.CreatedAt = now
	}
	chat.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, chat)
	return err
}

func (r *ChatRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindForParticipant returns the chat only if userID is among its
// participants; a miss returns (nil, nil).
func (r *ChatRepo) FindForParticipant(ctx context.Context, chatID, userID primitive.ObjectID) (*models.Chat, error) {
	return r.findOne(ctx, bson.M{"_id": chatID, "participants": userID})
}

// FindGroupForParticipant additionally requires the chat to be a group.
func (r *ChatRepo) FindGroupForParticipant(ctx context.Context, chatID, userID primitive.ObjectID) (*models.Chat, error) {
	return r.findOne(ctx, bson.M{"_id": chatID, "participants": userID, "isGroup": true})
}

// FindDirect returns the non-group chat whose participant set is
// exactly {a, b}, in either order.
func (r *ChatRepo) FindDirect(ctx context.Context, a, b primitive.ObjectID) (*models.Chat, error) {
	return r.findOne(ctx, bson.M{
		"isGroup": false,
		"participants": bson.M{
			"$all":  bson.A{a, b},
			"$size": 2,
		},
	})
}

func (r *ChatRepo) findOne(ctx context.Context, filter bson.M) (*models.Chat, error) {
	var chat models.Chat
	err := r.coll.FindOne(ctx, filter).Decode(&chat)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// FindForUser lists the user's chats, most recently touched first.
func (r *ChatRepo) FindForUser(ctx context.Context, userID primitive.ObjectID, limit, offset int64) ([]*models.Chat, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
		SetSkip(offset).
		SetLimit(limit)

	cursor, err := r.coll.Find(ctx, bson.M{"participants": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var chats []*models.Chat
	if err := cursor.All(ctx, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

func (r *ChatRepo) CountForUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"participants": userID})
}

// IDsForUser returns the ids of every chat the user participates in.
// The websocket registry uses this to enroll a fresh connection into
// its room snapshot.
func (r *ChatRepo) IDsForUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.coll.Find(ctx, bson.M{"participants": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

// Save replaces the stored document with the in-memory one and bumps
// updatedAt. Single-document atomic write.
func (r *ChatRepo) Save(ctx context.Context, chat *models.Chat) error {
	chat.UpdatedAt = time.Now().Unix()
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": chat.ID}, chat)
	return err
}

// SetLastMessage updates the denormalized last-message pointer. A nil
// id clears it.
func (r *ChatRepo) SetLastMessage(ctx context.Context, chatID primitive.ObjectID, messageID *primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"updatedAt": time.Now().Unix()}}
	if messageID != nil {
		update["$set"].(bson.M)["lastMessage"] = *messageID
	} else {
		update["$unset"] = bson.M{"lastMessage": ""}
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": chatID}, update)
	return err
}

func (r *ChatRepo) Delete(ctx context.Context, chatID primitive.ObjectID) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": chatID})
	return err
}
