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

type MessageRepo struct {
	coll *mongo.Collection
}

func NewMessageRepo() *MessageRepo {
	return &MessageRepo{coll: Messages}
}

func (r *MessageRepo) Insert(ctx context.Context, msg *models.Message) error {
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	now := time.Now().Unix()
	if msg.CreatedAt == 0 {
		msg.CreatedAt = now
	}
	msg.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, msg)
	return err
}

func (r *MessageRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindInChat returns the message only if it belongs to the given chat.
func (r *MessageRepo) FindInChat(ctx context.Context, id, chatID primitive.ObjectID) (*models.Message, error) {
	return r.findOne(ctx, bson.M{"_id": id, "chatId": chatID})
}

func (r *MessageRepo) findOne(ctx context.Context, filter bson.M) (*models.Message, error) {
	var msg models.Message
	err := r.coll.FindOne(ctx, filter).Decode(&msg)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// FindByChat returns the chat's full log in commit order (createdAt
// ascending, id as tie-break).
func (r *MessageRepo) FindByChat(ctx context.Context, chatID primitive.ObjectID) ([]*models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"chatId": chatID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var msgs []*models.Message
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// LatestInChat returns the newest message of the chat, or (nil, nil)
// when the log is empty. Queried after deletes so the last-message
// pointer is recomputed from committed state.
func (r *MessageRepo) LatestInChat(ctx context.Context, chatID primitive.ObjectID) (*models.Message, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	var msg models.Message
	err := r.coll.FindOne(ctx, bson.M{"chatId": chatID}, opts).Decode(&msg)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *MessageRepo) Save(ctx context.Context, msg *models.Message) error {
	msg.UpdatedAt = time.Now().Unix()
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": msg.ID}, msg)
	return err
}

func (r *MessageRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *MessageRepo) DeleteByChat(ctx context.Context, chatID primitive.ObjectID) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"chatId": chatID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
