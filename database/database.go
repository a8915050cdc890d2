package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var Client *mongo.Client
var DB *mongo.Database

var Users *mongo.Collection
var Chats *mongo.Collection
var Messages *mongo.Collection
var Posts *mongo.Collection
var Comments *mongo.Collection
var PushSubs *mongo.Collection

func Connect(uri, dbName string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var err error
	Client, err = mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return err
	}

	if err := Client.Ping(ctx, nil); err != nil {
		return err
	}

	DB = Client.Database(dbName)
	Users = DB.Collection("users")
	Chats = DB.Collection("chats")
	Messages = DB.Collection("messages")
	Posts = DB.Collection("posts")
	Comments = DB.Collection("comments")
	PushSubs = DB.Collection("subscriptions")

	log.Println("Connected to MongoDB successfully")
	return nil
}

func Disconnect() error {
	if Client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := Client.Disconnect(ctx); err != nil {
		return err
	}

	log.Println("Disconnected from MongoDB")
	return nil
}
