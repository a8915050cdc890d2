package handlers

import (
	"context"
	"net/http"
	"time"

	"ripple/database"
	"ripple/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type UpdateProfileRequest struct {
	Name   string `json:"name"`
	Bio    *string `json:"bio"`
	Avatar string `json:"avatar"` // raw image data, uploaded when present
}

func GetMyProfile(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	var user models.User
	err := database.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile fetched successfully",
		"user":    user,
	})
}

// GetUsers lists everyone except the requester, for starting chats.
func GetUsers(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	cursor, err := database.Users.Find(ctx, bson.M{"_id": bson.M{"$ne": userID}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch users"})
		return
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to decode users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Users retrieved successfully",
		"users":   users,
	})
}

// GetUserProfile returns a user with post and chat counts.
func GetUserProfile(c *gin.Context) {
	requesterID, ok := requestUserID(c)
	if !ok {
		return
	}
	targetID, ok := parseObjectID(c, c.Param("id"), "user ID")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	var user models.User
	err := database.Users.FindOne(ctx, bson.M{"_id": targetID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}

	postsCount, _ := database.Posts.CountDocuments(ctx, bson.M{"user": targetID})
	chatsCount, _ := database.Chats.CountDocuments(ctx, bson.M{"participants": targetID})

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile fetched successfully",
		"user":    user,
		"stats": gin.H{
			"posts": postsCount,
			"chats": chatsCount,
		},
		"isOwnProfile": requesterID == targetID,
	})
}

func UpdateMyProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	set := bson.M{}
	if req.Name != "" {
		set["name"] = req.Name
	}
	if req.Bio != nil {
		set["bio"] = *req.Bio
	}
	if req.Avatar != "" {
		avatarURL, err := uploads.Upload(ctx, req.Avatar, "avatars")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to upload avatar. Please try again."})
			return
		}
		set["avatar"] = avatarURL
	}
	if len(set) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "No changes to update"})
		return
	}

	if _, err := database.Users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": set}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update profile"})
		return
	}

	var user models.User
	if err := database.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch updated profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    user,
	})
}
