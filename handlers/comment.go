package handlers

import (
	"net/http"
	"time"

	"ripple/database"
	"ripple/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

func CreateComment(c *gin.Context) {
	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Comment content is required"})
		return
	}
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	postID, ok := parseObjectID(c, c.Param("postId"), "post ID")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	count, err := database.Posts.CountDocuments(ctx, bson.M{"_id": postID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Post not found"})
		return
	}

	comment := &models.Comment{
		ID:        primitive.NewObjectID(),
		PostID:    postID,
		UserID:    userID,
		Content:   req.Content,
		CreatedAt: time.Now().Unix(),
	}
	if _, err := database.Comments.InsertOne(ctx, comment); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create comment"})
		return
	}

	var user models.User
	if err := database.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err == nil {
		ref := user.Ref()
		comment.User = &ref
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Comment created successfully",
		"comment": comment,
	})
}

func GetComments(c *gin.Context) {
	postID, ok := parseObjectID(c, c.Param("postId"), "post ID")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := database.Comments.Find(ctx, bson.M{"post": postID}, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch comments"})
		return
	}
	defer cursor.Close(ctx)

	var comments []*models.Comment
	if err := cursor.All(ctx, &comments); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to decode comments"})
		return
	}

	ids := make([]primitive.ObjectID, len(comments))
	for i, cm := range comments {
		ids[i] = cm.UserID
	}
	refs, err := userRefsByID(ctx, ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch comment authors"})
		return
	}
	for _, cm := range comments {
		if ref, okRef := refs[cm.UserID]; okRef {
			r := ref
			cm.User = &r
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Comments retrieved successfully",
		"comments": comments,
	})
}

func DeleteComment(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	commentID, ok := parseObjectID(c, c.Param("commentId"), "comment ID")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	var comment models.Comment
	err := database.Comments.FindOne(ctx, bson.M{"_id": commentID}).Decode(&comment)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "Comment not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}
	if comment.UserID != userID {
		c.JSON(http.StatusBadRequest, gin.H{"message": "You are not authorized to delete this comment"})
		return
	}

	if _, err := database.Comments.DeleteOne(ctx, bson.M{"_id": commentID}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete comment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}
