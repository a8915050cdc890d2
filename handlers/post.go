package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"ripple/database"
	"ripple/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CreatePostRequest struct {
	Caption  string   `json:"caption"`
	Images   []string `json:"images" binding:"required,min=1"`
	Location string   `json:"location"`
}

// userRefsByID batch-fetches the short user form for populate steps in
// the post/comment glue.
func userRefsByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserRef, error) {
	seen := make(map[primitive.ObjectID]bool, len(ids))
	unique := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return map[primitive.ObjectID]models.UserRef{}, nil
	}

	cursor, err := database.Users.Find(ctx, bson.M{"_id": bson.M{"$in": unique}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	refs := make(map[primitive.ObjectID]models.UserRef, len(users))
	for i := range users {
		refs[users[i].ID] = users[i].Ref()
	}
	return refs, nil
}

func attachPostUsers(ctx context.Context, posts []*models.Post) error {
	ids := make([]primitive.ObjectID, len(posts))
	for i, p := range posts {
		ids[i] = p.UserID
	}
	refs, err := userRefsByID(ctx, ids)
	if err != nil {
		return err
	}
	for _, p := range posts {
		if ref, ok := refs[p.UserID]; ok {
			r := ref
			p.User = &r
		}
	}
	return nil
}

func CreatePost(c *gin.Context) {
	var req CreatePostRequest
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

	// Images arrive as raw data and are uploaded before the post exists.
	imageURLs := make([]string, 0, len(req.Images))
	for _, img := range req.Images {
		url, err := uploads.Upload(ctx, img, "posts")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to upload image. Please try again."})
			return
		}
		imageURLs = append(imageURLs, url)
	}

	post := &models.Post{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Caption:   req.Caption,
		Images:    imageURLs,
		Location:  req.Location,
		Likes:     []primitive.ObjectID{},
		CreatedAt: time.Now().Unix(),
	}
	if _, err := database.Posts.InsertOne(ctx, post); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create post"})
		return
	}

	attachPostUsers(ctx, []*models.Post{post})
	c.JSON(http.StatusCreated, gin.H{
		"message": "Post created successfully",
		"post":    post,
	})
}

func GetFeed(c *gin.Context) {
	if _, ok := requestUserID(c); !ok {
		return
	}
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "10"), 10, 64)
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	skip := (page - 1) * limit

	ctx, cancel := requestContext()
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	cursor, err := database.Posts.Find(ctx, bson.M{}, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch feed"})
		return
	}
	defer cursor.Close(ctx)

	var posts []*models.Post
	if err := cursor.All(ctx, &posts); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to decode feed"})
		return
	}
	if err := attachPostUsers(ctx, posts); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch post authors"})
		return
	}

	total, _ := database.Posts.CountDocuments(ctx, bson.M{})
	pages := (total + limit - 1) / limit

	c.JSON(http.StatusOK, gin.H{
		"message": "Feed retrieved successfully",
		"posts":   posts,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": pages,
		},
	})
}

func GetPostByID(c *gin.Context) {
	postID, ok := parseObjectID(c, c.Param("postId"), "post ID")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	var post models.Post
	err := database.Posts.FindOne(ctx, bson.M{"_id": postID}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "Post not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}

	attachPostUsers(ctx, []*models.Post{&post})
	c.JSON(http.StatusOK, gin.H{
		"message": "Post retrieved successfully",
		"post":    post,
	})
}

func GetUserPosts(c *gin.Context) {
	targetID, ok := parseObjectID(c, c.Param("userId"), "user ID")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := database.Posts.Find(ctx, bson.M{"user": targetID}, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch posts"})
		return
	}
	defer cursor.Close(ctx)

	var posts []*models.Post
	if err := cursor.All(ctx, &posts); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to decode posts"})
		return
	}
	attachPostUsers(ctx, posts)

	c.JSON(http.StatusOK, gin.H{
		"message": "Posts retrieved successfully",
		"posts":   posts,
	})
}

// DeletePost removes the post and every comment hanging off it. Only
// the author may delete.
func DeletePost(c *gin.Context) {
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

	var post models.Post
	err := database.Posts.FindOne(ctx, bson.M{"_id": postID}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "Post not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}
	if post.UserID != userID {
		c.JSON(http.StatusBadRequest, gin.H{"message": "You are not authorized to delete this post"})
		return
	}

	database.Comments.DeleteMany(ctx, bson.M{"post": postID})
	if _, err := database.Posts.DeleteOne(ctx, bson.M{"_id": postID}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

func LikePost(c *gin.Context) {
	toggleLike(c, true)
}

func UnlikePost(c *gin.Context) {
	toggleLike(c, false)
}

// toggleLike adds or removes the requester's like. Double-liking and
// unliking a post that was never liked are both rejected.
func toggleLike(c *gin.Context, like bool) {
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

	var post models.Post
	err := database.Posts.FindOne(ctx, bson.M{"_id": postID}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "Post not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}

	liked := post.LikedBy(userID)
	if like && liked {
		c.JSON(http.StatusBadRequest, gin.H{"message": "You already liked this post"})
		return
	}
	if !like && !liked {
		c.JSON(http.StatusBadRequest, gin.H{"message": "You have not liked this post"})
		return
	}

	var update bson.M
	if like {
		update = bson.M{"$addToSet": bson.M{"likes": userID}, "$inc": bson.M{"likesCount": 1}}
	} else {
		update = bson.M{"$pull": bson.M{"likes": userID}, "$inc": bson.M{"likesCount": -1}}
	}
	if _, err := database.Posts.UpdateOne(ctx, bson.M{"_id": postID}, update); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update post"})
		return
	}

	count := post.LikesCount
	if like {
		count++
	} else {
		count--
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "Post updated successfully",
		"postId":     postID.Hex(),
		"likesCount": count,
	})
}
