package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"ripple/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CreateChatRequest struct {
	ParticipantID string   `json:"participantId"`
	IsGroup       bool     `json:"isGroup"`
	Participants  []string `json:"participants"`
	GroupName     string   `json:"groupName"`
}

type UpdateGroupNameRequest struct {
	ChatID    string `json:"chatId" binding:"required"`
	GroupName string `json:"groupName" binding:"required"`
}

type UpdateGroupImageRequest struct {
	ChatID string `json:"chatId" binding:"required"`
	Image  string `json:"image" binding:"required"`
}

type ChatIDRequest struct {
	ChatID string `json:"chatId" binding:"required"`
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

func parseObjectID(c *gin.Context, value, what string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(value)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid " + what})
		return primitive.NilObjectID, false
	}
	return id, true
}

func CreateChat(c *gin.Context) {
	var req CreateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	in, ok := buildCreateChatInput(c, req)
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	chat, err := chatSvc.Create(ctx, userID, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Chat created successfully",
		"chat":    chat,
	})
}

func GetUserChats(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	offset, _ := strconv.ParseInt(c.DefaultQuery("offset", "0"), 10, 64)

	ctx, cancel := requestContext()
	defer cancel()

	page, err := chatSvc.List(ctx, userID, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "User chats retrieved successfully",
		"chats":      page.Chats,
		"totalCount": page.TotalCount,
		"hasMore":    page.HasMore,
	})
}

func GetSingleChat(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	chatID, ok := parseObjectID(c, c.Param("id"), "chat ID")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	chat, messages, err := chatSvc.Get(ctx, chatID, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Chat retrieved successfully",
		"chat":     chat,
		"messages": messages,
	})
}

func UpdateGroupName(c *gin.Context) {
	var req UpdateGroupNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	updateGroupName(c, req.ChatID, req.GroupName, "Group name updated successfully")
}

// UpdateGroupImage uploads the raw image first; the group document is
// only touched once a durable URL exists.
func UpdateGroupImage(c *gin.Context) {
	var req UpdateGroupImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	chatID, ok := parseObjectID(c, req.ChatID, "chat ID")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	imageURL, err := uploads.Upload(ctx, req.Image, "chat-groups")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to upload image. Please try again."})
		return
	}

	chat, err := chatSvc.UpdateGroupImage(ctx, chatID, userID, imageURL)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Group image updated successfully",
		"chat":    chat,
	})
}

func DeleteGroupName(c *gin.Context) {
	var req ChatIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	updateGroupName(c, req.ChatID, "", "Group name deleted successfully")
}

func DeleteGroupImage(c *gin.Context) {
	var req ChatIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	chatID, ok := parseObjectID(c, req.ChatID, "chat ID")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	chat, err := chatSvc.UpdateGroupImage(ctx, chatID, userID, "")
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Group image deleted successfully",
		"chat":    chat,
	})
}

func DeleteChat(c *gin.Context) {
	var req ChatIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	chatID, ok := parseObjectID(c, req.ChatID, "chat ID")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	if err := chatSvc.Delete(ctx, chatID, userID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Chat deleted successfully",
		"chatId":  chatID.Hex(),
	})
}

func buildCreateChatInput(c *gin.Context, req CreateChatRequest) (in services.CreateChatInput, ok bool) {
	in.IsGroup = req.IsGroup
	in.GroupName = req.GroupName

	if req.IsGroup {
		for _, p := range req.Participants {
			id, idOK := parseObjectID(c, p, "participant ID")
			if !idOK {
				return in, false
			}
			in.Participants = append(in.Participants, id)
		}
		return in, true
	}

	if req.ParticipantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "participantId is required for direct chats"})
		return in, false
	}
	id, idOK := parseObjectID(c, req.ParticipantID, "participant ID")
	if !idOK {
		return in, false
	}
	in.ParticipantID = id
	return in, true
}

func updateGroupName(c *gin.Context, chatIDStr, name, okMessage string) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	chatID, ok := parseObjectID(c, chatIDStr, "chat ID")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	chat, err := chatSvc.UpdateGroupName(ctx, chatID, userID, name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": okMessage,
		"chat":    chat,
	})
}
