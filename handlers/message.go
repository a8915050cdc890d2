package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"ripple/database"
	"ripple/models"
	"ripple/services"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type SendMessageRequest struct {
	ChatID    string `json:"chatId" binding:"required"`
	Content   string `json:"content"`
	Image     string `json:"image"`
	ReplyToID string `json:"replyToId"`
}

type EditMessageRequest struct {
	MessageID string `json:"messageId" binding:"required"`
	Content   string `json:"content" binding:"required"`
}

func SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if req.Content == "" && req.Image == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Either content or image must be provided"})
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

	in := services.SendMessageInput{
		ChatID:  chatID,
		Content: req.Content,
		Image:   req.Image,
	}
	if req.ReplyToID != "" {
		replyID, idOK := parseObjectID(c, req.ReplyToID, "reply message ID")
		if !idOK {
			return
		}
		in.ReplyToID = &replyID
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	msg, chat, err := msgSvc.Send(ctx, userID, in)
	if err != nil {
		writeError(c, err)
		return
	}

	go notifyParticipantsPush(userID, chat, msg)

	c.JSON(http.StatusOK, gin.H{
		"message":     "Message sent successfully",
		"userMessage": msg,
		"chat":        chat,
	})
}

func EditMessage(c *gin.Context) {
	var req EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	messageID, ok := parseObjectID(c, req.MessageID, "message ID")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	msg, err := msgSvc.Edit(ctx, messageID, userID, req.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       "Message edited successfully",
		"editedMessage": msg,
	})
}

func DeleteMessage(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	messageID, ok := parseObjectID(c, c.Param("id"), "message ID")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	if err := msgSvc.Delete(ctx, messageID, userID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "Message deleted successfully",
		"messageId": messageID.Hex(),
	})
}

func ClearChatMessages(c *gin.Context) {
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

	if err := msgSvc.Clear(ctx, chatID, userID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Chat messages cleared successfully",
		"chatId":  chatID.Hex(),
	})
}

// notifyParticipantsPush sends a best-effort web push to every other
// participant. Push is fire-and-forget: failures are logged, never
// surfaced, and delivery to offline devices is not guaranteed.
func notifyParticipantsPush(senderID primitive.ObjectID, chat *models.Chat, msg *models.Message) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic in push notification: %v", r)
		}
	}()
	if cfg.VapidPrivateKey == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	title := "New message"
	if msg.Sender != nil && msg.Sender.Name != "" {
		title = msg.Sender.Name + " sent a message"
	}
	body := msg.Content
	if body == "" {
		body = "Sent an image"
	}
	payload, _ := json.Marshal(map[string]string{
		"title":  title,
		"body":   body,
		"chatId": chat.ID.Hex(),
	})

	for _, participantID := range chat.Participants {
		if participantID == senderID {
			continue
		}

		var sub PushSubscription
		err := database.PushSubs.FindOne(ctx, bson.M{"userId": participantID}).Decode(&sub)
		if err == mongo.ErrNoDocuments {
			continue
		}
		if err != nil {
			log.Printf("failed to find push subscription: %v", err)
			continue
		}

		resp, err := webpush.SendNotification(payload, &sub.Sub, &webpush.Options{
			Subscriber:      cfg.VapidSubscriber,
			VAPIDPublicKey:  cfg.VapidPublicKey,
			VAPIDPrivateKey: cfg.VapidPrivateKey,
			TTL:             30,
		})
		if err != nil {
			log.Printf("failed to send push: %v", err)
			continue
		}
		resp.Body.Close()
	}
}
