package handlers

import (
	"net/http"

	"ripple/apperror"
	"ripple/config"
	"ripple/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const fallbackAvatar = "https://upload.wikimedia.org/wikipedia/commons/8/89/Portrait_Placeholder.png"

var (
	cfg     *config.Config
	chatSvc *services.ChatService
	msgSvc  *services.MessageService
	uploads services.Uploader
)

// Init wires the handler package to its collaborators. Called once at
// startup before the router is built.
func Init(c *config.Config, chats *services.ChatService, messages *services.MessageService, uploader services.Uploader) {
	cfg = c
	chatSvc = chats
	msgSvc = messages
	uploads = uploader
}

// requestUserID pulls the authenticated user id the JWT middleware put
// on the context. A malformed id means the token was minted wrong, so
// reply 401 and report failure.
func requestUserID(c *gin.Context) (primitive.ObjectID, bool) {
	userID, err := primitive.ObjectIDFromHex(c.GetString("userId"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return primitive.NilObjectID, false
	}
	return userID, true
}

// writeError converts a service error into the transport response,
// matching the apperror kind at the boundary.
func writeError(c *gin.Context, err error) {
	status := apperror.Status(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Something went wrong. Please try again."
	}
	c.JSON(status, gin.H{"message": message})
}
