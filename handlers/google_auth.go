package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"ripple/database"
	"ripple/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

func googleOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

type googleUserInfo struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GetGoogleAuthURL hands the frontend the consent-screen URL.
func GetGoogleAuthURL(c *gin.Context) {
	if cfg.GoogleClientID == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Google sign-in is not configured"})
		return
	}
	url := googleOAuthConfig().AuthCodeURL("state", oauth2.AccessTypeOffline)
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// GoogleOAuthCallback exchanges the authorization code, upserts the
// user by email and issues the same session token as password login.
func GoogleOAuthCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing authorization code"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	oauthCfg := googleOAuthConfig()
	token, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Failed to exchange authorization code"})
		return
	}

	resp, err := oauthCfg.Client(ctx, token).Get(googleUserInfoURL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch Google profile"})
		return
	}
	defer resp.Body.Close()

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil || info.Email == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to decode Google profile"})
		return
	}

	var user models.User
	err = database.Users.FindOne(ctx, bson.M{"email": info.Email}).Decode(&user)
	switch err {
	case nil:
		database.Users.UpdateOne(ctx, bson.M{"_id": user.ID},
			bson.M{"$set": bson.M{"lastSeen": time.Now().Unix()}})
	case mongo.ErrNoDocuments:
		avatar := info.Picture
		if avatar == "" {
			avatar = fallbackAvatar
		}
		user = models.User{
			ID:           primitive.NewObjectID(),
			Email:        info.Email,
			AuthProvider: "google",
			Name:         info.Name,
			Avatar:       avatar,
			CreatedAt:    time.Now().Unix(),
			LastSeen:     time.Now().Unix(),
		}
		if _, err := database.Users.InsertOne(ctx, user); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create user"})
			return
		}
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}

	tokenString, err := issueToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate token"})
		return
	}
	setAuthCookie(c, tokenString)

	c.JSON(http.StatusOK, gin.H{
		"message": "Authentication successful",
		"token":   tokenString,
		"user":    user,
	})
}
