package routes

import (
	"net/http"
	"strings"
	"time"

	"ripple/config"
	"ripple/handlers"
	"ripple/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter builds the REST surface. The websocket endpoint is
// mounted separately in main so the router stays transport-agnostic.
func SetupRouter(cfg *config.Config) *gin.Engine {
	router := gin.Default()

	healthy := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Ripple API is running",
			"time":    time.Now().Unix(),
			"ws":      "WebSocket available at /ws",
		})
	}
	router.GET("/health", healthy)
	router.GET("/api/health", healthy)

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendOrigin, "http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Credential endpoints get a per-IP rate limit on top of bcrypt
	// cost; everything else relies on the JWT gate.
	auth := router.Group("/api/auth")
	auth.POST("/signup", middleware.RateLimit(10, time.Minute), handlers.Signup)
	auth.POST("/login", middleware.RateLimit(10, time.Minute), handlers.Login)
	auth.POST("/logout", handlers.Logout)
	auth.GET("/google/url", handlers.GetGoogleAuthURL)
	auth.GET("/google/callback", handlers.GoogleOAuthCallback)

	router.GET("/api/vapid-public-key", handlers.GetVapidPublicKey)

	protected := router.Group("/api")
	protected.Use(middleware.JWTAuth(cfg.JWTSecret))

	chat := protected.Group("/chat")
	chat.POST("/create", handlers.CreateChat)
	chat.GET("/all", handlers.GetUserChats)
	chat.GET("/:id", handlers.GetSingleChat)
	chat.PUT("/group/name", handlers.UpdateGroupName)
	chat.DELETE("/group/name", handlers.DeleteGroupName)
	chat.PUT("/group/image", handlers.UpdateGroupImage)
	chat.DELETE("/group/image", handlers.DeleteGroupImage)
	chat.DELETE("/delete", handlers.DeleteChat)
	chat.POST("/message/send", handlers.SendMessage)
	chat.PUT("/message/edit", handlers.EditMessage)
	chat.DELETE("/message/:id", handlers.DeleteMessage)
	chat.DELETE("/messages/clear", handlers.ClearChatMessages)

	user := protected.Group("/user")
	user.GET("/me", handlers.GetMyProfile)
	user.PUT("/me", handlers.UpdateMyProfile)
	user.GET("/all", handlers.GetUsers)
	user.GET("/:id", handlers.GetUserProfile)

	post := protected.Group("/post")
	post.POST("", handlers.CreatePost)
	post.GET("/feed", handlers.GetFeed)
	post.GET("/user/:userId", handlers.GetUserPosts)
	post.GET("/:postId", handlers.GetPostByID)
	post.DELETE("/:postId", handlers.DeletePost)
	post.POST("/:postId/like", handlers.LikePost)
	post.POST("/:postId/unlike", handlers.UnlikePost)
	post.POST("/:postId/comment", handlers.CreateComment)
	post.GET("/:postId/comments", handlers.GetComments)
	post.DELETE("/comment/:commentId", handlers.DeleteComment)

	protected.POST("/subscribe", handlers.SubscribePush)

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Endpoint not found",
				"path":    c.Request.URL.Path,
				"message": "Check the API documentation for available endpoints",
			})
			return
		}
		c.Next()
	})

	return router
}
