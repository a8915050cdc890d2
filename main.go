package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"ripple/config"
	"ripple/database"
	"ripple/handlers"
	"ripple/media"
	"ripple/routes"
	"ripple/services"
	"ripple/websocket"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("🚀 Starting Ripple backend...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("❌ Invalid configuration: ", err)
	}

	// ===== CONNECT TO MONGODB WITH RETRY =====
	log.Println("🔌 Connecting to MongoDB...")

	var dbErr error
	for i := 1; i <= 3; i++ {
		if err := database.Connect(cfg.MongoURI, cfg.MongoDB); err != nil {
			dbErr = err
			log.Printf("❌ MongoDB connection attempt %d failed: %v", i, err)
			time.Sleep(2 * time.Second)
			continue
		}
		dbErr = nil
		break
	}
	if dbErr != nil {
		log.Fatal("❌ Failed to connect to MongoDB: ", dbErr)
	}
	log.Println("✅ MongoDB connected")

	defer func() {
		if err := database.Disconnect(); err != nil {
			log.Println("❌ MongoDB disconnect:", err)
		}
	}()

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// ===== WIRING =====
	chatRepo := database.NewChatRepo()
	messageRepo := database.NewMessageRepo()
	userRepo := database.NewUserRepo()

	wsManager := websocket.NewManager(chatRepo)

	chatSvc := services.NewChatService(chatRepo, messageRepo, userRepo, wsManager)

	var uploads services.Uploader
	if cld, err := media.NewCloudinaryUploader(cfg.CloudinaryURL); err != nil {
		log.Println("⚠️ Cloudinary not configured, image uploads disabled:", err)
		uploads = media.DisabledUploader{}
	} else {
		uploads = cld
		log.Println("✅ Cloudinary ready")
	}

	msgSvc := services.NewMessageService(chatRepo, messageRepo, userRepo, uploads, wsManager)

	handlers.Init(cfg, chatSvc, msgSvc, uploads)

	// ===== ROUTER =====
	router := routes.SetupRouter(cfg)

	router.GET("/ws", func(c *gin.Context) {
		websocket.Handler(wsManager, cfg.JWTSecret)(c.Writer, c.Request)
	})
	log.Println("✅ WebSocket endpoint: /ws")

	// ===== SERVER =====
	addr := ":" + strconv.Itoa(cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🌐 Server running on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("❌ Server error: ", err)
		}
	}()

	// ===== GRACEFUL SHUTDOWN =====
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("❌ Forced shutdown:", err)
	}

	log.Println("👋 Server stopped gracefully")
}
