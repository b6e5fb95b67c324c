package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"chatroom/internal/config"
	httpHandler "chatroom/internal/delivery/http"
	"chatroom/internal/delivery/ws"
	"chatroom/internal/middleware"
	"chatroom/internal/storage"
	"chatroom/internal/usecase"
)

func main() {
	// Load .env file (ignore error if not exists, e.g. in production)
	_ = godotenv.Load()

	// Reload config after loading .env
	config.AppConfig = config.LoadFromEnv()
	cfg := config.AppConfig

	// Configuring Logging
	if cfg.LogLevel == "silent" || cfg.LogLevel == "off" {
		log.SetOutput(io.Discard)
	}

	// Open the account/message store. The hub itself runs fine without
	// one; accounts are the part that actually needs it.
	store, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}

	// Initialize dependencies
	hub := ws.NewHub(store)
	accounts := usecase.NewAccountService(store)
	tokens := usecase.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	handler := httpHandler.NewHandler(hub, accounts, tokens, store)

	// Setup routes
	mux := http.NewServeMux()

	// Serve the SPA
	mux.Handle("/", http.FileServer(http.Dir("./public")))

	// WebSocket route with rate limiting
	mux.HandleFunc("GET /ws", middleware.RateLimitFunc(middleware.WebSocketLimiter, handler.HandleWebSocket))

	// Auth endpoints get the strict limiter
	mux.HandleFunc("POST /api/register", middleware.RateLimitFunc(middleware.StrictLimiter, handler.HandleRegister))
	mux.HandleFunc("POST /api/login", middleware.RateLimitFunc(middleware.StrictLimiter, handler.HandleLogin))

	// API routes with rate limiting
	mux.HandleFunc("GET /api/user", middleware.RateLimitFunc(middleware.APILimiter, middleware.RequireAuth(tokens, handler.HandleCurrentUser)))
	mux.HandleFunc("POST /api/user/update", middleware.RateLimitFunc(middleware.APILimiter, middleware.RequireAuth(tokens, handler.HandleUpdateUser)))
	mux.HandleFunc("GET /api/rooms", middleware.RateLimitFunc(middleware.APILimiter, handler.HandleListRooms))
	mux.HandleFunc("POST /api/rooms", middleware.RateLimitFunc(middleware.APILimiter, middleware.RequireAuth(tokens, handler.HandleCreateRoom)))
	mux.HandleFunc("GET /api/rooms/{id}", middleware.RateLimitFunc(middleware.APILimiter, handler.HandleRoom))
	mux.HandleFunc("GET /api/rooms/{id}/messages", middleware.RateLimitFunc(middleware.APILimiter, handler.HandleRoomHistory))
	mux.HandleFunc("POST /upload", middleware.RateLimitFunc(middleware.APILimiter, handler.HandleUpload))

	// Apply security headers middleware to all requests
	securedHandler := middleware.SecurityHeaders(mux)

	// Create server with timeouts
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      securedHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("chatroom running at http://localhost:%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited gracefully")
}
