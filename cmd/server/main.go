package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/gch/gch-api-go/internal/config"
	"github.com/gch/gch-api-go/internal/database"
	"github.com/gch/gch-api-go/internal/handler"
	"github.com/gch/gch-api-go/internal/queue"
	"github.com/gch/gch-api-go/internal/repository"
	"github.com/gch/gch-api-go/internal/router"
	queue_publisher "github.com/gch/gch-api-go/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	forms := repository.NewFormRepo(db)

	authHandler := handler.NewAuthHandler(cfg, users, tokens)
	formHandler := handler.NewFormHandler(forms, queue_publisher.PublishFormSubmitted)

	// Redis is optional infrastructure: a nil client disables rate limiting
	// and response caching but the API itself keeps working.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable: rate limiting and caching disabled")
	}

	// Notification trail for submitted forms; reconnects on its own.
	go func() {
		if err := queue.StartSubmissionConsumer(); err != nil {
			log.Printf("submission consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.Register(e, cfg, authHandler, formHandler, users, rdb)

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
}
