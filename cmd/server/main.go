package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/skillswap/backend/internal/auth"
	"github.com/skillswap/backend/internal/chat"
	"github.com/skillswap/backend/internal/config"
	"github.com/skillswap/backend/internal/events"
	"github.com/skillswap/backend/internal/handlers"
	"github.com/skillswap/backend/internal/logging"
	"github.com/skillswap/backend/internal/middleware"
	"github.com/skillswap/backend/internal/models"
	"github.com/skillswap/backend/internal/search"
	"github.com/skillswap/backend/internal/token"
	httpserver "github.com/skillswap/backend/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.New(cfg.LogLevel)

	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	var producer *events.Producer
	if cfg.KafkaAddress != "" {
		producer = events.NewProducer(cfg.KafkaAddress)
	}

	var esClient *elasticsearch.Client
	if cfg.ESURL != "" {
		esClient, err = search.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
	}

	issuer := &token.Issuer{Secret: []byte(cfg.JWTSecret)}
	registry := &token.Registry{DB: db}
	authenticator := &auth.Authenticator{DB: db, Issuer: issuer, Registry: registry}

	e := echo.New()
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover(), echomw.RequestID(), echomw.CORS())
	e.Use(middleware.RequestLogger(logger))

	deps := httpserver.Deps{
		UserHandler: &handlers.UserHandler{
			DB:       db,
			Issuer:   issuer,
			Registry: registry,
			Producer: producer,
			ES:       esClient,
			ESIndex:  cfg.ESIndex,
		},
		ChatHandler: &handlers.ChatHandler{
			DB:       db,
			Hub:      chat.NewHub(),
			Producer: producer,
		},
		Auth: &middleware.Auth{Authenticator: authenticator},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()
	logger.Info("server started", "addr", cfg.Addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if err := producer.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	logger.Info("shutdown complete")
}

func initDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Skill{},
		&models.UserToken{},
		&models.Chatroom{},
		&models.Message{},
	); err != nil {
		return nil, err
	}
	return db, nil
}
