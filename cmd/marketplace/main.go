package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/marketplace/internal/auth"
	"github.com/vasiliy-maslov/marketplace/internal/cart"
	"github.com/vasiliy-maslov/marketplace/internal/config"
	"github.com/vasiliy-maslov/marketplace/internal/db"
	handler "github.com/vasiliy-maslov/marketplace/internal/handler/http"
	"github.com/vasiliy-maslov/marketplace/internal/notify"
	"github.com/vasiliy-maslov/marketplace/internal/order"
	"github.com/vasiliy-maslov/marketplace/internal/product"
	"github.com/vasiliy-maslov/marketplace/internal/transport"
	"github.com/vasiliy-maslov/marketplace/internal/user"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "marketplace").Logger()

	log.Info().Msg("Marketplace starting...")

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx := context.Background()

	if err := db.ApplyMigrations(cfg.Postgres, "migrations"); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	pool, err := db.ConnectPostgres(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to postgres")
	}
	defer pool.Close()

	mongoClient, mongoDB, err := db.ConnectMongo(ctx, cfg.Mongo)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to mongo")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("Failed to disconnect mongo")
		}
	}()

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL)
	guard := auth.NewGuard(tokens)

	var mailer notify.Mailer = notify.NopMailer{}
	if cfg.Mail.SendGridKey != "" {
		mailer = notify.NewSendGridMailer(cfg.Mail.SendGridKey, cfg.Mail.From)
	} else {
		log.Warn().Msg("SENDGRID_API_KEY not set, mail notifications disabled")
	}

	userRepo := user.NewPostgresRepository(pool)
	productRepo := product.NewMongoRepository(mongoDB)
	cartRepo := cart.NewMongoRepository(mongoDB)
	orderRepo := order.NewPostgresRepository(pool)

	if err := cartRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure cart indexes")
	}

	notifier := notify.NewService(userRepo, mailer)
	userSvc := user.NewService(userRepo, tokens, notifier)
	productSvc := product.NewService(productRepo)
	orderSvc := order.NewService(orderRepo)
	cartSvc := cart.NewService(cartRepo, productSvc, orderSvc, notifier)

	router := transport.NewRouter(guard, transport.Handlers{
		Auth:    handler.NewAuthHandler(userSvc),
		Profile: handler.NewProfileHandler(userSvc),
		Product: handler.NewProductHandler(productSvc, cartSvc, notifier),
		Cart:    handler.NewCartHandler(cartSvc, guard),
		Order:   handler.NewOrderHandler(orderSvc),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Shutdown failed")
	}
	log.Info().Msg("Server stopped")
}
