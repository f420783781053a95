package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"ticketing/clients"
	"ticketing/config"
	"ticketing/db"
	"ticketing/service"
)

func main() {
	log.Init(logrus.InfoLevel)
	logger := watermill.NewStdLogger(false, false)

	if err := run(logger); err != nil {
		logger.Error("failed to run", err, nil)
	}
}

func run(logger watermill.LoggerAdapter) error {
	cfg := config.Load()

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("failed to close redis connection", err, nil)
		}
	}()

	dbConn, err := sqlx.Open("postgres", cfg.PostgresURL)
	if err != nil {
		return fmt.Errorf("connecting to db: %w", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close db connection", err, nil)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := db.InitialiseDB(ctx, dbConn); err != nil {
		return fmt.Errorf("initialising db schema: %w", err)
	}

	svc, err := service.New(service.Deps{
		Logger:      logger,
		RedisClient: rdb,
		DB:          dbConn,
		Config:      cfg,
		Mailer:      clients.NewMailerClient(cfg.MailerURL, cfg.MailerAPIKey, cfg.MailerFrom),
		Sessions:    clients.NewPaymentsClient(cfg.PaymentAPIURL, cfg.PaymentAPIKey),
		Verifier:    clients.NewIdentityClient(cfg.IdentityURL),
	})
	if err != nil {
		return fmt.Errorf("creating service: %w", err)
	}

	return svc.Run(ctx)
}
