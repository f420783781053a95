package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"ticketing/config"
	"ticketing/db"
	"ticketing/http"
	"ticketing/issuance"
	"ticketing/message"
	"ticketing/notification"
)

type Service struct {
	msgRouter  *message.Router
	forwarder  *message.Forwarder
	httpRouter *echo.Echo
	addr       string
}

type Deps struct {
	Logger      watermill.LoggerAdapter
	RedisClient *redis.Client
	DB          *sqlx.DB
	Config      config.Config
	Mailer      message.Mailer
	Sessions    http.SessionRetriever
	Verifier    http.TokenVerifier
}

func New(deps Deps) (*Service, error) {
	eventRepo := db.NewEventRepo(deps.DB)
	ticketTypeRepo := db.NewTicketTypeRepo(deps.DB)
	ticketRepo := db.NewTicketRepo(deps.DB, deps.Logger)
	registrationRepo := db.NewRegistrationRepo(deps.DB)

	issuer := issuance.NewService(eventRepo, ticketTypeRepo, ticketRepo, deps.Config.DefaultCurrency)
	composer := notification.NewComposer(deps.Config.VerificationBaseURL)

	forwarder, err := message.NewForwarder(deps.DB, deps.RedisClient, deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("creating forwarder: %w", err)
	}

	msgRouter, err := message.NewRouter(message.RouterDeps{
		Logger:               deps.Logger,
		RedisClient:          deps.RedisClient,
		ConfirmationRenderer: composer,
		Mailer:               deps.Mailer,
		RegistrationRecorder: registrationRepo,
	})
	if err != nil {
		return nil, fmt.Errorf("creating message router: %w", err)
	}

	httpRouter := http.NewRouter(http.RouterDeps{
		Issuer:        issuer,
		Sessions:      deps.Sessions,
		Tickets:       ticketRepo,
		Verifier:      deps.Verifier,
		WebhookSecret: deps.Config.PaymentWebhookSecret,
		HealthChecks: []func(ctx context.Context) error{
			func(ctx context.Context) error { return deps.DB.PingContext(ctx) },
			func(ctx context.Context) error { return deps.RedisClient.Ping(ctx).Err() },
		},
	})

	return &Service{
		msgRouter:  msgRouter,
		forwarder:  forwarder,
		httpRouter: httpRouter,
		addr:       ":" + deps.Config.Port,
	}, nil
}

func (s Service) Run(ctx context.Context) error {
	g, runCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.forwarder.Run(runCtx); err != nil {
			return fmt.Errorf("running outbox forwarder: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		if err := s.msgRouter.Run(runCtx); err != nil {
			return fmt.Errorf("running messaging router: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		// Wait for message router
		<-s.msgRouter.Running()

		logrus.Info("Starting HTTP server...")
		err := s.httpRouter.Start(s.addr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("starting http server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-runCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		logrus.Info("Shutting down HTTP server...")
		if err := s.httpRouter.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("waiting for shutdown: %w", err)
	}
	logrus.Info("Shutdown complete.")

	return nil
}
