package http

import (
	"context"
	"net/http"

	commonHTTP "github.com/ThreeDotsLabs/go-event-driven/common/http"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ticketing/entity"
	"ticketing/issuance"
)

var ErrServerClosed = http.ErrServerClosed

type TicketIssuer interface {
	ClaimFree(ctx context.Context, claim issuance.FreeClaim) (issuance.IssueResult, error)
	ReconcileSession(ctx context.Context, session issuance.PaymentSession) (issuance.IssueResult, error)
}

type SessionRetriever interface {
	GetCheckoutSession(ctx context.Context, sessionID string) (issuance.PaymentSession, error)
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (entity.Purchaser, error)
}

type TicketLister interface {
	ListByUser(ctx context.Context, userID string) ([]entity.Ticket, error)
}

type RouterDeps struct {
	Issuer        TicketIssuer
	Sessions      SessionRetriever
	Tickets       TicketLister
	Verifier      TokenVerifier
	WebhookSecret string
	HealthChecks  []func(ctx context.Context) error
}

func NewRouter(deps RouterDeps) *echo.Echo {
	server := commonHTTP.NewEcho()

	server.GET("/health", func(c echo.Context) error {
		for _, check := range deps.HealthChecks {
			if err := check(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})

	server.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	h := handler{
		issuer:        deps.Issuer,
		sessions:      deps.Sessions,
		tickets:       deps.Tickets,
		webhookSecret: deps.WebhookSecret,
	}

	authed := server.Group("/api", bearerAuth(deps.Verifier))
	authed.POST("/tickets/claim", h.ClaimFreeTicket)
	authed.GET("/tickets", h.ListTickets)

	server.POST("/api/payments/webhook", h.PaymentWebhook)
	server.POST("/api/payments/verify-session", h.VerifySession)

	return server
}
