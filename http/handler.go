package http

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"ticketing/entity"
	"ticketing/issuance"
)

type handler struct {
	issuer        TicketIssuer
	sessions      SessionRetriever
	tickets       TicketLister
	webhookSecret string
}

type claimTicketRequest struct {
	EventID      string  `json:"event_id"`
	EventSlug    string  `json:"event_slug"`
	TicketTypeID *string `json:"ticket_type_id,omitempty"`
	Quantity     int     `json:"quantity"`
}

type issueResponse struct {
	TicketID       string `json:"ticket_id"`
	AlreadyExisted bool   `json:"already_existed"`
}

func (h handler) ClaimFreeTicket(c echo.Context) error {
	purchaser, ok := purchaserFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing purchaser identity")
	}

	var request claimTicketRequest
	if err := c.Bind(&request); err != nil {
		return &echo.HTTPError{
			Code:     http.StatusBadRequest,
			Message:  "failed to parse request",
			Internal: fmt.Errorf("binding request: %w", err),
		}
	}

	quantity := request.Quantity
	if quantity == 0 {
		quantity = 1
	}

	result, err := h.issuer.ClaimFree(c.Request().Context(), issuance.FreeClaim{
		EventID:      request.EventID,
		EventSlug:    request.EventSlug,
		TicketTypeID: request.TicketTypeID,
		Quantity:     quantity,
		Purchaser:    purchaser,
	})
	if err != nil {
		return issuanceHTTPError(err)
	}

	status := http.StatusCreated
	if result.AlreadyExisted {
		status = http.StatusOK
	}

	return c.JSON(status, issueResponse{
		TicketID:       result.Ticket.ID,
		AlreadyExisted: result.AlreadyExisted,
	})
}

type verifySessionRequest struct {
	SessionID string `json:"session_id"`
}

// VerifySession closes the race where the purchaser returns from hosted
// checkout before the provider's webhook has landed. It retrieves the
// session and feeds it through the same reconciliation as the webhook.
func (h handler) VerifySession(c echo.Context) error {
	var request verifySessionRequest
	if err := c.Bind(&request); err != nil || request.SessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id is required")
	}

	session, err := h.sessions.GetCheckoutSession(c.Request().Context(), request.SessionID)
	if err != nil {
		return &echo.HTTPError{
			Code:     http.StatusBadGateway,
			Message:  "failed to retrieve payment session",
			Internal: err,
		}
	}

	result, err := h.issuer.ReconcileSession(c.Request().Context(), session)
	if err != nil {
		return issuanceHTTPError(err)
	}

	return c.JSON(http.StatusOK, issueResponse{
		TicketID:       result.Ticket.ID,
		AlreadyExisted: result.AlreadyExisted,
	})
}

func (h handler) ListTickets(c echo.Context) error {
	purchaser, ok := purchaserFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing purchaser identity")
	}

	tickets, err := h.tickets.ListByUser(c.Request().Context(), purchaser.ID)
	if err != nil {
		return &echo.HTTPError{
			Code:     http.StatusInternalServerError,
			Message:  http.StatusText(http.StatusInternalServerError),
			Internal: fmt.Errorf("listing tickets: %w", err),
		}
	}
	if tickets == nil {
		tickets = []entity.Ticket{}
	}

	return c.JSON(http.StatusOK, map[string]any{"tickets": tickets})
}
