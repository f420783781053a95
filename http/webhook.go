package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/labstack/echo/v4"

	"ticketing/entity"
	"ticketing/issuance"
	"ticketing/monitoring"
)

const signatureHeader = "X-Payment-Signature"

const eventCheckoutSessionCompleted = "checkout.session.completed"

type webhookEnvelope struct {
	Type string `json:"type"`
	Data struct {
		Object webhookSession `json:"object"`
	} `json:"data"`
}

type webhookSession struct {
	ID              string `json:"id"`
	PaymentStatus   string `json:"payment_status"`
	AmountTotal     int64  `json:"amount_total"`
	Currency        string `json:"currency"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
	Metadata map[string]string `json:"metadata"`
}

// PaymentWebhook handles asynchronous provider deliveries. Once the
// signature and payload check out, it answers 200 even when the event is
// logically rejected, so a payment that can never produce a ticket does not
// retry-storm forever. 400 is reserved for bad signatures and unparseable
// payloads; 500 for unexpected faults before any commit.
func (h handler) PaymentWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		monitoring.WebhookRequest("read_error")
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read body")
	}

	if h.webhookSecret != "" {
		signature := c.Request().Header.Get(signatureHeader)
		if err := verifySignature(h.webhookSecret, body, signature); err != nil {
			monitoring.WebhookRequest("invalid_signature")
			return &echo.HTTPError{
				Code:     http.StatusBadRequest,
				Message:  "invalid signature",
				Internal: err,
			}
		}
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		monitoring.WebhookRequest("invalid_payload")
		return &echo.HTTPError{
			Code:     http.StatusBadRequest,
			Message:  "failed to parse payload",
			Internal: err,
		}
	}

	if envelope.Type != eventCheckoutSessionCompleted {
		monitoring.WebhookRequest("ignored")
		return c.JSON(http.StatusOK, map[string]string{"status": "ignored"})
	}

	session := envelope.Data.Object
	result, err := h.issuer.ReconcileSession(c.Request().Context(), issuance.PaymentSession{
		ID:            session.ID,
		PaymentStatus: session.PaymentStatus,
		AmountTotal:   session.AmountTotal,
		Currency:      session.Currency,
		CustomerEmail: session.CustomerDetails.Email,
		Metadata:      session.Metadata,
	})
	if err != nil {
		return h.webhookReconcileError(c, err)
	}

	monitoring.WebhookRequest("processed")
	return c.JSON(http.StatusOK, issueResponse{
		TicketID:       result.Ticket.ID,
		AlreadyExisted: result.AlreadyExisted,
	})
}

func (h handler) webhookReconcileError(c echo.Context, err error) error {
	// An incomplete session is a normal delivery that must not create a
	// ticket and must not be retried.
	if errors.Is(err, issuance.ErrPaymentNotCompleted) {
		monitoring.WebhookRequest("not_completed")
		return c.JSON(http.StatusOK, map[string]string{"status": "ignored"})
	}

	var metadata entity.MetadataError
	if errors.As(err, &metadata) {
		monitoring.WebhookRequest("invalid_payload")
		return &echo.HTTPError{
			Code:     http.StatusBadRequest,
			Message:  metadata.Error(),
			Internal: metadata,
		}
	}

	// Domain rejections (unknown event, sold out) cannot succeed on retry.
	// Log them loudly, answer 200 so the provider stops, and leave the
	// payment for support to reconcile by hand.
	var outOfStock issuance.OutOfStockError
	var orderLimit issuance.OrderLimitError
	if errors.Is(err, issuance.ErrNotFound) ||
		errors.Is(err, issuance.ErrTicketTypeInactive) ||
		errors.As(err, &outOfStock) ||
		errors.As(err, &orderLimit) {
		log.FromContext(c.Request().Context()).
			WithError(err).
			Error("Paid session could not be reconciled to a ticket")
		monitoring.WebhookRequest("rejected")
		return c.JSON(http.StatusOK, map[string]string{
			"status": "rejected",
			"error":  err.Error(),
		})
	}

	monitoring.WebhookRequest("error")
	return &echo.HTTPError{
		Code:     http.StatusInternalServerError,
		Message:  http.StatusText(http.StatusInternalServerError),
		Internal: err,
	}
}
