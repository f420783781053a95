package tests_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketing/entity"
	"ticketing/issuance"
)

func TestComponent(t *testing.T) {
	redisClient := setupRedis(t)
	dbConn := setupDB(t)

	mailer := &MockMailer{}
	sessions := &MockSessionRetriever{Sessions: map[string]issuance.PaymentSession{}}
	verifier := &MockVerifier{Purchasers: map[string]entity.Purchaser{}}

	startService(t, redisClient, dbConn, mailer, sessions, verifier)

	t.Run("free ticket claim", func(t *testing.T) {
		ev := seedFreeEvent(t, dbConn)
		userID := uuid.NewString()
		verifier.Purchasers["token_free"] = entity.Purchaser{ID: userID, Email: "claimer@example.com"}

		resp, response := claimTicket(t, "token_free", map[string]any{
			"event_id": ev.ID,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assertTicketStored(t, dbConn, userID, response.TicketID)

		// A repeat claim answers with the same ticket.
		resp, replay := claimTicket(t, "token_free", map[string]any{
			"event_id": ev.ID,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.True(t, replay.AlreadyExisted)
		assert.Equal(t, response.TicketID, replay.TicketID)

		assertConfirmationEmailSent(t, mailer, "claimer@example.com", ev.Title)
		assertRegistrationRecorded(t, dbConn, ev.ID, userID)
	})

	t.Run("paid ticket via webhook", func(t *testing.T) {
		ev, tt := seedPaidEvent(t, dbConn, 100)
		userID := uuid.NewString()
		sessionID := "sess_" + uuid.NewString()

		metadata := map[string]string{
			"event_id":       ev.ID,
			"ticket_type_id": tt.ID,
			"user_id":        userID,
			"quantity":       "2",
		}

		resp, response := sendWebhook(t, sessionID, "paid", metadata)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.False(t, response.AlreadyExisted)
		assertTicketStored(t, dbConn, userID, response.TicketID)

		// Providers redeliver; the replay must not issue a second ticket.
		resp, replay := sendWebhook(t, sessionID, "paid", metadata)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.True(t, replay.AlreadyExisted)
		assert.Equal(t, response.TicketID, replay.TicketID)

		assertConfirmationEmailSent(t, mailer, "buyer@example.com", ev.Title)
		assertRegistrationRecorded(t, dbConn, ev.ID, userID)
	})

	t.Run("flaky mailer does not undo the ticket", func(t *testing.T) {
		ev := seedFreeEvent(t, dbConn)
		userID := uuid.NewString()
		verifier.Purchasers["token_flaky"] = entity.Purchaser{ID: userID, Email: "flaky@example.com"}

		mailer.FailFirst = 2

		resp, response := claimTicket(t, "token_flaky", map[string]any{
			"event_slug": ev.Slug,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assertTicketStored(t, dbConn, userID, response.TicketID)

		// The send is retried until the gateway recovers.
		assertConfirmationEmailSent(t, mailer, "flaky@example.com", ev.Title)
	})
}
