package message

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"ticketing/event"
	"ticketing/monitoring"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type ConfirmationRenderer interface {
	Render(e event.TicketIssued) (subject string, htmlBody string, err error)
}

type RegistrationRecorder interface {
	Upsert(ctx context.Context, eventID, userID string) error
}

// SendConfirmation renders the confirmation email with the scannable
// verification code and hands it to the mailer. It runs after the ticket
// transaction committed; an error here is retried by the router and can
// never undo or fail the ticket itself.
func handleSendConfirmation(renderer ConfirmationRenderer, mailer Mailer) func(ctx context.Context, e *event.TicketIssued) error {
	return func(ctx context.Context, e *event.TicketIssued) error {
		subject, htmlBody, err := renderer.Render(*e)
		if err != nil {
			monitoring.NotificationFailed()
			return fmt.Errorf("rendering confirmation email: %w", err)
		}

		if err := mailer.Send(ctx, e.CustomerEmail, subject, htmlBody); err != nil {
			monitoring.NotificationFailed()
			log.FromContext(ctx).
				WithError(err).
				WithField("ticket_id", e.TicketID).
				Error("Failed to send confirmation email")
			return fmt.Errorf("sending confirmation email: %w", err)
		}

		return nil
	}
}

// RecordRegistration keeps the attendance list in sync with issued tickets.
// The upsert is keyed by (event, user); replays are no-ops.
func handleRecordRegistration(recorder RegistrationRecorder) func(ctx context.Context, e *event.TicketIssued) error {
	return func(ctx context.Context, e *event.TicketIssued) error {
		if err := recorder.Upsert(ctx, e.EventID, e.UserID); err != nil {
			return fmt.Errorf("upserting registration: %w", err)
		}

		return nil
	}
}
