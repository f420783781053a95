package message

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketing/event"
)

type stubRenderer struct {
	err error
}

func (s stubRenderer) Render(e event.TicketIssued) (string, string, error) {
	if s.err != nil {
		return "", "", s.err
	}
	return "Your ticket for " + e.EventTitle, "<html></html>", nil
}

type stubMailer struct {
	sent []string
	err  error
}

func (s *stubMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, to)
	return nil
}

type stubRecorder struct {
	upserts [][2]string
	err     error
}

func (s *stubRecorder) Upsert(_ context.Context, eventID, userID string) error {
	if s.err != nil {
		return s.err
	}
	s.upserts = append(s.upserts, [2]string{eventID, userID})
	return nil
}

func TestSendConfirmation(t *testing.T) {
	mailer := &stubMailer{}
	handle := handleSendConfirmation(stubRenderer{}, mailer)

	err := handle(context.Background(), &event.TicketIssued{
		TicketID:      "ticket_1",
		CustomerEmail: "buyer@example.com",
		EventTitle:    "Sunday Service",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"buyer@example.com"}, mailer.sent)
}

func TestSendConfirmation_MailerFailureIsRetriable(t *testing.T) {
	mailer := &stubMailer{err: errors.New("gateway timeout")}
	handle := handleSendConfirmation(stubRenderer{}, mailer)

	err := handle(context.Background(), &event.TicketIssued{TicketID: "ticket_1"})
	assert.Error(t, err)
}

func TestRecordRegistration(t *testing.T) {
	recorder := &stubRecorder{}
	handle := handleRecordRegistration(recorder)

	err := handle(context.Background(), &event.TicketIssued{
		EventID: "ev_1",
		UserID:  "user_1",
	})
	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"ev_1", "user_1"}}, recorder.upserts)
}
