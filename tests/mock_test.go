package tests_test

import (
	"context"
	"errors"
	"sync"

	"ticketing/entity"
	"ticketing/issuance"
)

type SentEmail struct {
	To      string
	Subject string
	Body    string
}

// MockMailer records sent emails. FailFirst simulates a flaky mail gateway
// by rejecting that many sends before accepting.
type MockMailer struct {
	lock      sync.Mutex
	FailFirst int
	Sent      []SentEmail
}

func (m *MockMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.FailFirst > 0 {
		m.FailFirst--
		return errors.New("mail gateway unavailable")
	}

	m.Sent = append(m.Sent, SentEmail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (m *MockMailer) SentTo(email string) []SentEmail {
	m.lock.Lock()
	defer m.lock.Unlock()

	var sent []SentEmail
	for _, s := range m.Sent {
		if s.To == email {
			sent = append(sent, s)
		}
	}
	return sent
}

// MockSessionRetriever serves canned checkout sessions by ID.
type MockSessionRetriever struct {
	lock     sync.Mutex
	Sessions map[string]issuance.PaymentSession
}

func (m *MockSessionRetriever) GetCheckoutSession(_ context.Context, sessionID string) (issuance.PaymentSession, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	session, ok := m.Sessions[sessionID]
	if !ok {
		return issuance.PaymentSession{}, errors.New("no such session")
	}
	session.ID = sessionID
	return session, nil
}

// MockVerifier resolves bearer tokens to purchasers from a fixed table.
type MockVerifier struct {
	Purchasers map[string]entity.Purchaser
}

func (m *MockVerifier) Verify(_ context.Context, token string) (entity.Purchaser, error) {
	purchaser, ok := m.Purchasers[token]
	if !ok {
		return entity.Purchaser{}, errors.New("unknown token")
	}
	return purchaser, nil
}
