package notification

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/skip2/go-qrcode"
)

// VerificationPayload binds a ticket to its event and purchaser. It is what
// the door scanner reads back from the QR code.
type VerificationPayload struct {
	TicketID  string `json:"ticket_id"`
	EventID   string `json:"event_id"`
	UserID    string `json:"user_id"`
	VerifyURL string `json:"verify_url"`
}

func NewVerificationPayload(baseURL, ticketID, eventID, userID string) VerificationPayload {
	return VerificationPayload{
		TicketID:  ticketID,
		EventID:   eventID,
		UserID:    userID,
		VerifyURL: fmt.Sprintf("%s/verify-ticket?ticket=%s", baseURL, url.QueryEscape(ticketID)),
	}
}

// QRCodePNG encodes the payload as a PNG image. The payload is carried as
// JSON so the scanner round-trips to the same structure.
func (p VerificationPayload) QRCodePNG() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshalling verification payload: %w", err)
	}

	png, err := qrcode.Encode(string(data), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encoding qr code: %w", err)
	}

	return png, nil
}
