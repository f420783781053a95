package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// MailerClient delivers transactional email through the message-delivery
// provider's HTTP API.
type MailerClient struct {
	baseURL string
	apiKey  string
	from    string
	client  doer
}

func NewMailerClient(baseURL, apiKey, from string) MailerClient {
	return MailerClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		from:    from,
		client:  newHTTPClient(),
	}
}

type sendEmailRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html"`
}

func (c MailerClient) Send(ctx context.Context, to, subject, htmlBody string) error {
	payload, err := json.Marshal(sendEmailRequest{
		From:     c.from,
		To:       to,
		Subject:  subject,
		HTMLBody: htmlBody,
	})
	if err != nil {
		return fmt.Errorf("marshalling email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	setCommonHeaders(ctx, req, c.apiKey)

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending email request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	return nil
}
