package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"ticketing/issuance"
)

// PaymentsClient retrieves hosted checkout sessions from the payment
// provider. Used by the client-initiated verify path; the webhook path
// receives the session in the delivery body instead.
type PaymentsClient struct {
	baseURL string
	apiKey  string
	client  doer
}

func NewPaymentsClient(baseURL, apiKey string) PaymentsClient {
	return PaymentsClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  newHTTPClient(),
	}
}

type checkoutSessionResponse struct {
	ID              string `json:"id"`
	PaymentStatus   string `json:"payment_status"`
	AmountTotal     int64  `json:"amount_total"`
	Currency        string `json:"currency"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
	Metadata map[string]string `json:"metadata"`
}

func (c PaymentsClient) GetCheckoutSession(ctx context.Context, sessionID string) (issuance.PaymentSession, error) {
	endpoint := fmt.Sprintf("%s/v1/checkout/sessions/%s", c.baseURL, url.PathEscape(sessionID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return issuance.PaymentSession{}, fmt.Errorf("creating session request: %w", err)
	}
	setCommonHeaders(ctx, req, c.apiKey)

	res, err := c.client.Do(req)
	if err != nil {
		return issuance.PaymentSession{}, fmt.Errorf("retrieving checkout session: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return issuance.PaymentSession{}, fmt.Errorf("checkout session %q not found", sessionID)
	}
	if res.StatusCode != http.StatusOK {
		return issuance.PaymentSession{}, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	var body checkoutSessionResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return issuance.PaymentSession{}, fmt.Errorf("decoding checkout session: %w", err)
	}

	return issuance.PaymentSession{
		ID:            body.ID,
		PaymentStatus: body.PaymentStatus,
		AmountTotal:   body.AmountTotal,
		Currency:      body.Currency,
		CustomerEmail: body.CustomerDetails.Email,
		Metadata:      body.Metadata,
	}, nil
}
