package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ticketing/entity"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// IdentityClient resolves a bearer token to the authenticated purchaser via
// the identity provider's userinfo endpoint.
type IdentityClient struct {
	baseURL string
	client  doer
}

func NewIdentityClient(baseURL string) IdentityClient {
	return IdentityClient{
		baseURL: baseURL,
		client:  newHTTPClient(),
	}
}

type userInfoResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (c IdentityClient) Verify(ctx context.Context, token string) (entity.Purchaser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/userinfo", nil)
	if err != nil {
		return entity.Purchaser{}, fmt.Errorf("creating userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := c.client.Do(req)
	if err != nil {
		return entity.Purchaser{}, fmt.Errorf("calling identity provider: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
		return entity.Purchaser{}, ErrInvalidToken
	}
	if res.StatusCode != http.StatusOK {
		return entity.Purchaser{}, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	var body userInfoResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return entity.Purchaser{}, fmt.Errorf("decoding userinfo: %w", err)
	}
	if body.ID == "" {
		return entity.Purchaser{}, ErrInvalidToken
	}

	return entity.Purchaser{
		ID:    body.ID,
		Email: body.Email,
	}, nil
}
