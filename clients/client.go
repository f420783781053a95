package clients

import (
	"context"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
)

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
	}
}

func setCommonHeaders(ctx context.Context, req *http.Request, apiKey string) {
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	req.Header.Set("Correlation-ID", log.CorrelationIDFromContext(ctx))
}
