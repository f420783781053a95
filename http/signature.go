package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

var errInvalidSignature = errors.New("webhook signature mismatch")

// verifySignature checks the HMAC-SHA256 hex signature of the raw webhook
// body against the shared secret. The comparison is constant time. An
// optional "sha256=" prefix on the header value is accepted.
func verifySignature(secret string, body []byte, signature string) error {
	signature = strings.TrimPrefix(signature, "sha256=")
	if signature == "" {
		return errInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return errInvalidSignature
	}

	return nil
}
