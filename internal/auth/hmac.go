// Package auth implements the HMAC-SHA256 request signing shared by the
// ingestion endpoint and the producer agent.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureHeader is the HTTP header carrying the request signature.
const SignatureHeader = "X-HMAC-SHA256"

// Sign computes the lowercase hex HMAC-SHA256 of body keyed by secret.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether presented is a valid signature for body under secret.
// The comparison is constant-time, and an empty presented signature always
// fails. Callers treat every failure identically so the response does not
// reveal whether the header was missing, malformed, or simply wrong.
func Verify(secret, body []byte, presented string) bool {
	if presented == "" {
		return false
	}
	expected := Sign(secret, body)
	return hmac.Equal([]byte(expected), []byte(presented))
}
