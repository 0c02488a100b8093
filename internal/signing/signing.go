// Package signing verifies request signatures from trusted automation
// callers. The signature is an HMAC-SHA256 over "ts.userID.body", sent as
// a lowercase hex digest.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	ErrMissingHeaders   = errors.New("missing signature headers")
	ErrInvalidSignature = errors.New("invalid signature")
)

// Verifier checks HMAC-SHA256 request signatures against a shared key.
type Verifier struct {
	key []byte
}

func NewVerifier(key []byte) (*Verifier, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("signing key must not be empty")
	}
	return &Verifier{key: key}, nil
}

// Sign computes the hex signature for the given timestamp, user, and raw
// request body.
func (v *Verifier) Sign(ts, userID string, body []byte) string {
	mac := hmac.New(sha256.New, v.key)
	mac.Write([]byte(ts))
	mac.Write([]byte{'.'})
	mac.Write([]byte(userID))
	mac.Write([]byte{'.'})
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks the presented hex signature in constant time.
// An absent timestamp, user, or signature is rejected before any
// computation so callers can map it to a distinct error.
func (v *Verifier) Verify(ts, userID string, body []byte, signature string) error {
	if ts == "" || userID == "" || signature == "" {
		return ErrMissingHeaders
	}

	presented, err := hex.DecodeString(signature)
	if err != nil {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, v.key)
	mac.Write([]byte(ts))
	mac.Write([]byte{'.'})
	mac.Write([]byte(userID))
	mac.Write([]byte{'.'})
	mac.Write(body)

	if !hmac.Equal(mac.Sum(nil), presented) {
		return ErrInvalidSignature
	}
	return nil
}
