package services

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

// NewStateToken generates the opaque CSRF state value for one
// authorization attempt. Its lifetime is the attempt.
func NewStateToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		// Fallback to less secure but still usable random
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// ValidateState compares the state returned by the provider against the
// one generated for this attempt. True only on exact equality; an empty
// or missing received value never validates.
func ValidateState(expected, received string) bool {
	return expected != "" && expected == received
}
