// Package utils provides helpers for generating reservation identifiers.
package utils

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// ShortTokenBytes is the amount of random data behind a short token.  Hex
// encoding doubles it, giving 24 characters.
const ShortTokenBytes = 12

// NewPublicCode returns the public reservation code shown to the owner: a
// random UUIDv4 in canonical form.
func NewPublicCode() string {
	return uuid.NewString()
}

// NewShortToken returns an opaque, URL-safe token for the anonymous short
// link.  It is not derived from the reservation id.
func NewShortToken() (string, error) {
	return randomHex(ShortTokenBytes)
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
