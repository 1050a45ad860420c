// Package tokens mints the random single-use tokens handed out during
// registration, refresh rotation, and password reset. Persistence is the
// caller's responsibility.
package tokens

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dkotelnikov/accountd/internal/server/models"
)

// valueEntropy is the number of random bytes behind each token value; hex
// encoding doubles it to a 64-character URL-safe string.
const valueEntropy = 32

// Issuer creates tokens with store-relative expirations.
type Issuer struct {
	now func() time.Time
}

// NewIssuer returns an Issuer using the wall clock.
func NewIssuer() *Issuer {
	return &Issuer{now: time.Now}
}

// Issue mints a token of the given type owned by emailAddress, expiring
// ttl from now. The value is computationally infeasible to guess.
func (i *Issuer) Issue(emailAddress string, typ models.TokenType, ttl time.Duration) (*models.Token, error) {
	value, err := randomHex(valueEntropy)
	if err != nil {
		return nil, fmt.Errorf("generating token value: %w", err)
	}
	return &models.Token{
		EmailAddress: emailAddress,
		Type:         typ,
		Value:        value,
		Expiration:   i.now().Add(ttl),
	}, nil
}

// randomHex returns the hex encoding of size random bytes, so the resulting
// string is twice as long as size.
func randomHex(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
