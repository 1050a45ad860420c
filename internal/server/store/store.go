// Package store declares the credential-store contract consumed by the
// account lifecycle service. Implementations (postgres, dynamo, memory) are
// selected at wiring time; the service never inspects which one it got.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/dkotelnikov/accountd/internal/server/models"
)

// ClockSkewTolerance is the grace window during which a nominally expired
// token is still consumable, absorbing clock disagreement between the node
// that issued the token and the one validating it.
const ClockSkewTolerance = 5 * time.Minute

var (
	// ErrNotFound is returned by GetUser when no user exists for the email.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned by SetUser with requireNew when a user
	// already exists for the email.
	ErrAlreadyExists = errors.New("already exists")

	// ErrTokenInvalid is returned by ConsumeToken when the token is missing,
	// already consumed, of a different type, or expired beyond
	// ClockSkewTolerance. Backends are not required to distinguish the cases;
	// callers treat them uniformly.
	ErrTokenInvalid = errors.New("token invalid")
)

// CredentialStore is durable storage for User and Token records with atomic
// create/consume semantics.
type CredentialStore interface {
	// GetUser returns the user for the email, or ErrNotFound.
	GetUser(ctx context.Context, emailAddress string) (*models.User, error)

	// SetUser writes a user record. With requireNew the write is an atomic
	// create-if-absent and returns ErrAlreadyExists on collision; without it
	// the write is an upsert.
	SetUser(ctx context.Context, user *models.User, requireNew bool) error

	// SetToken persists a token. Writing the same (email, value) pair twice
	// overwrites; values are high-entropy so collisions do not occur in
	// practice.
	SetToken(ctx context.Context, token *models.Token) error

	// ConsumeToken atomically deletes the token identified by (emailAddress,
	// value) if it exists, its type equals expectedType, and its expiration
	// is no more than ClockSkewTolerance in the past. At most one concurrent
	// caller succeeds; all others get ErrTokenInvalid.
	ConsumeToken(ctx context.Context, emailAddress, value string, expectedType models.TokenType) error
}
