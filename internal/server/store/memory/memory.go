// Package memory provides an in-process CredentialStore used by tests and
// local development. It honors the same atomic create/consume semantics as
// the durable backends, guarded by a single mutex.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dkotelnikov/accountd/internal/server/models"
	"github.com/dkotelnikov/accountd/internal/server/store"
)

type Store struct {
	mu     sync.Mutex
	users  map[string]models.User
	tokens map[tokenKey]models.Token
	now    func() time.Time
}

type tokenKey struct {
	email string
	value string
}

// New returns an empty store using the wall clock.
func New() *Store {
	return &Store{
		users:  make(map[string]models.User),
		tokens: make(map[tokenKey]models.Token),
		now:    time.Now,
	}
}

// SetClock overrides the clock used for expiration checks. Test hook.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) GetUser(_ context.Context, emailAddress string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[emailAddress]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := u
	return &out, nil
}

func (s *Store) SetUser(_ context.Context, user *models.User, requireNew bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if requireNew {
		if _, exists := s.users[user.EmailAddress]; exists {
			return store.ErrAlreadyExists
		}
	}
	s.users[user.EmailAddress] = *user
	return nil
}

func (s *Store) SetToken(_ context.Context, token *models.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenKey{token.EmailAddress, token.Value}] = *token
	return nil
}

func (s *Store) ConsumeToken(_ context.Context, emailAddress, value string, expectedType models.TokenType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tokenKey{emailAddress, value}
	tok, ok := s.tokens[key]
	if !ok || tok.Type != expectedType {
		return store.ErrTokenInvalid
	}
	if tok.Expiration.Before(s.now().Add(-store.ClockSkewTolerance)) {
		return store.ErrTokenInvalid
	}
	delete(s.tokens, key)
	return nil
}

var _ store.CredentialStore = (*Store)(nil)
