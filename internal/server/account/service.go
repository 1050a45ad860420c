// Package account implements the credential lifecycle: registration,
// authentication, refresh-token rotation, email verification, and password
// reset. All durable state lives behind the store contract; the service
// itself is stateless between calls.
package account

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dkotelnikov/accountd/internal/logging"
	"github.com/dkotelnikov/accountd/internal/server/auth"
	"github.com/dkotelnikov/accountd/internal/server/config"
	"github.com/dkotelnikov/accountd/internal/server/email"
	"github.com/dkotelnikov/accountd/internal/server/models"
	"github.com/dkotelnikov/accountd/internal/server/passwd"
	"github.com/dkotelnikov/accountd/internal/server/store"
	"github.com/dkotelnikov/accountd/internal/server/tokens"
)

// TokenPair bundles a freshly signed access token and the rotated refresh
// token that can later be exchanged for the next pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Service orchestrates the account lifecycle over a credential store and a
// notification sink.
//
// Notification failures are fatal for Register and RequestPasswordReset
// (the mail carries the only copy of the token) and best-effort for the
// password-changed notice in ResetPassword.
type Service struct {
	store  store.CredentialStore
	sink   email.Sink
	hasher *passwd.Hasher
	issuer *tokens.Issuer
	logger logging.Logger

	secret           []byte
	accessTTL        time.Duration
	refreshTTL       time.Duration
	emailVerifyTTL   time.Duration
	passwordResetTTL time.Duration
	emailVerifyURL   string
	passwordResetURL string

	now func() time.Time
}

// NewService constructs the lifecycle service from its collaborators and the
// server configuration.
func NewService(cfg *config.Config, st store.CredentialStore, sink email.Sink, hasher *passwd.Hasher, issuer *tokens.Issuer, logger logging.Logger) *Service {
	return &Service{
		store:            st,
		sink:             sink,
		hasher:           hasher,
		issuer:           issuer,
		logger:           logger.With("module", "account_service"),
		secret:           []byte(cfg.SecretKey),
		accessTTL:        cfg.AccessTokenValidityDuration,
		refreshTTL:       cfg.RefreshTokenValidityDuration,
		emailVerifyTTL:   cfg.EmailVerificationValidityDuration,
		passwordResetTTL: cfg.PasswordResetValidityDuration,
		emailVerifyURL:   cfg.EmailVerifyURL,
		passwordResetURL: cfg.PasswordResetURL,
		now:              time.Now,
	}
}

// Register creates an unverified account and mails a verification link.
// Returns ErrEmailAlreadyUsed when the email already has an account. Once the
// user record is written, later failures leave a registered-but-unverified
// account; re-running the verification request recovers it.
func (s *Service) Register(ctx context.Context, firstName, lastName, emailAddress, password string) error {
	pwHash, err := s.hasher.Hash(password)
	if err != nil {
		return internalErr(fmt.Errorf("hashing password: %w", err))
	}

	user := &models.User{
		EmailAddress:  emailAddress,
		FirstName:     firstName,
		LastName:      lastName,
		SaltyPassword: pwHash,
		EmailVerified: false,
		CreateDate:    s.now(),
	}
	if err := s.store.SetUser(ctx, user, true); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return ErrEmailAlreadyUsed
		}
		return internalErr(fmt.Errorf("creating user: %w", err))
	}

	tok, err := s.issuer.Issue(emailAddress, models.TokenTypeEmail, s.emailVerifyTTL)
	if err != nil {
		return internalErr(err)
	}
	if err := s.store.SetToken(ctx, tok); err != nil {
		return internalErr(fmt.Errorf("persisting verification token: %w", err))
	}

	link := buildLink(s.emailVerifyURL, tok.Value, emailAddress)
	if err := s.sink.Send(ctx, emailAddress, email.VerificationContent(firstName, link)); err != nil {
		return internalErr(fmt.Errorf("sending verification email: %w", err))
	}
	return nil
}

// GetAccessToken authenticates with exactly one of password or refreshToken
// and returns a fresh token pair. The presented refresh token is consumed
// before a new one is issued, so every successful exchange rotates it.
func (s *Service) GetAccessToken(ctx context.Context, emailAddress, password, refreshToken string) (*TokenPair, error) {
	if (password == "") == (refreshToken == "") {
		return nil, ErrBadCredentialsInput
	}

	if password != "" {
		user, err := s.getUser(ctx, emailAddress)
		if err != nil {
			return nil, err
		}
		ok, err := s.hasher.Verify(password, user.SaltyPassword)
		if err != nil {
			return nil, internalErr(fmt.Errorf("verifying password: %w", err))
		}
		if !ok {
			return nil, ErrInvalidPassword
		}
		s.stampLastLogin(ctx, user)
	} else {
		if err := s.store.ConsumeToken(ctx, emailAddress, refreshToken, models.TokenTypeRefresh); err != nil {
			if errors.Is(err, store.ErrTokenInvalid) {
				return nil, ErrInvalidToken
			}
			return nil, internalErr(fmt.Errorf("consuming refresh token: %w", err))
		}
	}

	newRefresh, err := s.issuer.Issue(emailAddress, models.TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, internalErr(err)
	}
	if err := s.store.SetToken(ctx, newRefresh); err != nil {
		return nil, internalErr(fmt.Errorf("persisting refresh token: %w", err))
	}

	access, err := auth.Sign(emailAddress, s.secret, s.accessTTL)
	if err != nil {
		return nil, internalErr(fmt.Errorf("signing access token: %w", err))
	}
	return &TokenPair{AccessToken: access, RefreshToken: newRefresh.Value}, nil
}

// Logout consumes the named refresh token. A token that is absent or already
// consumed yields ErrInvalidToken.
func (s *Service) Logout(ctx context.Context, emailAddress, refreshToken string) error {
	return s.consume(ctx, emailAddress, refreshToken, models.TokenTypeRefresh)
}

// VerifyEmail consumes a verification token and marks the account verified.
func (s *Service) VerifyEmail(ctx context.Context, emailAddress, token string) error {
	if err := s.consume(ctx, emailAddress, token, models.TokenTypeEmail); err != nil {
		return err
	}
	user, err := s.getUser(ctx, emailAddress)
	if err != nil {
		return err
	}
	user.EmailVerified = true
	if err := s.store.SetUser(ctx, user, false); err != nil {
		return internalErr(fmt.Errorf("updating user: %w", err))
	}
	return nil
}

// RequestEmailVerification re-issues a verification link for an unverified
// account. This is the recovery path for registrations whose original mail
// was never delivered; for an already verified account it does nothing.
func (s *Service) RequestEmailVerification(ctx context.Context, emailAddress string) error {
	user, err := s.getUser(ctx, emailAddress)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return nil
	}

	tok, err := s.issuer.Issue(emailAddress, models.TokenTypeEmail, s.emailVerifyTTL)
	if err != nil {
		return internalErr(err)
	}
	if err := s.store.SetToken(ctx, tok); err != nil {
		return internalErr(fmt.Errorf("persisting verification token: %w", err))
	}

	link := buildLink(s.emailVerifyURL, tok.Value, emailAddress)
	if err := s.sink.Send(ctx, emailAddress, email.VerificationContent(user.FirstName, link)); err != nil {
		return internalErr(fmt.Errorf("sending verification email: %w", err))
	}
	return nil
}

// RequestPasswordReset mails a reset link to a verified account. Unverified
// accounts get ErrEmailNotVerified and no token is issued.
func (s *Service) RequestPasswordReset(ctx context.Context, emailAddress string) error {
	user, err := s.getUser(ctx, emailAddress)
	if err != nil {
		return err
	}
	if !user.EmailVerified {
		return ErrEmailNotVerified
	}

	tok, err := s.issuer.Issue(emailAddress, models.TokenTypePassword, s.passwordResetTTL)
	if err != nil {
		return internalErr(err)
	}
	if err := s.store.SetToken(ctx, tok); err != nil {
		return internalErr(fmt.Errorf("persisting reset token: %w", err))
	}

	link := buildLink(s.passwordResetURL, tok.Value, emailAddress)
	if err := s.sink.Send(ctx, emailAddress, email.PasswordResetContent(user.FirstName, link)); err != nil {
		return internalErr(fmt.Errorf("sending reset email: %w", err))
	}
	return nil
}

// ResetPassword consumes a reset token and replaces the stored password hash
// with one derived under a fresh salt. The changed-password notice is
// advisory; a failed send is logged and the reset still succeeds.
func (s *Service) ResetPassword(ctx context.Context, emailAddress, password, token string) error {
	if err := s.consume(ctx, emailAddress, token, models.TokenTypePassword); err != nil {
		return err
	}

	pwHash, err := s.hasher.Hash(password)
	if err != nil {
		return internalErr(fmt.Errorf("hashing password: %w", err))
	}
	user, err := s.getUser(ctx, emailAddress)
	if err != nil {
		return err
	}
	user.SaltyPassword = pwHash
	if err := s.store.SetUser(ctx, user, false); err != nil {
		return internalErr(fmt.Errorf("updating user: %w", err))
	}

	if err := s.sink.Send(ctx, emailAddress, email.PasswordChangedContent(user.FirstName)); err != nil {
		s.logger.Warn(ctx, "failed to send password-changed notice", "emailAddress", emailAddress, "error", err.Error())
	}
	return nil
}

// VerifyAccessToken checks a previously issued access token and returns the
// email address it asserts.
func (s *Service) VerifyAccessToken(token string) (string, error) {
	subject, err := auth.ParseSubject(token, s.secret)
	if err != nil {
		return "", ErrInvalidToken
	}
	return subject, nil
}

func (s *Service) getUser(ctx context.Context, emailAddress string) (*models.User, error) {
	user, err := s.store.GetUser(ctx, emailAddress)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, internalErr(fmt.Errorf("loading user: %w", err))
	}
	return user, nil
}

func (s *Service) consume(ctx context.Context, emailAddress, value string, typ models.TokenType) error {
	if err := s.store.ConsumeToken(ctx, emailAddress, value, typ); err != nil {
		if errors.Is(err, store.ErrTokenInvalid) {
			return ErrInvalidToken
		}
		return internalErr(fmt.Errorf("consuming %s token: %w", typ, err))
	}
	return nil
}

// stampLastLogin records a successful password authentication. Auditing
// metadata must not block auth, so failures are logged and swallowed.
func (s *Service) stampLastLogin(ctx context.Context, user *models.User) {
	user.LastLogin = s.now()
	if err := s.store.SetUser(ctx, user, false); err != nil {
		s.logger.Warn(ctx, "failed to stamp last login", "emailAddress", user.EmailAddress, "error", err.Error())
	}
}

func buildLink(base, tokenValue, emailAddress string) string {
	return fmt.Sprintf("%s?token=%s&email=%s", base, url.QueryEscape(tokenValue), url.QueryEscape(emailAddress))
}

func internalErr(err error) error {
	return errors.Join(ErrInternal, err)
}
