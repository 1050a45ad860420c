// Package auth signs and verifies the short-lived access credentials handed
// to clients. Credentials are HS256 JWTs asserting subject = email address
// with an empty claims list; downstream services may verify them with the
// shared secret.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidCredential covers bad signatures, expiry, and malformed tokens.
var ErrInvalidCredential = errors.New("invalid access credential")

// Claims extends the registered JWT claims with a placeholder claims list.
type Claims struct {
	jwt.RegisteredClaims
	AccountClaims []string `json:"claims"`
}

// Sign mints an access credential for emailAddress, valid for validity.
func Sign(emailAddress string, secret []byte, validity time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   emailAddress,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validity)),
		},
		AccountClaims: []string{},
	})
	return token.SignedString(secret)
}

// ParseSubject verifies the credential's signature and expiry and returns the
// email address it asserts. Any failure is reported as ErrInvalidCredential.
func ParseSubject(tokenString string, secret []byte) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", errors.Join(ErrInvalidCredential, err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidCredential
	}
	return claims.Subject, nil
}
