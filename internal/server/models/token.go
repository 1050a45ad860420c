package models

import "time"

// TokenType discriminates the single-use token kinds stored alongside users.
type TokenType string

const (
	// TokenTypeEmail proves control of an email address during verification.
	TokenTypeEmail TokenType = "email"
	// TokenTypeRefresh is exchanged for a new access token; single use,
	// rotated on every successful exchange.
	TokenTypeRefresh TokenType = "refresh"
	// TokenTypePassword authorizes a password reset.
	TokenTypePassword TokenType = "password"
)

// Token is a single-use credential owned by a user. The (EmailAddress, Value)
// pair is the lookup key; Value is a high-entropy random string. A token is
// consumable while its type matches and Expiration is no more than the
// store's clock-skew allowance in the past.
type Token struct {
	EmailAddress string    `dynamodbav:"emailAddress"`
	Type         TokenType `dynamodbav:"type"`
	Value        string    `dynamodbav:"value"`
	Expiration   time.Time `dynamodbav:"expiration,unixtime"`
}
