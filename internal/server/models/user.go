// Package models defines the persistent records owned by the credential
// store: user accounts and single-use tokens.
package models

import "time"

// User is an account record keyed by email address.
//
// SaltyPassword is the opaque encoded password hash produced by the passwd
// package ("salt:iterations:hexdigest"); nothing outside that package should
// parse it. LastLogin is stamped on successful password authentication and
// stays zero until the first login.
type User struct {
	EmailAddress  string    `dynamodbav:"emailAddress"`
	FirstName     string    `dynamodbav:"firstName"`
	LastName      string    `dynamodbav:"lastName"`
	SaltyPassword string    `dynamodbav:"saltyPassword"`
	EmailVerified bool      `dynamodbav:"emailVerified"`
	LastLogin     time.Time `dynamodbav:"lastLogin,unixtime"`
	CreateDate    time.Time `dynamodbav:"createDate,unixtime"`
}
