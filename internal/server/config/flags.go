package config

import (
	"flag"
	"os"
	"time"

	"github.com/dkotelnikov/accountd/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":3000")
//	-k string   storage backend: postgres | dynamo | memory
//	-d string   PostgreSQL DSN
//	-n string   DynamoDB table name
//	-g string   AWS region
//	-m string   SES sender address (empty = log instead of send)
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-e int      email verification token validity, minutes
//	-p int      password reset token validity, minutes
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Duration flags
// are accepted as integers in minutes and converted to time.Duration values.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-k", "-d", "-n", "-g", "-m", "-s", "-t", "-r", "-e", "-p"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.StorageBackend, "k", config.StorageBackend, "storage backend (postgres|dynamo|memory)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.DynamoTableName, "n", config.DynamoTableName, "DynamoDB table name")
	fs.StringVar(&config.AWSRegion, "g", config.AWSRegion, "AWS region")
	fs.StringVar(&config.SESSender, "m", config.SESSender, "SES sender address")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessMinutes := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	refreshMinutes := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh_token_validity_duration (in minutes)")
	emailVerifyMinutes := fs.Int("e", int(config.EmailVerificationValidityDuration.Minutes()), "email_verification_validity_duration (in minutes)")
	passwordResetMinutes := fs.Int("p", int(config.PasswordResetValidityDuration.Minutes()), "password_reset_validity_duration (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessMinutes) * time.Minute
	config.RefreshTokenValidityDuration = time.Duration(*refreshMinutes) * time.Minute
	config.EmailVerificationValidityDuration = time.Duration(*emailVerifyMinutes) * time.Minute
	config.PasswordResetValidityDuration = time.Duration(*passwordResetMinutes) * time.Minute
}
