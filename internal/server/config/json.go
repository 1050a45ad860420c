package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dkotelnikov/accountd/internal/flagx"
	"github.com/dkotelnikov/accountd/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. Interval fields use timex.Duration, which parses both string values
// such as "30m" and integer nanoseconds. After unmarshalling, its fields are
// copied into the runtime Config struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddrHTTP string `json:"endpoint_addr_http"`
	StorageBackend   string `json:"storage_backend"`
	DatabaseDSN      string `json:"database_dsn"`
	DynamoTableName  string `json:"dynamo_table_name"`
	AWSRegion        string `json:"aws_region"`
	SESSender        string `json:"ses_sender"`
	SecretKey        string `json:"secret_key"`

	AccessTokenValidityDuration       timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration      timex.Duration `json:"refresh_token_validity_duration"`
	EmailVerificationValidityDuration timex.Duration `json:"email_verification_validity_duration"`
	PasswordResetValidityDuration     timex.Duration `json:"password_reset_validity_duration"`

	EmailVerifyURL   string `json:"email_verify_url"`
	PasswordResetURL string `json:"password_reset_url"`

	HashStrategy   string `json:"hash_strategy"`
	HashIterations int    `json:"hash_iterations"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; if neither is set, no JSON file is loaded. If the file cannot be
// read or contains invalid JSON, the function panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	// Only fields present in the file override the current values, so the
	// defaults -> JSON -> flags precedence holds for partial files too.
	if c.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = c.EndpointAddrHTTP
	}
	if c.StorageBackend != "" {
		config.StorageBackend = c.StorageBackend
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.DynamoTableName != "" {
		config.DynamoTableName = c.DynamoTableName
	}
	if c.AWSRegion != "" {
		config.AWSRegion = c.AWSRegion
	}
	if c.SESSender != "" {
		config.SESSender = c.SESSender
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityDuration.Duration)
	}
	if c.RefreshTokenValidityDuration.Duration != 0 {
		config.RefreshTokenValidityDuration = time.Duration(c.RefreshTokenValidityDuration.Duration)
	}
	if c.EmailVerificationValidityDuration.Duration != 0 {
		config.EmailVerificationValidityDuration = time.Duration(c.EmailVerificationValidityDuration.Duration)
	}
	if c.PasswordResetValidityDuration.Duration != 0 {
		config.PasswordResetValidityDuration = time.Duration(c.PasswordResetValidityDuration.Duration)
	}
	if c.EmailVerifyURL != "" {
		config.EmailVerifyURL = c.EmailVerifyURL
	}
	if c.PasswordResetURL != "" {
		config.PasswordResetURL = c.PasswordResetURL
	}
	if c.HashStrategy != "" {
		config.HashStrategy = c.HashStrategy
	}
	if c.HashIterations != 0 {
		config.HashIterations = c.HashIterations
	}
}
