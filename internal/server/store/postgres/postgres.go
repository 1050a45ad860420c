// Package postgres implements the credential store over PostgreSQL via the
// pgx stdlib driver. Atomicity is carried by single conditional statements:
// create-if-absent is an INSERT .. ON CONFLICT DO NOTHING, token consumption
// is one conditional DELETE, so no explicit transactions are needed.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dkotelnikov/accountd/internal/server/models"
	"github.com/dkotelnikov/accountd/internal/server/store"
	"github.com/dkotelnikov/accountd/internal/server/store/postgres/migrations"
)

type Store struct {
	db *sql.DB
}

// Open connects to the database behind dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection. Used by tests.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error { return s.db.Close() }

// Migrate brings the schema up to date using the embedded goose migrations.
func (s *Store) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, s.db, ".")
}

func (s *Store) GetUser(ctx context.Context, emailAddress string) (*models.User, error) {
	query := `
		SELECT email_address, first_name, last_name, salty_password, email_verified, last_login, create_date
		FROM users
		WHERE email_address = $1
	`
	user := &models.User{}
	var lastLogin sql.NullTime
	err := s.db.QueryRowContext(ctx, query, emailAddress).Scan(
		&user.EmailAddress, &user.FirstName, &user.LastName,
		&user.SaltyPassword, &user.EmailVerified, &lastLogin, &user.CreateDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if lastLogin.Valid {
		user.LastLogin = lastLogin.Time
	}
	return user, nil
}

func (s *Store) SetUser(ctx context.Context, user *models.User, requireNew bool) error {
	var lastLogin sql.NullTime
	if !user.LastLogin.IsZero() {
		lastLogin = sql.NullTime{Time: user.LastLogin, Valid: true}
	}

	if requireNew {
		query := `
			INSERT INTO users (email_address, first_name, last_name, salty_password, email_verified, last_login, create_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (email_address) DO NOTHING
		`
		res, err := s.db.ExecContext(ctx, query,
			user.EmailAddress, user.FirstName, user.LastName,
			user.SaltyPassword, user.EmailVerified, lastLogin, user.CreateDate)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if affected == 0 {
			return store.ErrAlreadyExists
		}
		return nil
	}

	query := `
		INSERT INTO users (email_address, first_name, last_name, salty_password, email_verified, last_login, create_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (email_address) DO UPDATE
		SET first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    salty_password = EXCLUDED.salty_password,
		    email_verified = EXCLUDED.email_verified,
		    last_login = EXCLUDED.last_login
	`
	if _, err := s.db.ExecContext(ctx, query,
		user.EmailAddress, user.FirstName, user.LastName,
		user.SaltyPassword, user.EmailVerified, lastLogin, user.CreateDate); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *Store) SetToken(ctx context.Context, token *models.Token) error {
	query := `
		INSERT INTO tokens (email_address, value, type, expiration)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email_address, value) DO UPDATE
		SET type = EXCLUDED.type, expiration = EXCLUDED.expiration
	`
	if _, err := s.db.ExecContext(ctx, query,
		token.EmailAddress, token.Value, string(token.Type), token.Expiration); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *Store) ConsumeToken(ctx context.Context, emailAddress, value string, expectedType models.TokenType) error {
	query := `
		DELETE FROM tokens
		WHERE email_address = $1 AND value = $2 AND type = $3 AND expiration >= $4
	`
	res, err := s.db.ExecContext(ctx, query,
		emailAddress, value, string(expectedType), time.Now().Add(-store.ClockSkewTolerance))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return store.ErrTokenInvalid
	}
	return nil
}

var _ store.CredentialStore = (*Store)(nil)
