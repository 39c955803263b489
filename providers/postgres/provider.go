package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	authflow "github.com/hailrides/authflow"
)

// Schema is the reference DDL the provider expects. Apply it with your
// migration tooling of choice.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    id                 UUID PRIMARY KEY,
    email              TEXT UNIQUE,
    phone_country_code TEXT,
    phone_number       TEXT,
    first_name         TEXT NOT NULL,
    last_name          TEXT NOT NULL,
    role               TEXT NOT NULL,
    created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (phone_country_code, phone_number)
);

CREATE TABLE IF NOT EXISTS auth_refresh_tokens (
    user_id    UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    token_hash BYTEA NOT NULL,
    expires_at TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (user_id, token_hash)
);
`

// Provider implements [authflow.UserProvider] on a *sql.DB.
//
// Provider instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type Provider struct {
	db *sql.DB
}

// Open dials PostgreSQL with the lib/pq driver and wraps the pool in a
// [Provider].
func Open(dsn string) (*Provider, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return New(db), nil
}

// New wraps an existing pool. The caller keeps ownership of the pool's
// lifecycle.
func New(db *sql.DB) *Provider {
	return &Provider{db: db}
}

// Close releases the underlying pool.
func (p *Provider) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

const userColumns = `id, COALESCE(email, ''), COALESCE(phone_country_code, ''), COALESCE(phone_number, ''), first_name, last_name, role`

// FindUserByEmail returns the user for an email, or (nil, nil) when none
// exists.
func (p *Provider) FindUserByEmail(ctx context.Context, email string) (*authflow.User, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// FindUserByPhone returns the user for a phone number, or (nil, nil) when
// none exists.
func (p *Provider) FindUserByPhone(ctx context.Context, countryCode, number string) (*authflow.User, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE phone_country_code = $1 AND phone_number = $2`,
		countryCode, number)
	return scanUser(row)
}

// CreateUser inserts a new account and returns the stored record.
func (p *Provider) CreateUser(ctx context.Context, input authflow.CreateUserInput) (*authflow.User, error) {
	user := &authflow.User{
		ID:               uuid.NewString(),
		Email:            input.Email,
		PhoneCountryCode: input.PhoneCountryCode,
		PhoneNumber:      input.PhoneNumber,
		FirstName:        input.FirstName,
		LastName:         input.LastName,
		Role:             input.Role,
	}

	_, err := p.db.ExecContext(ctx,
		`INSERT INTO users (id, email, phone_country_code, phone_number, first_name, last_name, role)
		 VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7)`,
		user.ID, user.Email, user.PhoneCountryCode, user.PhoneNumber,
		user.FirstName, user.LastName, user.Role)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// StoreRefreshToken persists a refresh token hash. Expired rows for the same
// user are pruned opportunistically.
func (p *Provider) StoreRefreshToken(ctx context.Context, userID string, tokenHash [32]byte, expiresAt time.Time) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM auth_refresh_tokens WHERE user_id = $1 AND expires_at < now()`, userID); err != nil {
		return fmt.Errorf("prune refresh tokens: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO auth_refresh_tokens (user_id, token_hash, expires_at) VALUES ($1, $2, $3)`,
		userID, tokenHash[:], expiresAt); err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return tx.Commit()
}

func scanUser(row *sql.Row) (*authflow.User, error) {
	var u authflow.User
	err := row.Scan(&u.ID, &u.Email, &u.PhoneCountryCode, &u.PhoneNumber,
		&u.FirstName, &u.LastName, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
