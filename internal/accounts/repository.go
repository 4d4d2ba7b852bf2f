package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when an account lookup finds no matching row.
var ErrNotFound = errors.New("account not found")

// ErrDuplicateEmail is returned when an insert hits the accounts_email_key
// unique constraint: a concurrent resolution committed the row first.
var ErrDuplicateEmail = errors.New("email already registered")

// AccountRepository persists accounts in PostgreSQL. The accounts table
// carries a unique constraint on email — that constraint, not application
// logic, is what arbitrates concurrent first-time sign-ins across replicas.
type AccountRepository struct {
	db *pgxpool.Pool
}

// NewAccountRepository creates an AccountRepository.
func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account row. Sets ID, CreatedAt, UpdatedAt on the
// account. A unique-constraint violation on email maps to ErrDuplicateEmail.
func (r *AccountRepository) Create(ctx context.Context, a *Account) error {
	a.ID = uuid.New()
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	q := `
		INSERT INTO accounts (id, email, username, given_name, family_name, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Exec(ctx, q,
		a.ID, a.Email, a.Username, a.GivenName, a.FamilyName, a.AvatarURL,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// GetByEmail retrieves an account by its email address.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return r.scanOne(ctx, `SELECT * FROM accounts WHERE email = $1`, email)
}

// UpdateProfile writes the mutable profile fields for an account.
func (r *AccountRepository) UpdateProfile(ctx context.Context, id uuid.UUID, givenName, familyName, avatarURL string) error {
	q := `UPDATE accounts SET given_name = $2, family_name = $3, avatar_url = $4, updated_at = $5 WHERE id = $1`
	_, err := r.db.Exec(ctx, q, id, givenName, familyName, avatarURL, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// scanOne executes a single-row query and scans the result into an Account.
// Column order matches the table definition in migrations/001.
func (r *AccountRepository) scanOne(ctx context.Context, q string, args ...any) (*Account, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}

	var a Account
	if err := rows.Scan(
		&a.ID, &a.Email, &a.Username, &a.GivenName, &a.FamilyName,
		&a.AvatarURL, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &a, rows.Err()
}
