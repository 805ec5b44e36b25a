package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

// User mirrors a row of the users table. PasswordHash is never serialized.
type User struct {
	ID            int64     `json:"id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	CountryCode   string    `json:"country_code"`
	MobileNumber  string    `json:"mobile_number"`
	CompanyName   string    `json:"company_name"`
	City          string    `json:"city"`
	State         string    `json:"state"`
	Country       string    `json:"country"`
	BotUsage      string    `json:"medicare_bot_usage"`
	Package       string    `json:"package"`
	EmailVerified bool      `json:"email_verified"`
	PasswordHash  string    `json:"-"`
	AccountStatus string    `json:"account_status"`
	CreatedAt     time.Time `json:"date_created"`
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create inserts a user. Username and email are unique; a clash on either
// returns ErrUserExists.
func (s *Store) Create(ctx context.Context, u User) (User, error) {
	if u.Package == "" {
		u.Package = "free"
	}
	if u.AccountStatus == "" {
		u.AccountStatus = "active"
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (first_name, last_name, username, email, country_code, mobile_number,
		                   company_name, city, state, country, bot_usage, package,
		                   email_verified, password_hash, account_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT DO NOTHING
		RETURNING id, date_created
	`, u.FirstName, u.LastName, u.Username, u.Email, u.CountryCode, u.MobileNumber,
		nullString(u.CompanyName), nullString(u.City), nullString(u.State), nullString(u.Country),
		nullString(u.BotUsage), u.Package, u.EmailVerified, u.PasswordHash, u.AccountStatus,
	).Scan(&u.ID, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserExists
	}
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *Store) GetByUsername(ctx context.Context, username string) (User, error) {
	var u User
	var company, city, state, country, botUsage sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, username, email, country_code, mobile_number,
		       company_name, city, state, country, bot_usage, package,
		       email_verified, password_hash, account_status, date_created
		FROM users
		WHERE username = $1
	`, username).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Username, &u.Email, &u.CountryCode, &u.MobileNumber,
		&company, &city, &state, &country, &botUsage, &u.Package,
		&u.EmailVerified, &u.PasswordHash, &u.AccountStatus, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	u.CompanyName, u.City, u.State, u.Country, u.BotUsage = company.String, city.String, state.String, country.String, botUsage.String
	return u, nil
}

// GetByEmail returns the id and username of the account registered to email.
func (s *Store) GetByEmail(ctx context.Context, email string) (User, error) {
	u := User{Email: email}
	err := s.db.QueryRowContext(ctx, `SELECT id, username FROM users WHERE email = $1`, email).Scan(&u.ID, &u.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("lookup user by email: %w", err)
	}
	return u, nil
}

// SaveResetToken stores the hash of a reset token. The plain token is only
// ever sent to the user.
func (s *Store) SaveResetToken(ctx context.Context, userID int64, tokenHash string, expiration time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO password_reset_tokens (user_id, token, expiration)
		VALUES ($1, $2, $3)
	`, userID, tokenHash, expiration)
	if err != nil {
		return fmt.Errorf("save reset token: %w", err)
	}
	return nil
}

// ResetPassword swaps the password of the token's owner, then consumes the
// token, in one transaction. Unknown or expired tokens return
// ErrInvalidResetToken.
func (s *Store) ResetPassword(ctx context.Context, tokenHash, passwordHash string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin reset: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var userID int64
	err = tx.QueryRowContext(ctx, `
		SELECT user_id FROM password_reset_tokens
		WHERE token = $1 AND expiration > NOW()
		FOR UPDATE
	`, tokenHash).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrInvalidResetToken
	}
	if err != nil {
		return 0, fmt.Errorf("lookup reset token: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, userID); err != nil {
		return 0, fmt.Errorf("update password: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE token = $1`, tokenHash); err != nil {
		return 0, fmt.Errorf("delete reset token: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit reset: %w", err)
	}
	return userID, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
