package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
	"github.com/Phoethar22452/supabase-task-tracker/internal/infra/localauth"
)

const uniqueViolation = "23505"

// Ensure Users implements localauth.UserStore.
var _ localauth.UserStore = (*Users)(nil)

// Users is the users and refresh_tokens repository.
type Users struct {
	db *pgxpool.Pool
}

// NewUsers creates a Users repository.
func NewUsers(db *pgxpool.Pool) *Users {
	return &Users{db: db}
}

// CreateUser inserts a user with a random id.
func (r *Users) CreateUser(ctx context.Context, email string, hash []byte) (domain.User, error) {
	u := domain.User{ID: uuid.NewString(), Email: email}
	_, err := r.db.Exec(ctx, `INSERT INTO users (id, email, password_hash) VALUES ($1,$2,$3)`, u.ID, email, hash)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.User{}, domain.ErrUserExists
	}
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// FindUser returns the user and password hash for email.
func (r *Users) FindUser(ctx context.Context, email string) (domain.User, []byte, error) {
	var u domain.User
	var hash []byte
	err := r.db.QueryRow(ctx, `SELECT id::text, email, password_hash FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Email, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, nil, domain.ErrInvalidCredential
	}
	if err != nil {
		return domain.User{}, nil, err
	}
	return u, hash, nil
}

// SaveRefreshToken stores a refresh token valid for localauth.RefreshTokenTTL.
func (r *Users) SaveRefreshToken(ctx context.Context, token string, user domain.User, s *domain.Session) error {
	_, err := r.db.Exec(ctx, `INSERT INTO refresh_tokens (token, user_id, expires_at) VALUES ($1,$2,$3)`,
		token, user.ID, s.ExpiresAt.Add(localauth.RefreshTokenTTL))
	return err
}

// ConsumeRefreshToken deletes an unexpired token and returns its user.
func (r *Users) ConsumeRefreshToken(ctx context.Context, token string) (domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, `
		DELETE FROM refresh_tokens r USING users u
		WHERE r.token = $1 AND r.user_id = u.id AND r.expires_at > now()
		RETURNING u.id::text, u.email`, token).Scan(&u.ID, &u.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, localauth.ErrUnknownRefreshToken
	}
	return u, err
}

// RevokeRefreshTokens deletes every token of the user.
func (r *Users) RevokeRefreshTokens(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	return err
}
