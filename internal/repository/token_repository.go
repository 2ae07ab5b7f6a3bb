package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"restock/api/internal/models"
)

var ErrTokenNotFound = errors.New("refresh token not found")

// TokenRepository persists refresh-token rows and the revocation registry.
// Both live in the same database so a revocation can flip the row flag and
// append the registry entry in one transaction.
type TokenRepository struct {
	db DB
}

func NewTokenRepository(db DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Insert(ctx context.Context, token models.RefreshToken) error {
	const query = `
		INSERT INTO refresh_tokens (jti, user_id, created_at, expires_at, revoked)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(ctx, query,
		token.JTI,
		token.UserID,
		token.CreatedAt,
		token.ExpiresAt,
		token.Revoked,
	)
	return err
}

// FindByJTI loads the row for (jti, user_id). A structurally valid signed
// token with no matching row means the store and the signer disagree.
func (r *TokenRepository) FindByJTI(ctx context.Context, jti string, userID int64) (models.RefreshToken, error) {
	const query = `
		SELECT id, jti, user_id, created_at, expires_at, revoked
		FROM refresh_tokens WHERE jti = $1 AND user_id = $2
	`

	row := r.db.QueryRow(ctx, query, jti, userID)
	var token models.RefreshToken
	if err := row.Scan(
		&token.ID,
		&token.JTI,
		&token.UserID,
		&token.CreatedAt,
		&token.ExpiresAt,
		&token.Revoked,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.RefreshToken{}, ErrTokenNotFound
		}
		return models.RefreshToken{}, err
	}
	return token, nil
}

// IsRevoked consults the revocation registry. Errors surface to the caller;
// an unreachable registry is never treated as "not revoked".
func (r *TokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	const query = `
		SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = $1)
	`

	var revoked bool
	if err := r.db.QueryRow(ctx, query, jti).Scan(&revoked); err != nil {
		return false, err
	}
	return revoked, nil
}

// Revoke appends the registry entry and flips the row flag in a single
// transaction, so a concurrent verify can never observe a half-revoked
// state. The flag update may match zero rows: the registry also serves
// jtis that have no refresh row.
func (r *TokenRepository) Revoke(ctx context.Context, jti string) error {
	const insertQuery = `
		INSERT INTO revoked_tokens (jti, revoked_at) VALUES ($1, $2)
	`
	const updateQuery = `
		UPDATE refresh_tokens SET revoked = TRUE WHERE jti = $1
	`

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, insertQuery, jti, time.Now()); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, updateQuery, jti); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// DeleteExpired removes rows whose persisted expiry passed before the
// cutoff. Verification never depends on this; it only bounds table growth.
func (r *TokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	const query = `
		DELETE FROM refresh_tokens WHERE expires_at < $1
	`

	cmd, err := r.db.Exec(ctx, query, before)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
