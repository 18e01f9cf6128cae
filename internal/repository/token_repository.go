package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gch/gch-api-go/internal/model"
)

// ErrTokenNotFound covers a refresh token that is unknown, expired or
// revoked.  The three cases are deliberately indistinguishable, matching
// the uniform 401 the API returns for all of them.
var ErrTokenNotFound = errors.New("refresh token not found")

// TokenRepo persists refresh tokens.  Only the SHA-256 hash of a token is
// ever written; the raw value exists solely in the client's hands.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh records a freshly issued token hash for the user.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp)
	return err
}

// ValidateRefresh resolves a hash to its live token row.  Expiry and
// revocation are part of the WHERE clause, so a dead token never leaves
// the database.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
	var rt model.RefreshToken
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, user_id, token_hash, expires_at, created_at
		   FROM refresh_tokens
		  WHERE token_hash=? AND revoked_at IS NULL AND expires_at > UTC_TIMESTAMP()
		  LIMIT 1`,
		tokenHash).Scan(&rt.ID, &rt.UserID, &rt.TokenHash, &rt.ExpiresAt, &rt.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RefreshToken{}, ErrTokenNotFound
	}
	if err != nil {
		return model.RefreshToken{}, err
	}
	return rt, nil
}

// RevokeByHash ends the single session behind one token.  Revoking an
// already revoked or unknown hash is a no-op.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForUser ends every session the user has open.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}
