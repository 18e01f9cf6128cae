package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/gch/gch-api-go/internal/model"
	"github.com/gch/gch-api-go/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// Create hashes the password, inserts the user and returns the stored record.
// Emails are normalized to lower case so uniqueness holds regardless of the
// casing the client typed.
func (r *UserRepo) Create(ctx context.Context, email, fullName, phone, password string, cost int) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.User{}, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, full_name, phone, password_hash) VALUES (?,?,?,?)",
		email, fullName, nullString(phone), hash)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT id,email,full_name,phone,password_hash,is_active,is_admin,created_at,updated_at FROM users WHERE email=? LIMIT 1",
		email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT id,email,full_name,phone,password_hash,is_active,is_admin,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id))
}

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	var (
		u     model.User
		phone sql.NullString
	)
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &phone, &u.PasswordHash,
		&u.IsActive, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	u.Phone = phone.String
	return u, err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
