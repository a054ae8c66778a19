// Package store persists users and audit events.
package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/samber/oops"

	"github.com/VJYGOUR/auth-system/internal/apperr"
	"github.com/VJYGOUR/auth-system/internal/database"
	"github.com/VJYGOUR/auth-system/internal/models"
)

// UserStore reads and writes user records.
type UserStore struct {
	db *database.DB
}

// NewUserStore creates a new UserStore.
func NewUserStore(db *database.DB) *UserStore {
	return &UserStore{db: db}
}

// FindByEmail retrieves a user by normalized email, including the password
// hash. A miss returns apperr.ErrNotFound.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findOne(ctx, "email", email)
}

// FindByID retrieves a user by id, including the password hash.
func (s *UserStore) FindByID(ctx context.Context, id string) (models.User, error) {
	return s.findOne(ctx, "id", id)
}

func (s *UserStore) findOne(ctx context.Context, column, value string) (models.User, error) {
	query := s.db.Dialect.Rebind("SELECT id, name, email, password_hash, created_at FROM users WHERE " + column + " = ?")

	var user models.User
	err := s.db.QueryRowContext(ctx, query, value).
		Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, apperr.ErrNotFound
		}
		return models.User{}, oops.Code("STORE_QUERY_FAILED").With("column", column).Wrap(err)
	}
	return user, nil
}

// Insert stores a new user. A duplicate email returns apperr.ErrConflict.
func (s *UserStore) Insert(ctx context.Context, user models.User) error {
	query := s.db.Dialect.Rebind("INSERT INTO users (id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)")

	_, err := s.db.ExecContext(ctx, query, user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt.UTC())
	if err != nil {
		if database.IsUniqueViolation(err) {
			return oops.Code("USER_EMAIL_TAKEN").Wrap(apperr.ErrConflict)
		}
		return oops.Code("STORE_INSERT_FAILED").With("user_id", user.ID).Wrap(err)
	}
	return nil
}

// UpdatePasswordHash replaces the stored hash for a user.
func (s *UserStore) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	query := s.db.Dialect.Rebind("UPDATE users SET password_hash = ? WHERE id = ?")

	res, err := s.db.ExecContext(ctx, query, hash, id)
	if err != nil {
		return oops.Code("STORE_UPDATE_FAILED").With("user_id", id).Wrap(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
