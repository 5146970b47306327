package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByUsername(ctx context.Context, username string) (Account, error) {
	var account Account
	var role string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, role, created_at
		FROM users
		WHERE username = $1
	`, username).Scan(&account.ID, &account.Username, &account.PasswordHash, &role, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, fmt.Errorf("query user by username: %w", err)
	}

	account.Role, err = ParseRole(role)
	if err != nil {
		return Account{}, fmt.Errorf("user %d: %w", account.ID, err)
	}

	return account, nil
}

func (r *Repository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return exists, nil
}

func (r *Repository) Insert(ctx context.Context, identity Identity, passwordHash string) (Identity, error) {
	now := time.Now().UTC()

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (username, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, identity.Username, passwordHash, string(identity.Role), now).Scan(&identity.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Identity{}, ErrDuplicateUsername
		}
		return Identity{}, fmt.Errorf("insert user: %w", err)
	}

	return identity, nil
}

func (r *Repository) FindByID(ctx context.Context, id int64) (Identity, error) {
	var identity Identity
	var role string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, role
		FROM users
		WHERE id = $1
	`, id).Scan(&identity.ID, &identity.Username, &role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Identity{}, ErrAccountNotFound
		}
		return Identity{}, fmt.Errorf("query user by id: %w", err)
	}

	identity.Role, err = ParseRole(role)
	if err != nil {
		return Identity{}, fmt.Errorf("user %d: %w", identity.ID, err)
	}

	return identity, nil
}
