package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/msomdec/murmur/internal/domain"
)

const userColumns = `id, username, email, password_hash, full_name, bio, profile_picture_url, is_private, created_at, updated_at`

type userRepo struct {
	pool *pgxpool.Pool
}

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, username, email, password_hash, full_name, bio, profile_picture_url, is_private, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, id, user.Username, user.Email, user.PasswordHash, user.FullName, user.Bio,
		user.ProfilePictureURL, user.IsPrivate, now, now)
	if err != nil {
		if dup := duplicateUserError(err); dup != nil {
			return dup
		}
		return fmt.Errorf("insert user: %w", err)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *userRepo) Update(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET username = $1, email = $2, password_hash = $3, full_name = $4, bio = $5,
			profile_picture_url = $6, is_private = $7, updated_at = $8
		WHERE id = $9
	`, user.Username, user.Email, user.PasswordHash, user.FullName, user.Bio,
		user.ProfilePictureURL, user.IsPrivate, now, user.ID)
	if err != nil {
		if dup := duplicateUserError(err); dup != nil {
			return dup
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	user.UpdatedAt = now
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getBy(ctx, "username", username)
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *userRepo) getBy(ctx context.Context, column, value string) (*domain.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value)
	if err != nil {
		return nil, fmt.Errorf("query user by %s: %w", column, err)
	}
	user, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[domain.User])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return user, nil
}

func duplicateUserError(err error) error {
	pgErr, ok := isUniqueViolation(err)
	if !ok {
		return nil
	}
	switch pgErr.ConstraintName {
	case "users_username_key":
		return domain.ErrDuplicateUsername
	case "users_email_key":
		return domain.ErrDuplicateEmail
	}
	return domain.ErrConflict
}
