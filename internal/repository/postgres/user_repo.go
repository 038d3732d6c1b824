package postgres

import (
	"context"
	"database/sql"
	"errors"

	"socio/internal/domain"
)

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{
		DB: db,
	}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User, passwordHash, salt string) error {
	query := `
		INSERT INTO users (email, name, register_number, department, is_organiser, password_hash, salt, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		u.Email, u.Name, u.RegisterNumber, u.Department, u.IsOrganiser, passwordHash, salt, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, email, name, register_number, department, is_organiser, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	u := &domain.User{}
	err := r.DB.QueryRowContext(ctx, query, email).Scan(
		&u.ID, &u.Email, &u.Name, &u.RegisterNumber, &u.Department, &u.IsOrganiser, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *userRepository) GetCredentials(ctx context.Context, email string) (*domain.User, string, string, error) {
	query := `
		SELECT id, email, name, register_number, department, is_organiser, created_at, updated_at, password_hash, salt
		FROM users
		WHERE email = $1
	`
	u := &domain.User{}
	var hash, salt string
	err := r.DB.QueryRowContext(ctx, query, email).Scan(
		&u.ID, &u.Email, &u.Name, &u.RegisterNumber, &u.Department, &u.IsOrganiser, &u.CreatedAt, &u.UpdatedAt,
		&hash, &salt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", "", domain.ErrUserNotFound
		}
		return nil, "", "", err
	}
	return u, hash, salt, nil
}
