package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"rfphub/internal/apperr"
	"rfphub/models"
)

type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

// uniqueViolation is the Postgres error code for unique-constraint conflicts.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// User

func (s *Storage) CreateUser(ctx context.Context, u *models.User) error {
	query := `
        INSERT INTO users (username, email, password_hash, role, organization, phone)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, active, created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query,
		u.Username, u.Email, u.PasswordHash, u.Role, u.Organization, u.Phone).
		Scan(&u.ID, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return apperr.New(apperr.Conflict, "username or email already taken")
	}
	return err
}

func (s *Storage) GetUser(ctx context.Context, id int) (*models.User, error) {
	u := &models.User{}
	query := `SELECT * FROM users WHERE id=$1`
	err := s.db.GetContext(ctx, u, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	return u, err
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	u := &models.User{}
	query := `SELECT * FROM users WHERE username=$1`
	err := s.db.GetContext(ctx, u, query, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	return u, err
}
