package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/class-enroll-api/internal/models"
)

// UserRepository handles persistence of authentication accounts.
type UserRepository struct {
	db      *sqlx.DB
	metrics QueryObserver
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB, metrics QueryObserver) *UserRepository {
	return &UserRepository{db: db, metrics: metrics}
}

// FindByID returns the account matching a student or admin id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	defer observe(r.metrics, "users.find_by_id", time.Now())
	const query = `SELECT id, email, password_hash, full_name, role, active, created_at, updated_at FROM users WHERE id = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}
