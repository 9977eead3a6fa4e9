package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/class-enroll-api/internal/models"
)

// StudentRepository handles persistence of student records.
type StudentRepository struct {
	db      *sqlx.DB
	metrics QueryObserver
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB, metrics QueryObserver) *StudentRepository {
	return &StudentRepository{db: db, metrics: metrics}
}

// FindByID returns a student by its ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	defer observe(r.metrics, "students.find_by_id", time.Now())
	const query = `SELECT id, name, email, course, year_level, created_at, updated_at FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}
