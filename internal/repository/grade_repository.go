package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/class-enroll-api/internal/models"
)

// GradeRepository reads the historical grade records of students.
type GradeRepository struct {
	db      *sqlx.DB
	metrics QueryObserver
}

// NewGradeRepository constructs the repository.
func NewGradeRepository(db *sqlx.DB, metrics QueryObserver) *GradeRepository {
	return &GradeRepository{db: db, metrics: metrics}
}

// ListPassedCodes returns the subject codes the student has passed.
func (r *GradeRepository) ListPassedCodes(ctx context.Context, studentID string) ([]string, error) {
	defer observe(r.metrics, "grades.list_passed_codes", time.Now())
	const query = `SELECT subject_code FROM grades WHERE student_id = $1 AND status = $2`
	var codes []string
	if err := r.db.SelectContext(ctx, &codes, query, studentID, models.GradeStatusPassed); err != nil {
		return nil, fmt.Errorf("list passed grades: %w", err)
	}
	return codes, nil
}

// ListRetakeCodes returns subject codes the student failed, dropped or left
// incomplete, restricted to subjects offered in the given semester. These
// subjects stay open for enrollment regardless of the student's year level.
func (r *GradeRepository) ListRetakeCodes(ctx context.Context, studentID, semester string) ([]string, error) {
	defer observe(r.metrics, "grades.list_retake_codes", time.Now())
	const query = `SELECT g.subject_code
        FROM grades g
        JOIN subjects s ON s.code = g.subject_code
        WHERE g.student_id = $1
          AND g.status IN ($2, $3, $4)
          AND s.semester = $5`
	var codes []string
	if err := r.db.SelectContext(ctx, &codes, query, studentID,
		models.GradeStatusFailed, models.GradeStatusDropped, models.GradeStatusIncomplete, semester); err != nil {
		return nil, fmt.Errorf("list retake grades: %w", err)
	}
	return codes, nil
}
