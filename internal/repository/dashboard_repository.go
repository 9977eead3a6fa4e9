package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/class-enroll-api/internal/models"
)

// DashboardRepository aggregates instructor-facing statistics.
type DashboardRepository struct {
	db      *sqlx.DB
	metrics QueryObserver
}

// NewDashboardRepository constructs the repository.
func NewDashboardRepository(db *sqlx.DB, metrics QueryObserver) *DashboardRepository {
	return &DashboardRepository{db: db, metrics: metrics}
}

// Totals returns the instructor's distinct enrolled students, distinct
// subjects and section count.
func (r *DashboardRepository) Totals(ctx context.Context, instructorID string) (*models.DashboardTotals, error) {
	defer observe(r.metrics, "dashboard.totals", time.Now())
	const query = `SELECT
        (
            SELECT COUNT(DISTINCT e.student_id)
            FROM enrollments e
            JOIN schedule_times st ON st.id = e.schedule_id
            JOIN class_sections cs ON cs.id = st.section_id
            WHERE cs.instructor_id = $1 AND e.status = $2
        ) AS total_students,
        (
            SELECT COUNT(DISTINCT cs.subject_code)
            FROM class_sections cs
            WHERE cs.instructor_id = $1
        ) AS total_subjects,
        (
            SELECT COUNT(*)
            FROM class_sections cs
            WHERE cs.instructor_id = $1
        ) AS total_classes`
	var totals models.DashboardTotals
	if err := r.db.GetContext(ctx, &totals, query, instructorID, models.EnrollmentStatusEnrolled); err != nil {
		return nil, fmt.Errorf("dashboard totals: %w", err)
	}
	return &totals, nil
}

// HandledSections returns the sections assigned to the instructor.
func (r *DashboardRepository) HandledSections(ctx context.Context, instructorID string) ([]models.SectionInfo, error) {
	defer observe(r.metrics, "dashboard.handled_sections", time.Now())
	const query = `SELECT cs.id AS section_id, cs.subject_code, s.name AS subject_name, cs.section_name
        FROM class_sections cs
        JOIN subjects s ON s.code = cs.subject_code
        WHERE cs.instructor_id = $1
        ORDER BY cs.section_name`
	var sections []models.SectionInfo
	if err := r.db.SelectContext(ctx, &sections, query, instructorID); err != nil {
		return nil, fmt.Errorf("list handled sections: %w", err)
	}
	return sections, nil
}
