package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/class-enroll-api/internal/models"
)

// EnrollmentRepository handles persistence of enrollments, including the
// transactional approve-and-propagate path.
type EnrollmentRepository struct {
	db      *sqlx.DB
	metrics QueryObserver
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB, metrics QueryObserver) *EnrollmentRepository {
	return &EnrollmentRepository{db: db, metrics: metrics}
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	defer observe(r.metrics, "enrollments.find_by_id", time.Now())
	const query = `SELECT id, student_id, schedule_id, subject_code, status, requested_at, decided_at FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ExistsActiveBySubject checks for a live (Enrolled or Pending) enrollment
// of the student in the subject.
func (r *EnrollmentRepository) ExistsActiveBySubject(ctx context.Context, studentID, subjectCode string) (bool, error) {
	defer observe(r.metrics, "enrollments.exists_active_by_subject", time.Now())
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND subject_code = $2 AND status IN ($3, $4) LIMIT 1`
	var exists int
	err := r.db.GetContext(ctx, &exists, query, studentID, subjectCode,
		models.EnrollmentStatusEnrolled, models.EnrollmentStatusPending)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check active enrollment: %w", err)
	}
	return true, nil
}

// ListActiveSubjectCodes returns the subject codes the student currently
// holds an Enrolled or Pending row for.
func (r *EnrollmentRepository) ListActiveSubjectCodes(ctx context.Context, studentID string) ([]string, error) {
	defer observe(r.metrics, "enrollments.list_active_subject_codes", time.Now())
	const query = `SELECT DISTINCT subject_code FROM enrollments WHERE student_id = $1 AND status IN ($2, $3)`
	var codes []string
	if err := r.db.SelectContext(ctx, &codes, query, studentID,
		models.EnrollmentStatusEnrolled, models.EnrollmentStatusPending); err != nil {
		return nil, fmt.Errorf("list active subject codes: %w", err)
	}
	return codes, nil
}

// CreatePending inserts the single Pending row of an enrollment request.
// The insert is guarded against a concurrent request for the same subject:
// it lands only while no live row for (student, subject) exists, so two
// racing requests cannot both commit. Returns false when the guard
// suppressed the insert.
func (r *EnrollmentRepository) CreatePending(ctx context.Context, enrollment *models.Enrollment) (bool, error) {
	defer observe(r.metrics, "enrollments.create_pending", time.Now())
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.RequestedAt.IsZero() {
		enrollment.RequestedAt = time.Now().UTC()
	}
	enrollment.Status = models.EnrollmentStatusPending
	const query = `INSERT INTO enrollments (id, student_id, schedule_id, subject_code, status, requested_at)
        SELECT $1, $2, $3, $4, $5, $6
        WHERE NOT EXISTS (
            SELECT 1 FROM enrollments
            WHERE student_id = $2 AND subject_code = $4 AND status IN ($7, $8)
        )`
	result, err := r.db.ExecContext(ctx, query,
		enrollment.ID, enrollment.StudentID, enrollment.ScheduleID, enrollment.SubjectCode,
		enrollment.Status, enrollment.RequestedAt,
		models.EnrollmentStatusEnrolled, models.EnrollmentStatusPending)
	if err != nil {
		return false, fmt.Errorf("create enrollment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create enrollment result: %w", err)
	}
	return affected == 1, nil
}

// FindApprovalContext resolves the student and owning section of an
// enrollment via its representative schedule row.
func (r *EnrollmentRepository) FindApprovalContext(ctx context.Context, enrollmentID string) (*models.ApprovalContext, error) {
	defer observe(r.metrics, "enrollments.find_approval_context", time.Now())
	const query = `SELECT e.id AS enrollment_id, e.student_id, st.section_id
        FROM enrollments e
        JOIN schedule_times st ON st.id = e.schedule_id
        WHERE e.id = $1`
	var approval models.ApprovalContext
	if err := r.db.GetContext(ctx, &approval, query, enrollmentID); err != nil {
		return nil, err
	}
	return &approval, nil
}

// ApproveAndPropagate marks the enrollment Enrolled and synthesizes
// Enrolled rows for every sibling meeting time of the section the student
// holds no row for. Both writes share one transaction so a crash cannot
// leave the section partially propagated.
func (r *EnrollmentRepository) ApproveAndPropagate(ctx context.Context, approval *models.ApprovalContext) error {
	defer observe(r.metrics, "enrollments.approve_and_propagate", time.Now())
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin approval: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	const approve = `UPDATE enrollments SET status = $2, decided_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, approve, approval.EnrollmentID, models.EnrollmentStatusEnrolled, now); err != nil {
		return fmt.Errorf("approve enrollment: %w", err)
	}

	const propagate = `INSERT INTO enrollments (id, student_id, schedule_id, subject_code, status, requested_at, decided_at)
        SELECT gen_random_uuid(), $1, st.id, cs.subject_code, $3, $4, $4
        FROM schedule_times st
        JOIN class_sections cs ON cs.id = st.section_id
        WHERE st.section_id = $2
          AND NOT EXISTS (
              SELECT 1 FROM enrollments e
              WHERE e.student_id = $1 AND e.schedule_id = st.id
          )`
	if _, err := tx.ExecContext(ctx, propagate, approval.StudentID, approval.SectionID, models.EnrollmentStatusEnrolled, now); err != nil {
		return fmt.Errorf("propagate section enrollment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit approval: %w", err)
	}
	return nil
}

// UpdateStatus moves an enrollment to the given status.
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error {
	defer observe(r.metrics, "enrollments.update_status", time.Now())
	const query = `UPDATE enrollments SET status = $2, decided_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	return nil
}

// ListPendingBySection returns the distinct pending requesters of a
// section, ordered by name.
func (r *EnrollmentRepository) ListPendingBySection(ctx context.Context, sectionID string) ([]models.EnrollmentRequest, error) {
	defer observe(r.metrics, "enrollments.list_pending_by_section", time.Now())
	const query = `SELECT DISTINCT e.id AS enrollment_id, s.id AS student_id, s.name, s.email
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN schedule_times st ON st.id = e.schedule_id
        WHERE st.section_id = $1 AND e.status = $2
        ORDER BY s.name`
	var requests []models.EnrollmentRequest
	if err := r.db.SelectContext(ctx, &requests, query, sectionID, models.EnrollmentStatusPending); err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	return requests, nil
}

// ListEnrolledBySection returns the distinct enrolled students of a
// section, ordered by name.
func (r *EnrollmentRepository) ListEnrolledBySection(ctx context.Context, sectionID string) ([]models.EnrolledStudent, error) {
	defer observe(r.metrics, "enrollments.list_enrolled_by_section", time.Now())
	const query = `SELECT DISTINCT s.id AS student_id, s.name, s.email
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN schedule_times st ON st.id = e.schedule_id
        WHERE st.section_id = $1 AND e.status = $2
        ORDER BY s.name`
	var students []models.EnrolledStudent
	if err := r.db.SelectContext(ctx, &students, query, sectionID, models.EnrollmentStatusEnrolled); err != nil {
		return nil, fmt.Errorf("list enrolled students: %w", err)
	}
	return students, nil
}

// EnrolledScopes lists the schedule ids and subject codes of the student's
// Enrolled rows for announcement matching.
func (r *EnrollmentRepository) EnrolledScopes(ctx context.Context, studentID string) ([]models.EnrollmentScope, error) {
	defer observe(r.metrics, "enrollments.enrolled_scopes", time.Now())
	const query = `SELECT DISTINCT schedule_id, subject_code FROM enrollments WHERE student_id = $1 AND status = $2`
	var scopes []models.EnrollmentScope
	if err := r.db.SelectContext(ctx, &scopes, query, studentID, models.EnrollmentStatusEnrolled); err != nil {
		return nil, fmt.Errorf("list enrolled scopes: %w", err)
	}
	return scopes, nil
}
