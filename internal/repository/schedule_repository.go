package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/class-enroll-api/internal/models"
)

// dayOrderSQL sorts timetable rows Monday through Saturday instead of
// lexically.
const dayOrderSQL = `CASE st.day WHEN 'Monday' THEN 1 WHEN 'Tuesday' THEN 2 WHEN 'Wednesday' THEN 3 WHEN 'Thursday' THEN 4 WHEN 'Friday' THEN 5 WHEN 'Saturday' THEN 6 ELSE 7 END`

// ScheduleRepository handles class sections and their weekly meeting times.
type ScheduleRepository struct {
	db      *sqlx.DB
	metrics QueryObserver
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB, metrics QueryObserver) *ScheduleRepository {
	return &ScheduleRepository{db: db, metrics: metrics}
}

// FindByID returns one meeting time.
func (r *ScheduleRepository) FindByID(ctx context.Context, scheduleID string) (*models.ScheduleTime, error) {
	defer observe(r.metrics, "schedule_times.find_by_id", time.Now())
	const query = `SELECT id, section_id, day, start_time, end_time FROM schedule_times WHERE id = $1`
	var schedule models.ScheduleTime
	if err := r.db.GetContext(ctx, &schedule, query, scheduleID); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// ListBySection returns all meeting times of a section, day-ordered.
func (r *ScheduleRepository) ListBySection(ctx context.Context, sectionID string) ([]models.ScheduleTime, error) {
	defer observe(r.metrics, "schedule_times.list_by_section", time.Now())
	query := fmt.Sprintf(`SELECT id, section_id, day, start_time, end_time FROM schedule_times st WHERE section_id = $1 ORDER BY %s, start_time`, dayOrderSQL)
	var schedules []models.ScheduleTime
	if err := r.db.SelectContext(ctx, &schedules, query, sectionID); err != nil {
		return nil, fmt.Errorf("list section schedules: %w", err)
	}
	return schedules, nil
}

// SectionForSchedule resolves the section owning a meeting time.
func (r *ScheduleRepository) SectionForSchedule(ctx context.Context, scheduleID string) (string, error) {
	defer observe(r.metrics, "schedule_times.section_for_schedule", time.Now())
	const query = `SELECT section_id FROM schedule_times WHERE id = $1`
	var sectionID string
	if err := r.db.GetContext(ctx, &sectionID, query, scheduleID); err != nil {
		return "", err
	}
	return sectionID, nil
}

// SectionSubject returns the subject context of a section.
func (r *ScheduleRepository) SectionSubject(ctx context.Context, sectionID string) (*models.SectionSubject, error) {
	defer observe(r.metrics, "class_sections.section_subject", time.Now())
	const query = `SELECT cs.id AS section_id, cs.subject_code, s.name AS subject_name, s.semester, s.year_level
        FROM class_sections cs
        JOIN subjects s ON s.code = cs.subject_code
        WHERE cs.id = $1`
	var subject models.SectionSubject
	if err := r.db.GetContext(ctx, &subject, query, sectionID); err != nil {
		return nil, err
	}
	return &subject, nil
}

// SectionsForSubject groups each section of a subject with its slot string,
// slots ordered Monday through Saturday.
func (r *ScheduleRepository) SectionsForSubject(ctx context.Context, subjectCode string) ([]models.SectionSchedules, error) {
	defer observe(r.metrics, "class_sections.sections_for_subject", time.Now())
	query := fmt.Sprintf(`SELECT
        cs.id AS section_id,
        cs.section_name,
        cs.subject_code,
        s.name AS subject_name,
        cs.instructor_id,
        u.full_name AS instructor,
        string_agg(st.day || '::' || st.start_time || '::' || st.end_time, '||' ORDER BY %s, st.start_time) AS slots,
        MIN(st.start_time) AS first_start,
        MAX(st.end_time) AS last_end
        FROM class_sections cs
        JOIN schedule_times st ON st.section_id = cs.id
        JOIN subjects s ON s.code = cs.subject_code
        LEFT JOIN users u ON u.id = cs.instructor_id
        WHERE cs.subject_code = $1
        GROUP BY cs.id, cs.section_name, cs.subject_code, s.name, cs.instructor_id, u.full_name
        ORDER BY cs.section_name`, dayOrderSQL)
	var sections []models.SectionSchedules
	if err := r.db.SelectContext(ctx, &sections, query, subjectCode); err != nil {
		return nil, fmt.Errorf("list sections for subject: %w", err)
	}
	return sections, nil
}

// ListEnrolledTimes returns the meeting times of the student's Enrolled
// rows, the set conflict checks compare against.
func (r *ScheduleRepository) ListEnrolledTimes(ctx context.Context, studentID string) ([]models.ScheduleTime, error) {
	defer observe(r.metrics, "schedule_times.list_enrolled_times", time.Now())
	const query = `SELECT st.id, st.section_id, st.day, st.start_time, st.end_time
        FROM enrollments e
        JOIN schedule_times st ON st.id = e.schedule_id
        WHERE e.student_id = $1 AND e.status = $2`
	var schedules []models.ScheduleTime
	if err := r.db.SelectContext(ctx, &schedules, query, studentID, models.EnrollmentStatusEnrolled); err != nil {
		return nil, fmt.Errorf("list enrolled times: %w", err)
	}
	return schedules, nil
}

// DetailByID returns a meeting time with its section, subject and
// instructor context.
func (r *ScheduleRepository) DetailByID(ctx context.Context, scheduleID string) (*models.ScheduleDetail, error) {
	defer observe(r.metrics, "schedule_times.detail_by_id", time.Now())
	const query = `SELECT st.id AS schedule_id, st.day, st.start_time, st.end_time,
        cs.id AS section_id, cs.section_name, cs.subject_code, s.name AS subject_name,
        cs.instructor_id, u.full_name AS instructor
        FROM schedule_times st
        JOIN class_sections cs ON cs.id = st.section_id
        JOIN subjects s ON s.code = cs.subject_code
        LEFT JOIN users u ON u.id = cs.instructor_id
        WHERE st.id = $1`
	var detail models.ScheduleDetail
	if err := r.db.GetContext(ctx, &detail, query, scheduleID); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListForStudent returns the student's timetable rows, day-ordered. With
// onlyEnrolled set, Pending and Dropped rows are excluded.
func (r *ScheduleRepository) ListForStudent(ctx context.Context, studentID string, onlyEnrolled bool) ([]models.StudentScheduleRow, error) {
	defer observe(r.metrics, "schedule_times.list_for_student", time.Now())
	base := `SELECT e.id AS enrollment_id, e.status,
        st.id AS schedule_id, st.day, st.start_time, st.end_time,
        cs.id AS section_id, cs.section_name, cs.subject_code, s.name AS subject_name,
        cs.instructor_id, u.full_name AS instructor
        FROM enrollments e
        JOIN schedule_times st ON st.id = e.schedule_id
        JOIN class_sections cs ON cs.id = st.section_id
        JOIN subjects s ON s.code = cs.subject_code
        LEFT JOIN users u ON u.id = cs.instructor_id
        WHERE e.student_id = $1`
	args := []interface{}{studentID}
	if onlyEnrolled {
		base += ` AND e.status = $2`
		args = append(args, models.EnrollmentStatusEnrolled)
	}
	query := fmt.Sprintf(`%s ORDER BY %s, st.start_time`, base, dayOrderSQL)
	var rows []models.StudentScheduleRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list student schedules: %w", err)
	}
	return rows, nil
}
