package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/class-enroll-api/internal/models"
)

// AnnouncementRepository handles persistence of announcements and the
// resolution of their scope.
type AnnouncementRepository struct {
	db      *sqlx.DB
	metrics QueryObserver
}

// NewAnnouncementRepository constructs the repository.
func NewAnnouncementRepository(db *sqlx.DB, metrics QueryObserver) *AnnouncementRepository {
	return &AnnouncementRepository{db: db, metrics: metrics}
}

// Create persists a new announcement.
func (r *AnnouncementRepository) Create(ctx context.Context, announcement *models.Announcement) error {
	defer observe(r.metrics, "announcements.create", time.Now())
	if announcement.ID == "" {
		announcement.ID = uuid.NewString()
	}
	if announcement.DatePosted.IsZero() {
		announcement.DatePosted = time.Now().UTC()
	}
	const query = `INSERT INTO announcements (id, admin_id, schedule_id, subject_code, message, date_posted, expiry_date)
        VALUES (:id, :admin_id, :schedule_id, :subject_code, :message, :date_posted, :expiry_date)`
	if _, err := r.db.NamedExecContext(ctx, query, announcement); err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	return nil
}

// ResolveScheduleScope resolves a schedule-scoped announcement target.
func (r *AnnouncementRepository) ResolveScheduleScope(ctx context.Context, scheduleID string) (*models.AnnouncementScope, error) {
	defer observe(r.metrics, "announcements.resolve_schedule_scope", time.Now())
	const query = `SELECT st.id AS schedule_id, cs.id AS section_id, cs.subject_code
        FROM schedule_times st
        JOIN class_sections cs ON cs.id = st.section_id
        WHERE st.id = $1`
	var scope models.AnnouncementScope
	if err := r.db.GetContext(ctx, &scope, query, scheduleID); err != nil {
		return nil, err
	}
	return &scope, nil
}

// ResolveSectionScope resolves a section-scoped announcement target. The
// schedule reference stays empty: the announcement applies to the whole
// subject offering, not one meeting time.
func (r *AnnouncementRepository) ResolveSectionScope(ctx context.Context, sectionID string) (*models.AnnouncementScope, error) {
	defer observe(r.metrics, "announcements.resolve_section_scope", time.Now())
	const query = `SELECT id AS section_id, subject_code FROM class_sections WHERE id = $1`
	var scope models.AnnouncementScope
	if err := r.db.GetContext(ctx, &scope, query, sectionID); err != nil {
		return nil, err
	}
	return &scope, nil
}

// ListByAdmin returns the announcements posted by one admin, newest first.
func (r *AnnouncementRepository) ListByAdmin(ctx context.Context, adminID string) ([]models.AnnouncementDetail, error) {
	defer observe(r.metrics, "announcements.list_by_admin", time.Now())
	const query = `SELECT a.id, a.admin_id, a.schedule_id, a.subject_code, a.message, a.date_posted, a.expiry_date,
        st.day, st.start_time, st.end_time, cs.section_name
        FROM announcements a
        LEFT JOIN schedule_times st ON st.id = a.schedule_id
        LEFT JOIN class_sections cs ON cs.id = st.section_id
        WHERE a.admin_id = $1
        ORDER BY a.date_posted DESC`
	var announcements []models.AnnouncementDetail
	if err := r.db.SelectContext(ctx, &announcements, query, adminID); err != nil {
		return nil, fmt.Errorf("list admin announcements: %w", err)
	}
	return announcements, nil
}

// ListForStudent returns global announcements plus the ones scoped to the
// student's enrolled schedules or subjects, newest first.
func (r *AnnouncementRepository) ListForStudent(ctx context.Context, scheduleIDs, subjectCodes []string) ([]models.AnnouncementDetail, error) {
	defer observe(r.metrics, "announcements.list_for_student", time.Now())
	base := `SELECT a.id, a.admin_id, a.schedule_id, a.subject_code, a.message, a.date_posted, a.expiry_date,
        st.day, st.start_time, st.end_time, cs.section_name, u.full_name AS posted_by
        FROM announcements a
        LEFT JOIN schedule_times st ON st.id = a.schedule_id
        LEFT JOIN class_sections cs ON cs.id = st.section_id
        LEFT JOIN users u ON u.id = a.admin_id
        WHERE (a.schedule_id IS NULL AND a.subject_code IS NULL)`
	args := []interface{}{}
	if len(scheduleIDs) > 0 {
		base += ` OR a.schedule_id IN (?)`
		args = append(args, scheduleIDs)
	}
	if len(subjectCodes) > 0 {
		base += ` OR a.subject_code IN (?)`
		args = append(args, subjectCodes)
	}
	base += ` ORDER BY a.date_posted DESC`

	query := base
	var expanded []interface{}
	if len(args) > 0 {
		var err error
		query, expanded, err = sqlx.In(base, args...)
		if err != nil {
			return nil, fmt.Errorf("build student announcement query: %w", err)
		}
		query = r.db.Rebind(query)
	}

	var announcements []models.AnnouncementDetail
	if err := r.db.SelectContext(ctx, &announcements, query, expanded...); err != nil {
		return nil, fmt.Errorf("list student announcements: %w", err)
	}
	return announcements, nil
}
