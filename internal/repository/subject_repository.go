package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/class-enroll-api/internal/models"
)

// SubjectRepository handles persistence of subjects and their
// prerequisite edges.
type SubjectRepository struct {
	db      *sqlx.DB
	metrics QueryObserver
}

// NewSubjectRepository constructs the repository.
func NewSubjectRepository(db *sqlx.DB, metrics QueryObserver) *SubjectRepository {
	return &SubjectRepository{db: db, metrics: metrics}
}

// ListByYearAndSemester returns the subjects offered for a year level in
// the given semester, ordered by code.
func (r *SubjectRepository) ListByYearAndSemester(ctx context.Context, yearLevel int, semester string) ([]models.Subject, error) {
	defer observe(r.metrics, "subjects.list_by_year_and_semester", time.Now())
	const query = `SELECT code, name, units, year_level, semester FROM subjects WHERE year_level = $1 AND semester = $2 ORDER BY code`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, yearLevel, semester); err != nil {
		return nil, fmt.Errorf("list subjects by year: %w", err)
	}
	return subjects, nil
}

// ListBySemesterAndCodes returns the subset of codes offered in the given
// semester. An empty code list yields an empty result.
func (r *SubjectRepository) ListBySemesterAndCodes(ctx context.Context, semester string, codes []string) ([]models.Subject, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	defer observe(r.metrics, "subjects.list_by_semester_and_codes", time.Now())
	query, args, err := sqlx.In(`SELECT code, name, units, year_level, semester FROM subjects WHERE semester = ? AND code IN (?) ORDER BY code`, semester, codes)
	if err != nil {
		return nil, fmt.Errorf("build retake subject query: %w", err)
	}
	query = r.db.Rebind(query)
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, fmt.Errorf("list retake subjects: %w", err)
	}
	return subjects, nil
}

// PrerequisitesFor returns the prerequisite codes of each given subject.
// Subjects with no prerequisites are absent from the map.
func (r *SubjectRepository) PrerequisitesFor(ctx context.Context, codes []string) (map[string][]string, error) {
	prereqs := make(map[string][]string, len(codes))
	if len(codes) == 0 {
		return prereqs, nil
	}
	defer observe(r.metrics, "subject_prerequisites.prerequisites_for", time.Now())
	query, args, err := sqlx.In(`SELECT subject_code, prereq_code FROM subject_prerequisites WHERE subject_code IN (?)`, codes)
	if err != nil {
		return nil, fmt.Errorf("build prerequisite query: %w", err)
	}
	query = r.db.Rebind(query)
	var edges []models.Prerequisite
	if err := r.db.SelectContext(ctx, &edges, query, args...); err != nil {
		return nil, fmt.Errorf("list prerequisites: %w", err)
	}
	for _, edge := range edges {
		prereqs[edge.SubjectCode] = append(prereqs[edge.SubjectCode], edge.PrereqCode)
	}
	return prereqs, nil
}

// PrerequisiteCodes returns the prerequisite codes of one subject.
func (r *SubjectRepository) PrerequisiteCodes(ctx context.Context, code string) ([]string, error) {
	defer observe(r.metrics, "subject_prerequisites.prerequisite_codes", time.Now())
	const query = `SELECT prereq_code FROM subject_prerequisites WHERE subject_code = $1`
	var codes []string
	if err := r.db.SelectContext(ctx, &codes, query, code); err != nil {
		return nil, fmt.Errorf("list prerequisites for %s: %w", code, err)
	}
	return codes, nil
}
