package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/class-enroll-api/internal/models"
	appErrors "github.com/noah-isme/class-enroll-api/pkg/errors"
)

type eligibilityStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type eligibilitySubjectReader interface {
	ListByYearAndSemester(ctx context.Context, yearLevel int, semester string) ([]models.Subject, error)
	ListBySemesterAndCodes(ctx context.Context, semester string, codes []string) ([]models.Subject, error)
	PrerequisitesFor(ctx context.Context, codes []string) (map[string][]string, error)
}

type eligibilityGradeReader interface {
	ListPassedCodes(ctx context.Context, studentID string) ([]string, error)
	ListRetakeCodes(ctx context.Context, studentID, semester string) ([]string, error)
}

type eligibilityEnrollmentReader interface {
	ListActiveSubjectCodes(ctx context.Context, studentID string) ([]string, error)
}

// EligibilityService computes the subjects a student may currently enroll
// in: the current year's offering for the target semester, plus retakes of
// failed same-semester subjects, gated by prerequisites and minus subjects
// already requested or held.
type EligibilityService struct {
	students        eligibilityStudentReader
	subjects        eligibilitySubjectReader
	grades          eligibilityGradeReader
	enrollments     eligibilityEnrollmentReader
	defaultSemester string
	logger          *zap.Logger
}

// NewEligibilityService constructs EligibilityService.
func NewEligibilityService(students eligibilityStudentReader, subjects eligibilitySubjectReader, grades eligibilityGradeReader, enrollments eligibilityEnrollmentReader, defaultSemester string, logger *zap.Logger) *EligibilityService {
	if defaultSemester == "" {
		defaultSemester = "1st"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityService{
		students:        students,
		subjects:        subjects,
		grades:          grades,
		enrollments:     enrollments,
		defaultSemester: defaultSemester,
		logger:          logger,
	}
}

// AvailableSubjects returns the subjects the student may enroll in for the
// given semester. An empty semester falls back to the configured default.
func (s *EligibilityService) AvailableSubjects(ctx context.Context, studentID, semester string) ([]models.Subject, error) {
	if semester == "" {
		semester = s.defaultSemester
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	retakeCodes, err := s.grades.ListRetakeCodes(ctx, studentID, semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load retake history")
	}

	current, err := s.subjects.ListByYearAndSemester(ctx, student.YearLevel, semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject offering")
	}

	retakes, err := s.subjects.ListBySemesterAndCodes(ctx, semester, retakeCodes)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load retake subjects")
	}

	// Union by subject code, current offering first.
	seen := make(map[string]struct{}, len(current)+len(retakes))
	candidates := make([]models.Subject, 0, len(current)+len(retakes))
	for _, subject := range append(current, retakes...) {
		if _, ok := seen[subject.Code]; ok {
			continue
		}
		seen[subject.Code] = struct{}{}
		candidates = append(candidates, subject)
	}
	if len(candidates) == 0 {
		return []models.Subject{}, nil
	}

	codes := make([]string, len(candidates))
	for i, subject := range candidates {
		codes[i] = subject.Code
	}

	prereqs, err := s.subjects.PrerequisitesFor(ctx, codes)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prerequisites")
	}

	passedCodes, err := s.grades.ListPassedCodes(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load passed grades")
	}
	passed := toSet(passedCodes)

	activeCodes, err := s.enrollments.ListActiveSubjectCodes(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current enrollments")
	}
	active := toSet(activeCodes)

	eligible := make([]models.Subject, 0, len(candidates))
	for _, subject := range candidates {
		if _, taken := active[subject.Code]; taken {
			continue
		}
		if !allPassed(prereqs[subject.Code], passed) {
			continue
		}
		eligible = append(eligible, subject)
	}
	return eligible, nil
}

func toSet(codes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		set[code] = struct{}{}
	}
	return set
}

// allPassed is vacuously true for subjects without prerequisites.
func allPassed(prereqs []string, passed map[string]struct{}) bool {
	for _, code := range prereqs {
		if _, ok := passed[code]; !ok {
			return false
		}
	}
	return true
}
