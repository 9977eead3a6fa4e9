package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/class-enroll-api/internal/models"
	appErrors "github.com/noah-isme/class-enroll-api/pkg/errors"
	"github.com/noah-isme/class-enroll-api/pkg/export"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type exportScheduleReader interface {
	ListForStudent(ctx context.Context, studentID string, onlyEnrolled bool) ([]models.StudentScheduleRow, error)
}

type exportRosterReader interface {
	ListEnrolledBySection(ctx context.Context, sectionID string) ([]models.EnrolledStudent, error)
}

type exportSectionReader interface {
	SectionForSchedule(ctx context.Context, scheduleID string) (string, error)
	SectionSubject(ctx context.Context, sectionID string) (*models.SectionSubject, error)
}

// ExportResult holds a rendered file ready to stream to the client.
type ExportResult struct {
	Content     []byte
	Filename    string
	ContentType string
}

// ExportService renders timetables and rosters as CSV or PDF downloads.
type ExportService struct {
	schedules exportScheduleReader
	rosters   exportRosterReader
	sections  exportSectionReader
	csv       csvRenderer
	pdf       pdfRenderer
	logger    *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(schedules exportScheduleReader, rosters exportRosterReader, sections exportSectionReader, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{schedules: schedules, rosters: rosters, sections: sections, csv: csv, pdf: pdf, logger: logger}
}

// StudentTimetable renders the student's approved schedule in the
// requested format. Format defaults to csv.
func (s *ExportService) StudentTimetable(ctx context.Context, studentID, format string) (*ExportResult, error) {
	rows, err := s.schedules.ListForStudent(ctx, studentID, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedules")
	}

	dataset := export.Dataset{
		Headers: []string{"Day", "Start", "End", "Subject", "Section", "Instructor"},
		Rows:    make([]map[string]string, 0, len(rows)),
	}
	for _, row := range rows {
		instructor := ""
		if row.Instructor != nil {
			instructor = *row.Instructor
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Day":        row.Day,
			"Start":      row.StartTime,
			"End":        row.EndTime,
			"Subject":    row.SubjectName,
			"Section":    row.SectionName,
			"Instructor": instructor,
		})
	}

	stamp := time.Now().UTC().Format("20060102")
	switch format {
	case "pdf":
		content, err := s.pdf.Render(dataset, fmt.Sprintf("Class Schedule %s", studentID))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{
			Content:     content,
			Filename:    fmt.Sprintf("schedule_%s_%s.pdf", studentID, stamp),
			ContentType: "application/pdf",
		}, nil
	case "", "csv":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{
			Content:     content,
			Filename:    fmt.Sprintf("schedule_%s_%s.csv", studentID, stamp),
			ContentType: "text/csv",
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

// SectionRoster renders the enrolled students of the section owning the
// given meeting time as CSV.
func (s *ExportService) SectionRoster(ctx context.Context, scheduleID string) (*ExportResult, error) {
	sectionID, err := s.sections.SectionForSchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
	}

	subject, err := s.sections.SectionSubject(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "section or subject not found")
	}

	students, err := s.rosters.ListEnrolledBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	dataset := export.Dataset{
		Headers: []string{"Student ID", "Name", "Email"},
		Rows:    make([]map[string]string, 0, len(students)),
	}
	for _, student := range students {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student ID": student.StudentID,
			"Name":       student.Name,
			"Email":      student.Email,
		})
	}

	content, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return &ExportResult{
		Content:     content,
		Filename:    fmt.Sprintf("roster_%s_%s.csv", subject.SubjectCode, sectionID),
		ContentType: "text/csv",
	}, nil
}
