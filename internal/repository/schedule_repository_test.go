package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-enroll-api/internal/models"
)

func TestScheduleRepositoryListBySection(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScheduleRepository(db, nil)
	rows := sqlmock.NewRows([]string{"id", "section_id", "day", "start_time", "end_time"}).
		AddRow("t1", "sec1", "Monday", "08:00:00", "09:00:00").
		AddRow("t2", "sec1", "Wednesday", "08:00:00", "09:00:00")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, section_id, day, start_time, end_time FROM schedule_times st")).
		WithArgs("sec1").
		WillReturnRows(rows)

	times, err := repo.ListBySection(context.Background(), "sec1")
	require.NoError(t, err)
	require.Len(t, times, 2)
	require.Equal(t, "t1", times[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryDayOrderedQueries(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScheduleRepository(db, nil)
	mock.ExpectQuery(regexp.QuoteMeta("CASE st.day WHEN 'Monday' THEN 1")).
		WithArgs("sec1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "section_id", "day", "start_time", "end_time"}))

	_, err := repo.ListBySection(context.Background(), "sec1")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositorySectionForSchedule(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScheduleRepository(db, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT section_id FROM schedule_times")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"section_id"}).AddRow("sec1"))

	sectionID, err := repo.SectionForSchedule(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, "sec1", sectionID)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT section_id FROM schedule_times")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.SectionForSchedule(context.Background(), "ghost")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositorySectionsForSubject(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScheduleRepository(db, nil)
	rows := sqlmock.NewRows([]string{"section_id", "section_name", "subject_code", "subject_name", "instructor_id", "instructor", "slots", "first_start", "last_end"}).
		AddRow("sec1", "A", "MATH201", "Calculus II", nil, nil,
			"Monday::08:00:00::09:00:00||Wednesday::08:00:00::09:00:00", "08:00:00", "09:00:00")
	mock.ExpectQuery(regexp.QuoteMeta("string_agg(st.day || '::' || st.start_time || '::' || st.end_time, '||'")).
		WithArgs("MATH201").
		WillReturnRows(rows)

	sections, err := repo.SectionsForSubject(context.Background(), "MATH201")
	require.NoError(t, err)
	require.Len(t, sections, 1)
	require.Contains(t, sections[0].Slots, "Monday::08:00:00::09:00:00")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryListForStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScheduleRepository(db, nil)
	columns := []string{"enrollment_id", "status", "schedule_id", "day", "start_time", "end_time", "section_id", "section_name", "subject_code", "subject_name", "instructor_id", "instructor"}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.student_id = $1 AND e.status = $2")).
		WithArgs("s1", string(models.EnrollmentStatusEnrolled)).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("e1", "Enrolled", "t1", "Monday", "08:00:00", "09:00:00", "sec1", "A", "MATH201", "Calculus II", nil, nil))

	rows, err := repo.ListForStudent(context.Background(), "s1", true)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, models.EnrollmentStatusEnrolled, rows[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}
