package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses. Rows are never deleted, only moved from
// Pending to Enrolled or Dropped.
const (
	EnrollmentStatusPending  EnrollmentStatus = "Pending"
	EnrollmentStatusEnrolled EnrollmentStatus = "Enrolled"
	EnrollmentStatusDropped  EnrollmentStatus = "Dropped"
)

// Enrollment ties a student to one meeting time of a section. A request
// creates a single row referencing a representative schedule; approval
// fills in the section's remaining meeting times.
type Enrollment struct {
	ID          string           `db:"id" json:"enrollment_id"`
	StudentID   string           `db:"student_id" json:"student_id"`
	ScheduleID  string           `db:"schedule_id" json:"schedule_id"`
	SubjectCode string           `db:"subject_code" json:"subject_code"`
	Status      EnrollmentStatus `db:"status" json:"status"`
	RequestedAt time.Time        `db:"requested_at" json:"requested_at"`
	DecidedAt   *time.Time       `db:"decided_at" json:"decided_at,omitempty"`
}

// EnrollmentRequest is a pending request joined with the requesting student.
type EnrollmentRequest struct {
	EnrollmentID string `db:"enrollment_id" json:"enrollment_id"`
	StudentID    string `db:"student_id" json:"student_id"`
	Name         string `db:"name" json:"name"`
	Email        string `db:"email" json:"email"`
}

// EnrolledStudent is one member of a section roster.
type EnrolledStudent struct {
	StudentID string `db:"student_id" json:"student_id"`
	Name      string `db:"name" json:"name"`
	Email     string `db:"email" json:"email"`
}

// EnrollmentScope lists the schedule and subject a student is enrolled
// into, used to match scoped announcements.
type EnrollmentScope struct {
	ScheduleID  string `db:"schedule_id" json:"schedule_id"`
	SubjectCode string `db:"subject_code" json:"subject_code"`
}

// ApprovalContext resolves a pending enrollment to the student and owning
// section the approval workflow operates on.
type ApprovalContext struct {
	EnrollmentID string `db:"enrollment_id"`
	StudentID    string `db:"student_id"`
	SectionID    string `db:"section_id"`
}
