package models

// GradeStatus is the recorded outcome of a finished subject.
type GradeStatus string

const (
	GradeStatusPassed     GradeStatus = "Passed"
	GradeStatusFailed     GradeStatus = "Failed"
	GradeStatusDropped    GradeStatus = "Dropped"
	GradeStatusIncomplete GradeStatus = "Incomplete"
)

// Grade is a historical record; this service only reads them.
type Grade struct {
	StudentID   string      `db:"student_id" json:"student_id"`
	SubjectCode string      `db:"subject_code" json:"subject_code"`
	Status      GradeStatus `db:"status" json:"status"`
}
