package models

// Subject represents an academic subject offered in a given year and semester.
type Subject struct {
	Code      string `db:"code" json:"subject_code"`
	Name      string `db:"name" json:"subject_name"`
	Units     int    `db:"units" json:"units"`
	YearLevel int    `db:"year_level" json:"year_level"`
	Semester  string `db:"semester" json:"semester"`
}

// Prerequisite is one edge of the subject prerequisite graph.
type Prerequisite struct {
	SubjectCode string `db:"subject_code" json:"subject_code"`
	PrereqCode  string `db:"prereq_code" json:"prereq_code"`
}
