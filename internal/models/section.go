package models

// ClassSection is a scheduled offering of a subject with one or more
// weekly meeting times.
type ClassSection struct {
	ID           string  `db:"id" json:"section_id"`
	SubjectCode  string  `db:"subject_code" json:"subject_code"`
	SectionName  string  `db:"section_name" json:"section_name"`
	InstructorID *string `db:"instructor_id" json:"instructor_id,omitempty"`
}

// SectionSubject carries the subject context of a section, used by the
// enrollment checks.
type SectionSubject struct {
	SectionID   string `db:"section_id" json:"section_id"`
	SubjectCode string `db:"subject_code" json:"subject_code"`
	SubjectName string `db:"subject_name" json:"subject_name"`
	Semester    string `db:"semester" json:"semester"`
	YearLevel   int    `db:"year_level" json:"year_level"`
}

// SectionSchedules is a section grouped with its meeting pattern, as served
// to students browsing a subject. Slots is the section's meeting times
// encoded "Day::HH:MM:SS::HH:MM:SS" and joined by "||", ordered
// Monday through Saturday.
type SectionSchedules struct {
	SectionID    string  `db:"section_id" json:"section_id"`
	SectionName  string  `db:"section_name" json:"section_name"`
	SubjectCode  string  `db:"subject_code" json:"subject_code"`
	SubjectName  string  `db:"subject_name" json:"subject_name"`
	InstructorID *string `db:"instructor_id" json:"instructor_id,omitempty"`
	Instructor   *string `db:"instructor" json:"instructor,omitempty"`
	Slots        string  `db:"slots" json:"slots"`
	FirstStart   string  `db:"first_start" json:"first_start"`
	LastEnd      string  `db:"last_end" json:"last_end"`
}

// SectionInfo is the instructor-facing view of a handled section.
type SectionInfo struct {
	SectionID   string `db:"section_id" json:"section_id"`
	SubjectCode string `db:"subject_code" json:"subject_code"`
	SubjectName string `db:"subject_name" json:"subject_name"`
	SectionName string `db:"section_name" json:"section_name"`
}
