package models

// DashboardTotals aggregates an instructor's load.
type DashboardTotals struct {
	TotalStudents int `db:"total_students" json:"total_students"`
	TotalSubjects int `db:"total_subjects" json:"total_subjects"`
	TotalClasses  int `db:"total_classes" json:"total_classes"`
}

// DashboardOverview is the admin landing payload.
type DashboardOverview struct {
	Totals   DashboardTotals `json:"totals"`
	Sections []SectionInfo   `json:"subjects"`
}
