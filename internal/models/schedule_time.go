package models

import (
	"strconv"
	"strings"
)

// Days of the teaching week, in timetable order.
const (
	DayMonday    = "Monday"
	DayTuesday   = "Tuesday"
	DayWednesday = "Wednesday"
	DayThursday  = "Thursday"
	DayFriday    = "Friday"
	DaySaturday  = "Saturday"
)

var dayRank = map[string]int{
	DayMonday:    1,
	DayTuesday:   2,
	DayWednesday: 3,
	DayThursday:  4,
	DayFriday:    5,
	DaySaturday:  6,
}

// DayRank returns the timetable position of a day, Monday first. Unknown
// days sort last.
func DayRank(day string) int {
	if rank, ok := dayRank[day]; ok {
		return rank
	}
	return len(dayRank) + 1
}

// ClockSeconds converts a wall-clock "HH:MM:SS" string to seconds since
// midnight. A missing seconds component is treated as zero.
func ClockSeconds(clock string) int {
	parts := strings.Split(clock, ":")
	total := 0
	multipliers := []int{3600, 60, 1}
	for i, m := range multipliers {
		if i >= len(parts) {
			break
		}
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return 0
		}
		total += n * m
	}
	return total
}

// ScheduleTime is one (day, start, end) meeting instance of a section.
// Times are wall-clock "HH:MM:SS" strings.
type ScheduleTime struct {
	ID        string `db:"id" json:"schedule_id"`
	SectionID string `db:"section_id" json:"section_id"`
	Day       string `db:"day" json:"day"`
	StartTime string `db:"start_time" json:"start_time"`
	EndTime   string `db:"end_time" json:"end_time"`
}

// Overlaps reports whether two meeting times collide. Intervals are
// half-open: slots that share only a boundary do not overlap.
func (t ScheduleTime) Overlaps(other ScheduleTime) bool {
	if t.Day != other.Day {
		return false
	}
	s1, e1 := ClockSeconds(t.StartTime), ClockSeconds(t.EndTime)
	s2, e2 := ClockSeconds(other.StartTime), ClockSeconds(other.EndTime)
	return s1 < e2 && s2 < e1
}

// ScheduleDetail is a meeting time joined with its section, subject and
// instructor context.
type ScheduleDetail struct {
	ScheduleID   string  `db:"schedule_id" json:"schedule_id"`
	Day          string  `db:"day" json:"day"`
	StartTime    string  `db:"start_time" json:"start_time"`
	EndTime      string  `db:"end_time" json:"end_time"`
	SectionID    string  `db:"section_id" json:"section_id"`
	SectionName  string  `db:"section_name" json:"section_name"`
	SubjectCode  string  `db:"subject_code" json:"subject_code"`
	SubjectName  string  `db:"subject_name" json:"subject_name"`
	InstructorID *string `db:"instructor_id" json:"instructor_id,omitempty"`
	Instructor   *string `db:"instructor" json:"instructor,omitempty"`
}

// StudentScheduleRow is one row of a student's timetable.
type StudentScheduleRow struct {
	EnrollmentID string           `db:"enrollment_id" json:"enrollment_id"`
	Status       EnrollmentStatus `db:"status" json:"status"`
	ScheduleID   string           `db:"schedule_id" json:"schedule_id"`
	Day          string           `db:"day" json:"day"`
	StartTime    string           `db:"start_time" json:"start_time"`
	EndTime      string           `db:"end_time" json:"end_time"`
	SectionID    string           `db:"section_id" json:"section_id"`
	SectionName  string           `db:"section_name" json:"section_name"`
	SubjectCode  string           `db:"subject_code" json:"subject_code"`
	SubjectName  string           `db:"subject_name" json:"subject_name"`
	InstructorID *string          `db:"instructor_id" json:"instructor_id,omitempty"`
	Instructor   *string          `db:"instructor" json:"instructor,omitempty"`
}
