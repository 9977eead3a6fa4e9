package models

import "time"

// Announcement is a message posted by an admin, optionally scoped to one
// schedule or one subject. Both scopes empty means the announcement is
// visible to everyone.
type Announcement struct {
	ID          string     `db:"id" json:"announcement_id"`
	AdminID     string     `db:"admin_id" json:"admin_id"`
	ScheduleID  *string    `db:"schedule_id" json:"schedule_id,omitempty"`
	SubjectCode *string    `db:"subject_code" json:"subject_code,omitempty"`
	Message     string     `db:"message" json:"message"`
	DatePosted  time.Time  `db:"date_posted" json:"date_posted"`
	ExpiryDate  *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
}

// AnnouncementDetail enriches an announcement with schedule and poster
// context for feed responses.
type AnnouncementDetail struct {
	Announcement
	Day         *string `db:"day" json:"day,omitempty"`
	StartTime   *string `db:"start_time" json:"start_time,omitempty"`
	EndTime     *string `db:"end_time" json:"end_time,omitempty"`
	SectionName *string `db:"section_name" json:"section_name,omitempty"`
	PostedBy    *string `db:"posted_by" json:"posted_by,omitempty"`
}

// AnnouncementScope is the resolved target of a new announcement.
type AnnouncementScope struct {
	ScheduleID  *string `db:"schedule_id"`
	SectionID   *string `db:"section_id"`
	SubjectCode *string `db:"subject_code"`
}
