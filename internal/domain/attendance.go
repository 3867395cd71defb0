package domain

import "time"

// DayFormat is the layout of the UTC calendar-day strings used by the
// per-day uniqueness constraints.
const DayFormat = "2006-01-02"

// Day truncates an instant to its UTC calendar day.
func Day(t time.Time) string {
	return t.UTC().Format(DayFormat)
}

// AttendanceRecord is one student's presence in one course on one day.
// Records are written once and never mutated. The composite unique index on
// (course_id, student_id, attendance_date) makes a second record for the same
// student on the same day a constraint violation rather than a logic bug.
type AttendanceRecord struct {
	ID             string    `gorm:"type:uuid;primaryKey"`
	CourseID       string    `gorm:"type:uuid;not null;index;uniqueIndex:idx_attendance_student_day"`
	StudentID      string    `gorm:"size:64;not null;uniqueIndex:idx_attendance_student_day"`
	AttendanceDate string    `gorm:"size:10;not null;uniqueIndex:idx_attendance_student_day"`
	StudentName    string    `gorm:"size:191;not null"`
	Timestamp      time.Time `gorm:"not null;index"`
	SubmittedCode  string    `gorm:"size:12;not null"`
	IPAddress      string    `gorm:"size:45"`
}

// DeviceSubmission is the race-free dedup gate: one row per
// (course, IP, day). The insert either succeeds and claims the device for the
// day, or fails the unique constraint because another submission got there
// first. Rows are never updated; a background task purges old days.
type DeviceSubmission struct {
	ID             uint      `gorm:"primaryKey"`
	CourseID       string    `gorm:"type:uuid;not null;uniqueIndex:idx_device_claim"`
	IPAddress      string    `gorm:"size:45;not null;uniqueIndex:idx_device_claim"`
	SubmissionDate string    `gorm:"size:10;not null;uniqueIndex:idx_device_claim"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}
