package repository

import (
	"context"

	"github.com/panchi64/attendance-tracker/internal/domain"
)

// AttendanceRepository stores attendance records and answers the per-day
// presence questions the submission pipeline asks.
type AttendanceRepository interface {
	// Insert writes exactly one record. Returns ErrDuplicateEntry when the
	// (course, student, day) uniqueness constraint rejects it.
	Insert(ctx context.Context, record *domain.AttendanceRecord) error

	// CountDistinctStudentsToday returns the number of distinct student ids
	// with a record for the course on the given UTC day. Distinct, not a row
	// count, so the present count stays correct even if duplicate rows ever
	// slipped past the guards.
	CountDistinctStudentsToday(ctx context.Context, courseID, day string) (int64, error)

	// HasStudentRecordToday reports whether the student already has a record
	// for the course on the given UTC day.
	HasStudentRecordToday(ctx context.Context, courseID, studentID, day string) (bool, error)
}

// DeviceSubmissionRepository is the device-level dedup gate.
type DeviceSubmissionRepository interface {
	// InsertClaim atomically claims (course, ip, day). ErrDuplicateEntry
	// means the device already submitted today; there is deliberately no
	// read-then-check variant because two concurrent readers would both see
	// "not claimed".
	InsertClaim(ctx context.Context, courseID, ipAddress, day string) error

	// PurgeBefore deletes claims from days strictly before the given UTC day
	// and returns how many rows went away.
	PurgeBefore(ctx context.Context, day string) (int64, error)
}
