package service

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/panchi64/attendance-tracker/internal/domain"
	"github.com/panchi64/attendance-tracker/internal/dto"
	"github.com/panchi64/attendance-tracker/internal/repository"
)

// Broadcaster delivers a fresh present count to every dashboard watching a
// course. Implemented by the hub; delivery is fire-and-forget and its outcome
// never affects the submission that triggered it.
type Broadcaster interface {
	BroadcastCount(courseID string, presentCount int64)
}

// AttendanceService runs the submission pipeline: code check, device claim,
// student check, record, count, broadcast — strictly in that order, with an
// early exit at every step so a rejected submission leaves no side effects
// past the step that rejected it.
type AttendanceService struct {
	codes          *CodeService
	attendanceRepo repository.AttendanceRepository
	deviceRepo     repository.DeviceSubmissionRepository
	broadcaster    Broadcaster
}

func NewAttendanceService(
	codes *CodeService,
	attendanceRepo repository.AttendanceRepository,
	deviceRepo repository.DeviceSubmissionRepository,
	broadcaster Broadcaster,
) *AttendanceService {
	if codes == nil || attendanceRepo == nil || deviceRepo == nil {
		panic("all dependencies must be non-nil for AttendanceService")
	}
	if broadcaster == nil {
		panic("Broadcaster cannot be nil for AttendanceService")
	}
	return &AttendanceService{
		codes:          codes,
		attendanceRepo: attendanceRepo,
		deviceRepo:     deviceRepo,
		broadcaster:    broadcaster,
	}
}

// Submit processes one attendance claim. clientIP is the submitting device's
// network address as seen by the server.
func (s *AttendanceService) Submit(ctx context.Context, sub dto.AttendanceSubmission, clientIP string) (*domain.AttendanceRecord, error) {
	logCtx := logrus.WithFields(logrus.Fields{
		"course_id":  sub.CourseID,
		"student_id": sub.StudentID,
	})

	ip := normalizeIP(clientIP)
	if ip == "" {
		logCtx.Warn("Submission without a resolvable client IP")
		return nil, ErrBadInput
	}

	// 1. Code validity. A bad code exits before any claim row is consumed.
	if err := s.codes.Validate(ctx, sub.CourseID, sub.ConfirmationCode); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	today := domain.Day(now)

	// 2. Device claim. The insert either wins the (course, ip, day) slot or
	// loses it to an earlier submission; there is no racy read-then-check.
	if err := s.deviceRepo.InsertClaim(ctx, sub.CourseID, ip, today); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			logCtx.WithField("client_ip", ip).Info("Device already submitted today")
			return nil, ErrDeviceConflict
		}
		logCtx.WithError(err).Error("Failed to insert device claim")
		return nil, ErrInternalServer
	}

	// 3. Student check. Fast path; the unique index on the record insert
	// below backstops it under concurrency.
	seen, err := s.attendanceRepo.HasStudentRecordToday(ctx, sub.CourseID, sub.StudentID, today)
	if err != nil {
		logCtx.WithError(err).Error("Failed to check existing attendance")
		return nil, ErrInternalServer
	}
	if seen {
		return nil, ErrStudentConflict
	}

	// 4. Record. Timestamp comes from the server clock, never the client.
	record := &domain.AttendanceRecord{
		ID:             uuid.NewString(),
		CourseID:       sub.CourseID,
		StudentID:      sub.StudentID,
		AttendanceDate: today,
		StudentName:    sub.StudentName,
		Timestamp:      now,
		SubmittedCode:  sub.ConfirmationCode,
		IPAddress:      ip,
	}
	if err := s.attendanceRepo.Insert(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			// Two submissions for the same student raced past the check
			// above; the constraint picked the winner.
			return nil, ErrStudentConflict
		}
		logCtx.WithError(err).Error("Failed to insert attendance record")
		return nil, ErrInternalServer
	}

	// 5. Count and broadcast. The submission is already durable; a count or
	// delivery failure downgrades to a log line, never to a caller error.
	count, err := s.attendanceRepo.CountDistinctStudentsToday(ctx, sub.CourseID, today)
	if err != nil {
		logCtx.WithError(err).Error("Failed to count attendance after record; skipping broadcast")
		return record, nil
	}
	s.broadcaster.BroadcastCount(sub.CourseID, count)

	logCtx.WithField("present_count", count).Info("Attendance recorded")
	return record, nil
}

// CountToday returns the number of distinct students present for the course
// on the current UTC day.
func (s *AttendanceService) CountToday(ctx context.Context, courseID string) (int64, error) {
	count, err := s.attendanceRepo.CountDistinctStudentsToday(ctx, courseID, domain.Day(time.Now().UTC()))
	if err != nil {
		logrus.WithError(err).WithField("course_id", courseID).Error("Failed to count attendance")
		return 0, ErrInternalServer
	}
	return count, nil
}

// normalizeIP strips a port if present and returns the bare address, or ""
// when the input is unusable as a dedup key.
func normalizeIP(addr string) string {
	if addr == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	if ip := net.ParseIP(addr); ip != nil {
		return ip.String()
	}
	return ""
}
