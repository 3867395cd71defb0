package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/panchi64/attendance-tracker/internal/domain"
	"github.com/panchi64/attendance-tracker/internal/repository"
)

const (
	codeLength   = 6
	codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// CodeService owns the confirmation-code lifecycle: rotation on a fixed
// cadence, validation of submitted codes, and the dashboard's current-code
// view. Codes are scoped per course; collisions across courses are fine.
type CodeService struct {
	courseRepo    repository.CourseRepository
	interval      time.Duration
	caseSensitive bool
}

// NewCodeService creates a CodeService. interval is both the rotation cadence
// and the validity window of each generated code. caseSensitive controls how
// submitted codes are compared against the stored (uppercase) code; the
// default deployment compares case-insensitively.
func NewCodeService(courseRepo repository.CourseRepository, interval time.Duration, caseSensitive bool) *CodeService {
	if courseRepo == nil {
		panic("CourseRepository cannot be nil for CodeService")
	}
	if interval <= 0 {
		panic("rotation interval must be positive for CodeService")
	}
	return &CodeService{
		courseRepo:    courseRepo,
		interval:      interval,
		caseSensitive: caseSensitive,
	}
}

// Interval returns the configured rotation interval.
func (s *CodeService) Interval() time.Duration {
	return s.interval
}

// GenerateAndStore creates a fresh code for the course and overwrites any
// previous one. The old code stops validating immediately; there is no grace
// window where both codes work.
func (s *CodeService) GenerateAndStore(ctx context.Context, courseID string) (*domain.ActiveCode, error) {
	code, err := generateCode()
	if err != nil {
		logrus.WithError(err).Error("Failed to generate confirmation code")
		return nil, ErrInternalServer
	}
	expiresAt := time.Now().UTC().Add(s.interval)

	if err := s.courseRepo.SetActiveCode(ctx, courseID, code, expiresAt); err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return nil, ErrCourseNotFound
		}
		logrus.WithError(err).WithField("course_id", courseID).Error("Failed to store confirmation code")
		return nil, ErrInternalServer
	}
	return &domain.ActiveCode{Code: code, ExpiresAt: expiresAt}, nil
}

// RotateAll runs one rotation pass over every known course. A failure for one
// course is logged and does not stop the pass for the others.
func (s *CodeService) RotateAll(ctx context.Context) {
	log := logrus.WithField("component", "code_rotator")

	courseIDs, err := s.courseRepo.ListIDs(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list courses for code rotation")
		return
	}
	if len(courseIDs) == 0 {
		log.Debug("No courses found, skipping code rotation pass")
		return
	}

	for _, courseID := range courseIDs {
		if _, err := s.GenerateAndStore(ctx, courseID); err != nil {
			log.WithError(err).WithField("course_id", courseID).Error("Failed to rotate confirmation code")
			continue
		}
		log.WithField("course_id", courseID).Debug("Rotated confirmation code")
	}
}

// RunRotation performs one immediate rotation pass so no course is without a
// code after boot, then rotates on the configured interval until ctx is
// cancelled. Run it in its own goroutine.
func (s *CodeService) RunRotation(ctx context.Context) {
	log := logrus.WithField("component", "code_rotator")
	log.Infof("Confirmation code rotator starting (interval: %s)", s.interval)

	s.RotateAll(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("Confirmation code rotator stopping")
			return
		case <-ticker.C:
			s.RotateAll(ctx)
		}
	}
}

// Validate decides whether a submitted code is currently valid for a course.
// Order of checks: course existence, code presence, expiry, then equality.
func (s *CodeService) Validate(ctx context.Context, courseID, submitted string) error {
	active, err := s.courseRepo.GetActiveCode(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return ErrCourseNotFound
		}
		logrus.WithError(err).WithField("course_id", courseID).Error("Failed to fetch active code")
		return ErrInternalServer
	}
	// No code ever generated for this course: the submitted one cannot match.
	if active == nil {
		return ErrInvalidCode
	}
	if active.Expired(time.Now().UTC()) {
		return ErrExpiredCode
	}
	if !s.codesEqual(active.Code, submitted) {
		return ErrInvalidCode
	}
	return nil
}

// CodeStatus is the dashboard view of a course's current code.
type CodeStatus struct {
	Code            string
	ExpiresAt       time.Time
	IsValid         bool
	ProgressPercent float64
}

// CurrentCode returns the course's current code for dashboard display,
// generating a fresh one on demand when none exists or the stored one has
// expired. The returned progress percentage is a display concern only and
// never changes a validity verdict.
func (s *CodeService) CurrentCode(ctx context.Context, courseID string) (*CodeStatus, error) {
	active, err := s.courseRepo.GetActiveCode(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return nil, ErrCourseNotFound
		}
		logrus.WithError(err).WithField("course_id", courseID).Error("Failed to fetch active code")
		return nil, ErrInternalServer
	}

	now := time.Now().UTC()
	if active == nil || active.Expired(now) {
		logrus.WithField("course_id", courseID).Info("No valid confirmation code, generating on demand")
		active, err = s.GenerateAndStore(ctx, courseID)
		if err != nil {
			return nil, err
		}
	}

	return &CodeStatus{
		Code:            active.Code,
		ExpiresAt:       active.ExpiresAt,
		IsValid:         !active.Expired(now),
		ProgressPercent: progressPercent(now, active.ExpiresAt, s.interval),
	}, nil
}

func (s *CodeService) codesEqual(stored, submitted string) bool {
	if s.caseSensitive {
		return stored == submitted
	}
	return strings.EqualFold(stored, submitted)
}

// progressPercent maps remaining validity onto 0..100 for the dashboard
// countdown: 100 right after a rotation, 0 at or past expiry.
func progressPercent(now, expiresAt time.Time, interval time.Duration) float64 {
	remaining := expiresAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	fraction := float64(remaining) / float64(interval)
	if fraction > 1 {
		fraction = 1
	}
	return fraction * 100
}

// generateCode draws codeLength characters uniformly from codeAlphabet.
func generateCode() (string, error) {
	return codeFromRandom(rand.Reader)
}

func codeFromRandom(r io.Reader) (string, error) {
	// Bytes at or above this wrap the alphabet unevenly and are redrawn,
	// keeping every character equally likely.
	const rejectAbove = byte(256 - 256%len(codeAlphabet))

	code := make([]byte, 0, codeLength)
	buf := make([]byte, codeLength)
	for len(code) < codeLength {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", fmt.Errorf("failed to generate random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= rejectAbove {
				continue
			}
			code = append(code, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(code) == codeLength {
				break
			}
		}
	}
	return string(code), nil
}
