package repository

import (
	"context"
	"time"

	"github.com/panchi64/attendance-tracker/internal/domain"
)

// CourseRepository is the code-store contract: current code + expiry per
// course, plus the course lookups the rotation loop and the validators need.
type CourseRepository interface {
	// FindByID returns the course or ErrCourseNotFound.
	FindByID(ctx context.Context, id string) (*domain.Course, error)

	// ListIDs returns the ids of every known course. Used by the rotation
	// pass; an empty slice is a valid result.
	ListIDs(ctx context.Context) ([]string, error)

	// GetActiveCode returns the course's current code, or (nil, nil) when no
	// code has ever been generated for it. ErrCourseNotFound when the course
	// itself is unknown, which callers must treat differently.
	GetActiveCode(ctx context.Context, courseID string) (*domain.ActiveCode, error)

	// SetActiveCode overwrites the course's code and expiry unconditionally.
	// Rotation is an upsert onto the course row, never an append, so the
	// previous code stops validating the moment this returns.
	SetActiveCode(ctx context.Context, courseID, code string, expiresAt time.Time) error
}
