// Package domain defines the persistent data structures of the attendance
// tracker core.
package domain

import "time"

// Course is the externally owned entity attendance is recorded against. The
// core only touches its identity and its active confirmation code; the rest
// of the course record (professor, sections, logo, ...) belongs to the CRUD
// layer and is not modeled here.
type Course struct {
	ID   string `gorm:"type:uuid;primaryKey"`
	Name string `gorm:"size:191;uniqueIndex;not null"`

	// Current confirmation code, stored directly on the course row so a
	// rotation is a plain overwrite. NULL until the first rotation.
	ConfirmationCode          *string    `gorm:"size:12"`
	ConfirmationCodeExpiresAt *time.Time

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// ActiveCode is the current code/expiry pair for one course. At most one
// exists per course at any time.
type ActiveCode struct {
	Code      string
	ExpiresAt time.Time
}

// Expired reports whether the code is no longer valid at the given instant.
// A code expiring exactly now is treated as expired.
func (c ActiveCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
