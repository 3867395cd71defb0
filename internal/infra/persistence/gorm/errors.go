// Package gormpersistence implements the repository interfaces on gorm with
// the sqlite driver.
package gormpersistence

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

// isUniqueViolation reports whether a sqlite error is a unique (or primary
// key) constraint failure. The dedup gates rely on this to turn constraint
// violations into repository.ErrDuplicateEntry.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
