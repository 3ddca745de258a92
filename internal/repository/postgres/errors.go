package postgres

import (
	"database/sql"
	"strings"

	"github.com/spartanofurioso/platform/internal/pkg/errors"
)

// isUniqueViolation recognises unique constraint failures from lib/pq and sqlite
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// wrapWrite maps a failed insert or update to a conflict or database error
func wrapWrite(err error, resource, message string) error {
	if isUniqueViolation(err) {
		return errors.Conflict(resource + " already exists")
	}
	return errors.DatabaseError(message, err)
}

// checkAffected returns NotFound when an update or delete touched no rows
func checkAffected(res sql.Result, resource string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to read affected rows", err)
	}
	if n == 0 {
		return errors.NotFound(resource)
	}
	return nil
}
