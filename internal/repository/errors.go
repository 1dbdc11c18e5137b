// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// booking services and handlers to distinguish between different failure
// scenarios without inspecting driver errors.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state, such as deleting a flight that tickets
// still reference. Handlers should translate this into an HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrDuplicate is returned when an insert or update violates a unique key.
var ErrDuplicate = errors.New("duplicate key")

// ErrStaleState is returned by conditional updates whose guard no longer
// holds because another request changed the row first.
var ErrStaleState = errors.New("row changed concurrently")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isDuplicate reports whether err is a unique-key violation from MySQL or
// SQLite.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
