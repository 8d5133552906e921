// Package database defines the storage contracts for the check-in service:
// the student roster and the durable attendance ledger. Implementations live
// in the postgres, mariadb and mock subpackages.
package database

import (
	"context"

	"github.com/kozaktomas/face-checkin/internal/verify"
)

// StudentReader provides read-only access to the enrolled roster.
type StudentReader interface {
	// Get retrieves a student by their external id, nil if not found.
	Get(ctx context.Context, studentID string) (*Student, error)
	// GetByName retrieves a student by display name. Names are normalized
	// before comparison (lowercase, no diacritics, dashes to spaces) so
	// "jan-novak" matches "Jan Novák". Returns nil if not found.
	GetByName(ctx context.Context, name string) (*Student, error)
	// List returns all enrolled students ordered by enrollment time.
	List(ctx context.Context) ([]Student, error)
	// Count returns the number of enrolled students.
	Count(ctx context.Context) (int, error)
}

// StudentWriter provides write access to the roster.
type StudentWriter interface {
	StudentReader

	// Save enrolls a student or replaces their encoding, returning the row id.
	Save(ctx context.Context, s Student) (int64, error)
	// Delete removes a student from the roster.
	Delete(ctx context.Context, studentID string) error
}

// AttendanceLedger is the durable attendance store. It extends the engine's
// ledger contract with the query surface the presentation layer needs.
// Commit must be atomic under concurrent writers: the database-level unique
// constraint on (student, day) is the source of truth, and losing the race
// surfaces as verify.ErrAlreadyMarked.
type AttendanceLedger interface {
	verify.Ledger

	// ListDay returns the records for one calendar day, newest first.
	ListDay(ctx context.Context, day verify.Day) ([]AttendanceRecord, error)
	// ExportRange returns the records between two days inclusive.
	ExportRange(ctx context.Context, from, to verify.Day) ([]AttendanceRecord, error)
}
