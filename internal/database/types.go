package database

import (
	"time"

	"github.com/kozaktomas/face-checkin/internal/verify"
)

// Student is one enrolled person with their face encoding.
type Student struct {
	ID        int64
	StudentID string // external stable key (e.g. school id), unique
	Name      string
	Encoding  []float32
	CreatedAt time.Time
}

// Identity returns the student's engine identity.
func (s Student) Identity() verify.Identity {
	return verify.Identity{ID: s.StudentID, Name: s.Name}
}

// AttendanceRecord is one committed check-in. Records are append-only and
// unique per (student, day); the engine never mutates or deletes them.
type AttendanceRecord struct {
	ID        int64
	StudentID string
	Name      string // display name joined from the roster, empty if unenrolled
	Day       verify.Day
	MarkedAt  time.Time
}
