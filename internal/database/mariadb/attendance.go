package mariadb

import (
	"context"
	"fmt"
	"time"

	"github.com/kozaktomas/face-checkin/internal/database"
	"github.com/kozaktomas/face-checkin/internal/verify"
)

// AttendanceRepository provides the MariaDB-backed attendance ledger.
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new MariaDB attendance ledger.
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// Marked reports whether attendance is already recorded for the day.
func (r *AttendanceRepository) Marked(ctx context.Context, identityID string, day verify.Day) (bool, error) {
	var exists bool
	err := r.pool.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM attendance WHERE student_id = ? AND day = ?)",
		identityID, string(day)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check attendance: %w", err)
	}
	return exists, nil
}

// Commit appends the attendance record. INSERT IGNORE leans on the unique
// key: losing a concurrent race affects zero rows, which maps to
// verify.ErrAlreadyMarked.
func (r *AttendanceRepository) Commit(ctx context.Context, identityID string, day verify.Day, at time.Time) error {
	result, err := r.pool.db.ExecContext(ctx, `
		INSERT IGNORE INTO attendance (student_id, day, marked_at)
		VALUES (?, ?, ?)
	`, identityID, string(day), at)
	if err != nil {
		return fmt.Errorf("commit attendance: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("commit attendance rows affected: %w", err)
	}
	if affected == 0 {
		return verify.ErrAlreadyMarked
	}
	return nil
}

const recordQuery = `
	SELECT a.id, a.student_id, COALESCE(s.name, ''), a.day, a.marked_at
	FROM attendance a
	LEFT JOIN students s ON s.student_id = a.student_id
`

func (r *AttendanceRepository) scanRecords(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]database.AttendanceRecord, error) {
	var records []database.AttendanceRecord
	for rows.Next() {
		var rec database.AttendanceRecord
		var day time.Time
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.Name, &day, &rec.MarkedAt); err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		rec.Day = verify.DayOf(day)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance records: %w", err)
	}
	return records, nil
}

// ListDay returns the records for one calendar day, newest first.
func (r *AttendanceRepository) ListDay(ctx context.Context, day verify.Day) ([]database.AttendanceRecord, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		recordQuery+" WHERE a.day = ? ORDER BY a.marked_at DESC", string(day))
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()
	return r.scanRecords(rows)
}

// ExportRange returns the records between two days inclusive.
func (r *AttendanceRepository) ExportRange(ctx context.Context, from, to verify.Day) ([]database.AttendanceRecord, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		recordQuery+" WHERE a.day BETWEEN ? AND ? ORDER BY a.day DESC, a.marked_at DESC",
		string(from), string(to))
	if err != nil {
		return nil, fmt.Errorf("export attendance: %w", err)
	}
	defer rows.Close()
	return r.scanRecords(rows)
}
