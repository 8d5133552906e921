package mariadb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kozaktomas/face-checkin/internal/database"
	"github.com/kozaktomas/face-checkin/internal/match"
)

// StudentRepository provides MariaDB-backed roster storage.
type StudentRepository struct {
	pool *Pool
}

// NewStudentRepository creates a new MariaDB student repository.
func NewStudentRepository(pool *Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

const studentColumns = "id, student_id, name, encoding, created_at"

func scanStudent(row interface{ Scan(...any) error }) (*database.Student, error) {
	var s database.Student
	var blob []byte
	if err := row.Scan(&s.ID, &s.StudentID, &s.Name, &blob, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.Encoding = decodeVector(blob)
	return &s, nil
}

// Get retrieves a student by their external id, nil if not found.
func (r *StudentRepository) Get(ctx context.Context, studentID string) (*database.Student, error) {
	row := r.pool.db.QueryRowContext(ctx,
		"SELECT "+studentColumns+" FROM students WHERE student_id = ?", studentID)
	s, err := scanStudent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	return s, nil
}

// GetByName retrieves a student by display name. MariaDB has no unaccent,
// so normalization happens in Go over the full roster; rosters are small.
func (r *StudentRepository) GetByName(ctx context.Context, name string) (*database.Student, error) {
	students, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	normalized := match.NormalizeName(name)
	for i := range students {
		if match.NormalizeName(students[i].Name) == normalized {
			return &students[i], nil
		}
	}
	return nil, nil
}

// List returns all enrolled students ordered by enrollment time.
func (r *StudentRepository) List(ctx context.Context) ([]database.Student, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		"SELECT "+studentColumns+" FROM students ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var students []database.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}
	return students, nil
}

// Count returns the number of enrolled students.
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM students").Scan(&count); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}

// Save enrolls a student or replaces their encoding and name.
func (r *StudentRepository) Save(ctx context.Context, s database.Student) (int64, error) {
	result, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO students (student_id, name, encoding)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE name = VALUES(name), encoding = VALUES(encoding)
	`, s.StudentID, s.Name, encodeVector(s.Encoding))
	if err != nil {
		return 0, fmt.Errorf("save student: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("save student id: %w", err)
	}
	return id, nil
}

// Delete removes a student from the roster.
func (r *StudentRepository) Delete(ctx context.Context, studentID string) error {
	if _, err := r.pool.db.ExecContext(ctx,
		"DELETE FROM students WHERE student_id = ?", studentID); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}
