package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/face-checkin/internal/database"
	"github.com/kozaktomas/face-checkin/internal/match"
)

// StudentRepository provides PostgreSQL-backed roster storage. Encodings are
// stored in a pgvector column so similarity queries stay available even
// without the in-memory index.
type StudentRepository struct {
	pool *Pool
}

// NewStudentRepository creates a new PostgreSQL student repository.
func NewStudentRepository(pool *Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

const studentColumns = "id, student_id, name, encoding, created_at"

// scanStudent scans one student row.
func scanStudent(row interface{ Scan(...any) error }) (*database.Student, error) {
	var s database.Student
	var enc pgvector.Vector
	if err := row.Scan(&s.ID, &s.StudentID, &s.Name, &enc, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.Encoding = enc.Slice()
	return &s, nil
}

// Get retrieves a student by their external id, nil if not found.
func (r *StudentRepository) Get(ctx context.Context, studentID string) (*database.Student, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+studentColumns+" FROM students WHERE student_id = $1", studentID)
	s, err := scanStudent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	return s, nil
}

// GetByName retrieves a student by display name. Names are normalized on
// both sides (lowercase, no diacritics, dashes to spaces) so slugs match
// display names.
func (r *StudentRepository) GetByName(ctx context.Context, name string) (*database.Student, error) {
	normalized := match.NormalizeName(name)
	row := r.pool.QueryRow(ctx,
		"SELECT "+studentColumns+" FROM students WHERE LOWER(REPLACE(unaccent(name), '-', ' ')) = $1",
		normalized)
	s, err := scanStudent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get student by name: %w", err)
	}
	return s, nil
}

// List returns all enrolled students ordered by enrollment time.
func (r *StudentRepository) List(ctx context.Context) ([]database.Student, error) {
	rows, err := r.pool.Query(ctx,
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
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM students").Scan(&count); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}

// Save enrolls a student or replaces their encoding and name.
func (r *StudentRepository) Save(ctx context.Context, s database.Student) (int64, error) {
	query := `
		INSERT INTO students (student_id, name, encoding)
		VALUES ($1, $2, $3)
		ON CONFLICT (student_id) DO UPDATE SET
			name = EXCLUDED.name,
			encoding = EXCLUDED.encoding
		RETURNING id
	`
	var id int64
	err := r.pool.QueryRow(ctx, query, s.StudentID, s.Name, pgvector.NewVector(s.Encoding)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save student: %w", err)
	}
	return id, nil
}

// Delete removes a student from the roster.
func (r *StudentRepository) Delete(ctx context.Context, studentID string) error {
	if _, err := r.pool.Exec(ctx, "DELETE FROM students WHERE student_id = $1", studentID); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}
