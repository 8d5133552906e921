// Package mock provides in-memory implementations of the database interfaces
// for testing.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/kozaktomas/face-checkin/internal/database"
	"github.com/kozaktomas/face-checkin/internal/match"
	"github.com/kozaktomas/face-checkin/internal/verify"
)

// MockStudentStore is a mock implementation of database.StudentWriter.
type MockStudentStore struct {
	mu       sync.RWMutex
	students map[string]*database.Student
	counter  int64

	// Error injection
	GetError    error
	ListError   error
	CountError  error
	SaveError   error
	DeleteError error
}

// NewMockStudentStore creates a new mock student store.
func NewMockStudentStore() *MockStudentStore {
	return &MockStudentStore{
		students: make(map[string]*database.Student),
	}
}

// AddStudent adds a student to the mock store without going through Save.
func (m *MockStudentStore) AddStudent(s database.Student) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students[s.StudentID] = &s
}

// Get retrieves a student by their external id, nil if not found.
func (m *MockStudentStore) Get(ctx context.Context, studentID string) (*database.Student, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.students[studentID], nil
}

// GetByName retrieves a student by normalized display name.
func (m *MockStudentStore) GetByName(ctx context.Context, name string) (*database.Student, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	normalized := match.NormalizeName(name)
	for _, s := range m.students {
		if match.NormalizeName(s.Name) == normalized {
			return s, nil
		}
	}
	return nil, nil
}

// List returns all enrolled students ordered by enrollment time.
func (m *MockStudentStore) List(ctx context.Context) ([]database.Student, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	students := make([]database.Student, 0, len(m.students))
	for _, s := range m.students {
		students = append(students, *s)
	}
	sortStudents(students)
	return students, nil
}

// Count returns the number of enrolled students.
func (m *MockStudentStore) Count(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.students), nil
}

// Save enrolls a student or replaces their encoding and name.
func (m *MockStudentStore) Save(ctx context.Context, s database.Student) (int64, error) {
	if m.SaveError != nil {
		return 0, m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.students[s.StudentID]; ok {
		existing.Name = s.Name
		existing.Encoding = s.Encoding
		return existing.ID, nil
	}
	m.counter++
	s.ID = m.counter
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	m.students[s.StudentID] = &s
	return s.ID, nil
}

// Delete removes a student from the roster.
func (m *MockStudentStore) Delete(ctx context.Context, studentID string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.students, studentID)
	return nil
}

func sortStudents(students []database.Student) {
	for i := 1; i < len(students); i++ {
		for j := i; j > 0 && students[j].CreatedAt.Before(students[j-1].CreatedAt); j-- {
			students[j], students[j-1] = students[j-1], students[j]
		}
	}
}

// CommitCall tracks a Commit call.
type CommitCall struct {
	IdentityID string
	Day        verify.Day
	At         time.Time
}

// MockLedger is a mock implementation of database.AttendanceLedger.
type MockLedger struct {
	mu      sync.RWMutex
	records map[string]database.AttendanceRecord // keyed by identityID|day
	counter int64

	// Track calls
	CommitCalls []CommitCall

	// Error injection
	MarkedError error
	CommitError error
	ListError   error
	ExportError error
}

// NewMockLedger creates a new mock attendance ledger.
func NewMockLedger() *MockLedger {
	return &MockLedger{
		records: make(map[string]database.AttendanceRecord),
	}
}

func ledgerKey(identityID string, day verify.Day) string {
	return identityID + "|" + string(day)
}

// Marked reports whether attendance is already recorded for the day.
func (m *MockLedger) Marked(ctx context.Context, identityID string, day verify.Day) (bool, error) {
	if m.MarkedError != nil {
		return false, m.MarkedError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.records[ledgerKey(identityID, day)]
	return ok, nil
}

// Commit appends the attendance record, verify.ErrAlreadyMarked on replay.
func (m *MockLedger) Commit(ctx context.Context, identityID string, day verify.Day, at time.Time) error {
	if m.CommitError != nil {
		return m.CommitError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CommitCalls = append(m.CommitCalls, CommitCall{IdentityID: identityID, Day: day, At: at})
	key := ledgerKey(identityID, day)
	if _, ok := m.records[key]; ok {
		return verify.ErrAlreadyMarked
	}
	m.counter++
	m.records[key] = database.AttendanceRecord{
		ID:        m.counter,
		StudentID: identityID,
		Day:       day,
		MarkedAt:  at,
	}
	return nil
}

// AddRecord seeds the ledger with an existing record.
func (m *MockLedger) AddRecord(rec database.AttendanceRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	rec.ID = m.counter
	m.records[ledgerKey(rec.StudentID, rec.Day)] = rec
}

// RecordCount returns the number of committed records.
func (m *MockLedger) RecordCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// ListDay returns the records for one calendar day, newest first.
func (m *MockLedger) ListDay(ctx context.Context, day verify.Day) ([]database.AttendanceRecord, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var records []database.AttendanceRecord
	for _, rec := range m.records {
		if rec.Day == day {
			records = append(records, rec)
		}
	}
	sortRecords(records)
	return records, nil
}

// ExportRange returns the records between two days inclusive.
func (m *MockLedger) ExportRange(ctx context.Context, from, to verify.Day) ([]database.AttendanceRecord, error) {
	if m.ExportError != nil {
		return nil, m.ExportError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var records []database.AttendanceRecord
	for _, rec := range m.records {
		if string(rec.Day) >= string(from) && string(rec.Day) <= string(to) {
			records = append(records, rec)
		}
	}
	sortRecords(records)
	return records, nil
}

func sortRecords(records []database.AttendanceRecord) {
	for i := 1; i < len(records); i++ {
		for j := i; j > 0 && records[j].MarkedAt.After(records[j-1].MarkedAt); j-- {
			records[j], records[j-1] = records[j-1], records[j]
		}
	}
}

// Verify interface compliance
var _ database.StudentWriter = (*MockStudentStore)(nil)
var _ database.AttendanceLedger = (*MockLedger)(nil)
