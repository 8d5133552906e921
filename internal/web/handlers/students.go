package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-checkin/internal/database"
	"github.com/kozaktomas/face-checkin/internal/match"
)

// StudentsHandler handles roster management endpoints.
type StudentsHandler struct {
	store   database.StudentWriter
	matcher *match.Matcher
}

// NewStudentsHandler creates a new students handler.
func NewStudentsHandler(store database.StudentWriter, matcher *match.Matcher) *StudentsHandler {
	return &StudentsHandler{store: store, matcher: matcher}
}

// StudentRequest represents the enrollment request body.
type StudentRequest struct {
	StudentID string    `json:"student_id"`
	Name      string    `json:"name"`
	Encoding  []float32 `json:"encoding"`
}

// StudentResponse represents one enrolled student. The raw encoding is not
// echoed back, only its dimensionality.
type StudentResponse struct {
	ID         int64     `json:"id"`
	StudentID  string    `json:"student_id"`
	Name       string    `json:"name"`
	Dimensions int       `json:"dimensions"`
	CreatedAt  time.Time `json:"created_at"`
}

func newStudentResponse(s database.Student) StudentResponse {
	return StudentResponse{
		ID:         s.ID,
		StudentID:  s.StudentID,
		Name:       s.Name,
		Dimensions: len(s.Encoding),
		CreatedAt:  s.CreatedAt,
	}
}

// List returns the enrolled roster.
func (h *StudentsHandler) List(w http.ResponseWriter, r *http.Request) {
	students, err := h.store.List(r.Context())
	if err != nil {
		log.Printf("Failed to list students: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list students")
		return
	}

	responses := make([]StudentResponse, 0, len(students))
	for _, s := range students {
		responses = append(responses, newStudentResponse(s))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"students": responses,
		"count":    len(responses),
	})
}

// Create enrolls a student (or replaces their encoding) and reindexes the
// matcher.
func (h *StudentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req StudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.StudentID == "" || req.Name == "" {
		respondError(w, http.StatusBadRequest, "student_id and name are required")
		return
	}
	if len(req.Encoding) == 0 {
		respondError(w, http.StatusBadRequest, "encoding is required")
		return
	}

	id, err := h.store.Save(r.Context(), database.Student{
		StudentID: req.StudentID,
		Name:      req.Name,
		Encoding:  req.Encoding,
	})
	if err != nil {
		log.Printf("Failed to save student %s: %v", sanitizeForLog(req.StudentID), err)
		respondError(w, http.StatusInternalServerError, "failed to save student")
		return
	}

	if err := h.reindex(r); err != nil {
		log.Printf("Failed to reindex matcher: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to reindex matcher")
		return
	}

	student, err := h.store.Get(r.Context(), req.StudentID)
	if err != nil || student == nil {
		// Fall back to the request data; the row exists.
		respondJSON(w, http.StatusCreated, StudentResponse{
			ID:         id,
			StudentID:  req.StudentID,
			Name:       req.Name,
			Dimensions: len(req.Encoding),
		})
		return
	}
	respondJSON(w, http.StatusCreated, newStudentResponse(*student))
}

// Get returns one enrolled student.
func (h *StudentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")
	student, err := h.store.Get(r.Context(), studentID)
	if err != nil {
		log.Printf("Failed to get student %s: %v", sanitizeForLog(studentID), err)
		respondError(w, http.StatusInternalServerError, "failed to get student")
		return
	}
	if student == nil {
		respondError(w, http.StatusNotFound, "student not found")
		return
	}
	respondJSON(w, http.StatusOK, newStudentResponse(*student))
}

// Delete removes a student from the roster and reindexes the matcher.
func (h *StudentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")
	student, err := h.store.Get(r.Context(), studentID)
	if err != nil {
		log.Printf("Failed to get student %s: %v", sanitizeForLog(studentID), err)
		respondError(w, http.StatusInternalServerError, "failed to get student")
		return
	}
	if student == nil {
		respondError(w, http.StatusNotFound, "student not found")
		return
	}

	if err := h.store.Delete(r.Context(), studentID); err != nil {
		log.Printf("Failed to delete student %s: %v", sanitizeForLog(studentID), err)
		respondError(w, http.StatusInternalServerError, "failed to delete student")
		return
	}

	if err := h.reindex(r); err != nil {
		log.Printf("Failed to reindex matcher: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to reindex matcher")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// reindex rebuilds the matcher from the full roster. The HNSW index has no
// cheap removal, and rosters are small enough that a rebuild per roster
// change is fine.
func (h *StudentsHandler) reindex(r *http.Request) error {
	if h.matcher == nil {
		return nil
	}
	students, err := h.store.List(r.Context())
	if err != nil {
		return err
	}
	enrollments := make([]match.Enrollment, 0, len(students))
	for _, s := range students {
		enrollments = append(enrollments, match.Enrollment{
			Identity: s.Identity(),
			Encoding: s.Encoding,
		})
	}
	h.matcher.Build(enrollments)
	return nil
}
