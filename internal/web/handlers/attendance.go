package handlers

import (
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/kozaktomas/face-checkin/internal/database"
	"github.com/kozaktomas/face-checkin/internal/verify"
)

// AttendanceHandler handles attendance query endpoints.
type AttendanceHandler struct {
	ledger database.AttendanceLedger
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(ledger database.AttendanceLedger) *AttendanceHandler {
	return &AttendanceHandler{ledger: ledger}
}

// AttendanceRecordResponse represents one committed check-in.
type AttendanceRecordResponse struct {
	StudentID string    `json:"student_id"`
	Name      string    `json:"name,omitempty"`
	Day       string    `json:"day"`
	MarkedAt  time.Time `json:"marked_at"`
}

func newRecordResponses(records []database.AttendanceRecord) []AttendanceRecordResponse {
	responses := make([]AttendanceRecordResponse, 0, len(records))
	for _, rec := range records {
		responses = append(responses, AttendanceRecordResponse{
			StudentID: rec.StudentID,
			Name:      rec.Name,
			Day:       string(rec.Day),
			MarkedAt:  rec.MarkedAt,
		})
	}
	return responses
}

// parseDay validates a YYYY-MM-DD query parameter.
func parseDay(s string) (verify.Day, error) {
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return "", fmt.Errorf("invalid day %q, want YYYY-MM-DD", s)
	}
	return verify.Day(s), nil
}

// List returns the attendance records for one day (default today).
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	day := verify.Today()
	if s := r.URL.Query().Get("day"); s != "" {
		parsed, err := parseDay(s)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		day = parsed
	}

	records, err := h.ledger.ListDay(r.Context(), day)
	if err != nil {
		log.Printf("Failed to list attendance for %s: %v", day, err)
		respondError(w, http.StatusInternalServerError, "failed to list attendance")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"day":     string(day),
		"records": newRecordResponses(records),
		"count":   len(records),
	})
}

// Export streams the attendance records for a date range as CSV. Both bounds
// default to today.
func (h *AttendanceHandler) Export(w http.ResponseWriter, r *http.Request) {
	from := verify.Today()
	to := verify.Today()
	var err error
	if s := r.URL.Query().Get("from"); s != "" {
		if from, err = parseDay(s); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if s := r.URL.Query().Get("to"); s != "" {
		if to, err = parseDay(s); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if string(from) > string(to) {
		respondError(w, http.StatusBadRequest, "from must not be after to")
		return
	}

	records, err := h.ledger.ExportRange(r.Context(), from, to)
	if err != nil {
		log.Printf("Failed to export attendance %s..%s: %v", from, to, err)
		respondError(w, http.StatusInternalServerError, "failed to export attendance")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("attendance_%s_%s.csv", from, to)))
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"student_id", "name", "day", "marked_at"})
	for _, rec := range records {
		_ = cw.Write([]string{
			rec.StudentID,
			rec.Name,
			string(rec.Day),
			rec.MarkedAt.Format(time.RFC3339),
		})
	}
	cw.Flush()
}
