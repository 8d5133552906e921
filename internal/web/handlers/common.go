// Package handlers implements the check-in API endpoints.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kozaktomas/face-checkin/internal/verify"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// OutcomeResponse is the wire form of one frame's verification outcome.
type OutcomeResponse struct {
	Kind              string           `json:"kind"`
	Identity          *verify.Identity `json:"identity,omitempty"`
	Confidence        float64          `json:"confidence,omitempty"`
	Count             int              `json:"count,omitempty"`
	Required          int              `json:"required,omitempty"`
	RetryAfterSeconds float64          `json:"retry_after_seconds,omitempty"`
}

// newOutcomeResponse converts an engine outcome into its wire form.
func newOutcomeResponse(o verify.Outcome) OutcomeResponse {
	return OutcomeResponse{
		Kind:              string(o.Kind),
		Identity:          o.Identity,
		Confidence:        o.Confidence,
		Count:             o.Count,
		Required:          o.Required,
		RetryAfterSeconds: o.RetryAfter.Seconds(),
	}
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
