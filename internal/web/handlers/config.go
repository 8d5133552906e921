package handlers

import (
	"net/http"
	"sort"

	"github.com/kozaktomas/face-checkin/internal/config"
)

// ConfigHandler handles the configuration endpoint.
type ConfigHandler struct {
	config *config.Config
}

// NewConfigHandler creates a new config handler.
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{config: cfg}
}

// ConfigResponse represents the effective engine configuration the kiosk
// frontend needs.
type ConfigResponse struct {
	Tolerance           float64  `json:"tolerance"`
	ConfidenceThreshold float64  `json:"confidence_threshold"`
	FramesRequired      int      `json:"frames_required"`
	CooldownSeconds     int      `json:"cooldown_seconds"`
	DisplayHoldMillis   int      `json:"display_hold_millis"`
	Profiles            []string `json:"profiles"`
	Storage             string   `json:"storage"`
}

// Get returns the effective configuration.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	profiles := make([]string, 0, len(h.config.Profiles.Profiles))
	for name := range h.config.Profiles.Profiles {
		profiles = append(profiles, name)
	}
	sort.Strings(profiles)

	storage := "memory"
	switch {
	case h.config.Database.URL != "":
		storage = "postgres"
	case h.config.Database.MariaDBDSN != "":
		storage = "mariadb"
	}

	respondJSON(w, http.StatusOK, ConfigResponse{
		Tolerance:           h.config.Engine.Tolerance,
		ConfidenceThreshold: h.config.Engine.ConfidenceThreshold,
		FramesRequired:      h.config.Engine.FramesRequired,
		CooldownSeconds:     h.config.Engine.CooldownSeconds,
		DisplayHoldMillis:   h.config.Engine.DisplayHoldMillis,
		Profiles:            profiles,
		Storage:             storage,
	})
}
