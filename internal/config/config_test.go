package config

import (
	"testing"
	"time"

	"github.com/kozaktomas/face-checkin/internal/verify"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Engine.Tolerance != 0.6 {
		t.Errorf("expected default tolerance 0.6, got %v", cfg.Engine.Tolerance)
	}
	if cfg.Engine.ConfidenceThreshold != 70 {
		t.Errorf("expected default confidence threshold 70, got %v", cfg.Engine.ConfidenceThreshold)
	}
	if cfg.Engine.FramesRequired != 5 {
		t.Errorf("expected default frames required 5, got %d", cfg.Engine.FramesRequired)
	}
	if cfg.Engine.CooldownSeconds != 30 {
		t.Errorf("expected default cooldown 30s, got %d", cfg.Engine.CooldownSeconds)
	}
	if cfg.Engine.DisplayHoldMillis != 2000 {
		t.Errorf("expected default display hold 2000ms, got %d", cfg.Engine.DisplayHoldMillis)
	}
	if cfg.Web.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Web.Port)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TOLERANCE", "0.5")
	t.Setenv("CONFIDENCE_THRESHOLD", "80")
	t.Setenv("FRAMES_REQUIRED", "8")
	t.Setenv("COOLDOWN_SECONDS", "60")

	cfg := Load()

	if cfg.Engine.Tolerance != 0.5 {
		t.Errorf("expected tolerance 0.5, got %v", cfg.Engine.Tolerance)
	}
	if cfg.Engine.ConfidenceThreshold != 80 {
		t.Errorf("expected confidence threshold 80, got %v", cfg.Engine.ConfidenceThreshold)
	}
	if cfg.Engine.FramesRequired != 8 {
		t.Errorf("expected frames required 8, got %d", cfg.Engine.FramesRequired)
	}
	if cfg.Engine.CooldownSeconds != 60 {
		t.Errorf("expected cooldown 60s, got %d", cfg.Engine.CooldownSeconds)
	}
}

func TestLoad_ToleranceClamped(t *testing.T) {
	t.Setenv("TOLERANCE", "0.95")
	cfg := Load()
	if cfg.Engine.Tolerance != MaxTolerance {
		t.Errorf("expected tolerance clamped to %v, got %v", MaxTolerance, cfg.Engine.Tolerance)
	}

	t.Setenv("TOLERANCE", "0.1")
	cfg = Load()
	if cfg.Engine.Tolerance != MinTolerance {
		t.Errorf("expected tolerance clamped to %v, got %v", MinTolerance, cfg.Engine.Tolerance)
	}
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv("FRAMES_REQUIRED", "not-a-number")
	t.Setenv("CONFIDENCE_THRESHOLD", "-5")

	cfg := Load()

	if cfg.Engine.FramesRequired != 5 {
		t.Errorf("expected fallback to 5 frames, got %d", cfg.Engine.FramesRequired)
	}
	if cfg.Engine.ConfidenceThreshold != 70 {
		t.Errorf("expected fallback to threshold 70, got %v", cfg.Engine.ConfidenceThreshold)
	}
}

func TestLoad_EmbeddedProfiles(t *testing.T) {
	cfg := Load()

	for _, name := range []string{"default", "strict", "lenient"} {
		if _, ok := cfg.Profiles.Profiles[name]; !ok {
			t.Errorf("expected embedded profile %q", name)
		}
	}
}

func TestApplyProfile(t *testing.T) {
	cfg := Load()

	if err := cfg.ApplyProfile("strict"); err != nil {
		t.Fatal(err)
	}

	if cfg.Engine.Tolerance != 0.45 {
		t.Errorf("expected strict tolerance 0.45, got %v", cfg.Engine.Tolerance)
	}
	if cfg.Engine.FramesRequired != 8 {
		t.Errorf("expected strict frames required 8, got %d", cfg.Engine.FramesRequired)
	}
}

func TestApplyProfile_Unknown(t *testing.T) {
	cfg := Load()

	if err := cfg.ApplyProfile("nonsense"); err == nil {
		t.Error("expected an error for an unknown profile")
	}
}

func TestApplyProfile_EmptyNameIsNoop(t *testing.T) {
	cfg := Load()
	before := cfg.Engine

	if err := cfg.ApplyProfile(""); err != nil {
		t.Fatal(err)
	}
	if cfg.Engine != before {
		t.Error("expected empty profile name to leave the engine config unchanged")
	}
}

func TestEngineConfig_Options(t *testing.T) {
	e := EngineConfig{
		Tolerance:           0.5,
		ConfidenceThreshold: 75,
		FramesRequired:      4,
		CooldownSeconds:     45,
	}

	opts := e.Options(verify.SingleShot)

	if opts.Cooldown != 45*time.Second {
		t.Errorf("expected cooldown 45s, got %v", opts.Cooldown)
	}
	if opts.Policy != verify.SingleShot {
		t.Errorf("expected single-shot policy, got %s", opts.Policy)
	}
	if opts.FramesRequired != 4 {
		t.Errorf("expected frames required 4, got %d", opts.FramesRequired)
	}
}
