package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/face-checkin/internal/verify"
)

//go:embed profiles.yaml
var profilesYAML []byte

// Tolerance is only meaningful within this range; values outside are clamped.
const (
	MinTolerance = 0.4
	MaxTolerance = 0.8
)

type Config struct {
	Engine   EngineConfig
	Database DatabaseConfig
	Web      WebConfig
	Profiles ProfilesConfig
}

// EngineConfig holds the verification engine parameters.
type EngineConfig struct {
	Tolerance           float64 // maximum match distance (0.4-0.8, default 0.6)
	ConfidenceThreshold float64 // minimum confidence percent (default 70)
	FramesRequired      int     // consecutive accepted frames to verify (default 5)
	CooldownSeconds     int     // minimum interval between verifications of one identity (default 30)
	DisplayHoldMillis   int     // how long the UI should hold a result; advisory only
}

// Options converts the engine configuration into session options.
func (e EngineConfig) Options(policy verify.Policy) verify.Options {
	return verify.Options{
		Tolerance:           e.Tolerance,
		ConfidenceThreshold: e.ConfidenceThreshold,
		FramesRequired:      e.FramesRequired,
		Cooldown:            time.Duration(e.CooldownSeconds) * time.Second,
		Policy:              policy,
	}
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MariaDBDSN   string // optional MariaDB DSN, used when URL is empty
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type WebConfig struct {
	Host string
	Port int
}

// ProfilesConfig holds the named verification profiles from the embedded
// profiles.yaml.
type ProfilesConfig struct {
	Profiles map[string]Profile `yaml:"profiles"`
}

// Profile is one named set of engine parameters.
type Profile struct {
	Tolerance           float64 `yaml:"tolerance"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	FramesRequired      int     `yaml:"frames_required"`
	CooldownSeconds     int     `yaml:"cooldown_seconds"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// clampTolerance keeps the tolerance inside its meaningful range.
func clampTolerance(v float64) float64 {
	if v < MinTolerance {
		return MinTolerance
	}
	if v > MaxTolerance {
		return MaxTolerance
	}
	return v
}

func Load() *Config {
	var profiles ProfilesConfig
	if err := yaml.Unmarshal(profilesYAML, &profiles); err != nil {
		// Embedded file, should never happen in practice.
		panic("failed to unmarshal embedded profiles.yaml: " + err.Error())
	}

	return &Config{
		Engine: EngineConfig{
			Tolerance:           clampTolerance(envFloat("TOLERANCE", verify.DefaultTolerance)),
			ConfidenceThreshold: envFloat("CONFIDENCE_THRESHOLD", verify.DefaultConfidenceThreshold),
			FramesRequired:      envInt("FRAMES_REQUIRED", verify.DefaultFramesRequired),
			CooldownSeconds:     envInt("COOLDOWN_SECONDS", int(verify.DefaultCooldown/time.Second)),
			DisplayHoldMillis:   envInt("DISPLAY_HOLD_MILLIS", 2000),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MariaDBDSN:   os.Getenv("MARIADB_DSN"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Web: WebConfig{
			Host: envOr("WEB_HOST", "0.0.0.0"),
			Port: envInt("WEB_PORT", 8080),
		},
		Profiles: profiles,
	}
}

// envOr returns the environment value or a default when unset.
func envOr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// ApplyProfile overlays a named verification profile onto the engine
// configuration. Unknown profile names are an error; zero fields in the
// profile keep the current value.
func (c *Config) ApplyProfile(name string) error {
	if name == "" {
		return nil
	}
	p, ok := c.Profiles.Profiles[name]
	if !ok {
		return fmt.Errorf("unknown verification profile %q", name)
	}
	if p.Tolerance > 0 {
		c.Engine.Tolerance = clampTolerance(p.Tolerance)
	}
	if p.ConfidenceThreshold > 0 {
		c.Engine.ConfidenceThreshold = p.ConfidenceThreshold
	}
	if p.FramesRequired > 0 {
		c.Engine.FramesRequired = p.FramesRequired
	}
	if p.CooldownSeconds > 0 {
		c.Engine.CooldownSeconds = p.CooldownSeconds
	}
	return nil
}
