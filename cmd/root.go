package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-checkin/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "face-checkin",
	Short: "Face recognition attendance check-in",
	Long: `Face Check-in turns a stream of face recognition results into attendance
records. A person must hold a confident match over several consecutive frames
before attendance is marked, and each person is marked at most once per day.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().String("profile", "", "Verification profile to apply (default, strict, lenient)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// loadConfig loads the environment configuration and applies the --profile
// overlay.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.ApplyProfile(mustGetString(cmd, "profile")); err != nil {
		return nil, err
	}
	return cfg, nil
}
