package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-checkin/internal/match"
	"github.com/kozaktomas/face-checkin/internal/verify"
)

var checkinCmd = &cobra.Command{
	Use:   "checkin",
	Short: "Run a single-shot check-in session",
	Long: `Run one verification session against a JSONL stream of recognizer frames
(one JSON object per line: identity, name, distance, optional timestamp).
The session ends as soon as one person is verified or found already marked.`,
	RunE: runCheckin,
}

func init() {
	rootCmd.AddCommand(checkinCmd)

	checkinCmd.Flags().String("input", "-", "Frame stream file, - for stdin")
	checkinCmd.Flags().Float64("tolerance", 0, "Override match tolerance (0.4-0.8)")
	checkinCmd.Flags().Int("frames", 0, "Override consecutive frames required")
}

// openFrameStream opens the JSONL frame stream named by --input.
func openFrameStream(cmd *cobra.Command) (io.ReadCloser, error) {
	input := mustGetString(cmd, "input")
	if input == "-" || input == "" {
		return os.Stdin, nil
	}
	f, err := os.Open(input)
	if err != nil {
		return nil, fmt.Errorf("opening frame stream: %w", err)
	}
	return f, nil
}

// printOutcome renders one frame's outcome for the terminal.
func printOutcome(out verify.Outcome) {
	switch out.Kind {
	case verify.OutcomeAccumulating:
		fmt.Printf("Verifying %s... %d/%d (confidence %.1f%%)\n",
			out.Identity.Name, out.Count, out.Required, out.Confidence)
	case verify.OutcomeVerified:
		fmt.Printf("Welcome, %s! Attendance marked (confidence %.1f%%)\n",
			out.Identity.Name, out.Confidence)
	case verify.OutcomeDuplicate:
		if out.RetryAfter > 0 {
			fmt.Printf("%s is already marked (retry in %s)\n",
				out.Identity.Name, out.RetryAfter.Round(time.Second))
		} else {
			fmt.Printf("%s is already marked today\n", out.Identity.Name)
		}
	case verify.OutcomeUnknown:
		fmt.Println("Face not recognized")
	case verify.OutcomeNoFace:
		// Nothing to report frame-by-frame.
	}
}

func runCheckin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if tolerance := mustGetFloat64(cmd, "tolerance"); tolerance > 0 {
		cfg.Engine.Tolerance = tolerance
	}
	if frames := mustGetInt(cmd, "frames"); frames > 0 {
		cfg.Engine.FramesRequired = frames
	}

	students, ledger, closeStores, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	matcher, err := buildMatcher(cmd.Context(), students)
	if err != nil {
		return err
	}

	stream, err := openFrameStream(cmd)
	if err != nil {
		return err
	}
	defer stream.Close()

	session := verify.NewSession(ledger, cfg.Engine.Options(verify.SingleShot))
	fmt.Printf("Waiting for a face (%d consecutive frames required)...\n", session.FramesRequired())

	src := match.NewJSONLSource(stream).WithMatcher(matcher)
	if err := session.Run(cmd.Context(), src, printOutcome); err != nil {
		return fmt.Errorf("check-in session: %w", err)
	}
	return nil
}
