package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-checkin/internal/match"
	"github.com/kozaktomas/face-checkin/internal/verify"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run a continuous check-in session until interrupted",
	Long: `Run a continuous verification session against a live JSONL frame stream.
The stream is consumed latest-frame-wins: when the engine is busy (e.g. a
slow ledger commit) stale frames are dropped instead of queueing. The session
runs until Ctrl+C.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().String("input", "-", "Frame stream file or pipe, - for stdin")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
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

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Pump frames from the stream into a latest-wins source so a camera feed
	// that outpaces the engine never builds a backlog.
	source := match.NewPushSource()
	jsonl := match.NewJSONLSource(stream).WithMatcher(matcher)
	go func() {
		defer source.Close()
		for {
			c, err := jsonl.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				if ctx.Err() == nil {
					fmt.Printf("Frame stream error: %v\n", err)
				}
				return
			}
			source.Push(c)
		}
	}()

	session := verify.NewSession(ledger, cfg.Engine.Options(verify.Continuous))
	fmt.Printf("Watching for faces (%d consecutive frames required), Ctrl+C to stop\n",
		session.FramesRequired())

	err = session.Run(ctx, source, printOutcome)
	if errors.Is(err, context.Canceled) {
		fmt.Println("\nStopped")
		return nil
	}
	if err != nil {
		return fmt.Errorf("watch session: %w", err)
	}
	return nil
}
