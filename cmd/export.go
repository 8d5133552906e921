package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-checkin/internal/verify"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export attendance records to CSV",
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("from", "", "Start day YYYY-MM-DD (default today)")
	exportCmd.Flags().String("to", "", "End day YYYY-MM-DD (default today)")
	exportCmd.Flags().String("output", "", "Output file (default attendance_<from>_<to>.csv)")
	exportCmd.Flags().Bool("force", false, "Overwrite the output file if it exists")
}

// parseDayFlag validates a YYYY-MM-DD flag value, empty means today.
func parseDayFlag(s string) (verify.Day, error) {
	if s == "" {
		return verify.Today(), nil
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return "", fmt.Errorf("invalid day %q, want YYYY-MM-DD", s)
	}
	return verify.Day(s), nil
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	from, err := parseDayFlag(mustGetString(cmd, "from"))
	if err != nil {
		return err
	}
	to, err := parseDayFlag(mustGetString(cmd, "to"))
	if err != nil {
		return err
	}
	if string(from) > string(to) {
		return fmt.Errorf("from %s must not be after to %s", from, to)
	}

	output := mustGetString(cmd, "output")
	if output == "" {
		output = fmt.Sprintf("attendance_%s_%s.csv", from, to)
	}
	if !mustGetBool(cmd, "force") {
		if _, err := os.Stat(output); err == nil {
			return fmt.Errorf("%s already exists, use --force to overwrite", output)
		}
	}

	_, ledger, closeStores, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	records, err := ledger.ExportRange(context.Background(), from, to)
	if err != nil {
		return fmt.Errorf("exporting attendance: %w", err)
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	bar := progressbar.NewOptions(len(records),
		progressbar.OptionSetDescription("Exporting attendance"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("records"),
		progressbar.OptionShowElapsedTimeOnFinish(),
	)

	w := csv.NewWriter(f)
	if err := w.Write([]string{"student_id", "name", "day", "marked_at"}); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write([]string{
			rec.StudentID,
			rec.Name,
			string(rec.Day),
			rec.MarkedAt.Format(time.RFC3339),
		}); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
		_ = bar.Add(1)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}

	fmt.Printf("\nExported %d records (%s to %s) to %s\n", len(records), from, to, output)
	return nil
}
