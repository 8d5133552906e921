package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-checkin/internal/database"
)

var studentsCmd = &cobra.Command{
	Use:   "students",
	Short: "Manage the enrolled roster",
}

var studentsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Enroll a student or replace their encoding",
	RunE:  runStudentsAdd,
}

var studentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled students",
	RunE:  runStudentsList,
}

var studentsRemoveCmd = &cobra.Command{
	Use:   "remove <student-id>",
	Short: "Remove a student from the roster",
	Args:  cobra.ExactArgs(1),
	RunE:  runStudentsRemove,
}

func init() {
	rootCmd.AddCommand(studentsCmd)
	studentsCmd.AddCommand(studentsAddCmd, studentsListCmd, studentsRemoveCmd)

	studentsAddCmd.Flags().String("id", "", "Stable external student id (required)")
	studentsAddCmd.Flags().String("name", "", "Display name (required)")
	studentsAddCmd.Flags().String("encoding", "", "Path to a JSON file with the face encoding float array (required)")
	_ = studentsAddCmd.MarkFlagRequired("id")
	_ = studentsAddCmd.MarkFlagRequired("name")
	_ = studentsAddCmd.MarkFlagRequired("encoding")
}

// readEncodingFile reads a face encoding stored as a JSON float array.
func readEncodingFile(path string) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading encoding file: %w", err)
	}
	var encoding []float32
	if err := json.Unmarshal(data, &encoding); err != nil {
		return nil, fmt.Errorf("parsing encoding file: %w", err)
	}
	if len(encoding) == 0 {
		return nil, fmt.Errorf("encoding file %s contains no values", path)
	}
	return encoding, nil
}

func runStudentsAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	encoding, err := readEncodingFile(mustGetString(cmd, "encoding"))
	if err != nil {
		return err
	}

	store, _, closeStores, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	student := database.Student{
		StudentID: mustGetString(cmd, "id"),
		Name:      mustGetString(cmd, "name"),
		Encoding:  encoding,
	}
	if _, err := store.Save(context.Background(), student); err != nil {
		return fmt.Errorf("enrolling student: %w", err)
	}

	fmt.Printf("Enrolled %s (%s), %d-dimensional encoding\n",
		student.Name, student.StudentID, len(encoding))
	return nil
}

func runStudentsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, _, closeStores, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	students, err := store.List(context.Background())
	if err != nil {
		return fmt.Errorf("listing students: %w", err)
	}
	if len(students) == 0 {
		fmt.Println("No students enrolled")
		return nil
	}

	fmt.Printf("%-16s %-28s %s\n", "ID", "NAME", "ENROLLED")
	for _, s := range students {
		fmt.Printf("%-16s %-28s %s\n", s.StudentID, s.Name, s.CreatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Printf("\n%d students enrolled\n", len(students))
	return nil
}

func runStudentsRemove(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, _, closeStores, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	studentID := args[0]
	student, err := store.Get(context.Background(), studentID)
	if err != nil {
		return fmt.Errorf("looking up student: %w", err)
	}
	if student == nil {
		return fmt.Errorf("student %s is not enrolled", studentID)
	}

	if err := store.Delete(context.Background(), studentID); err != nil {
		return fmt.Errorf("removing student: %w", err)
	}
	fmt.Printf("Removed %s (%s) from the roster\n", student.Name, student.StudentID)
	return nil
}
