package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jgoulah/dispatchtracker/internal/render"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a record locally and from the row store",
	Long: `Removes a record by id. The record disappears locally at once; if the row
store cannot be reached the deletion is reverted and the record is kept.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "do not ask for confirmation")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	id := strings.TrimSpace(args[0])

	s, err := openSession(cmd.Context(), sessionOptions{pull: true})
	if err != nil {
		return err
	}
	defer s.Close()

	rec, ok := s.engine.Records().Find(id)
	if !ok {
		fmt.Printf("No record with id %s\n", id)
		return nil
	}

	if !deleteYes {
		fmt.Println(render.Record(rec, theme()))
		if !confirm(cmd.InOrStdin(), "Delete this record? [y/N]: ") {
			fmt.Println("Cancelled")
			return nil
		}
	}

	if err := s.engine.Delete(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", id)
	return nil
}

// confirm asks a yes/no question, defaulting to no
func confirm(in io.Reader, prompt string) bool {
	fmt.Print(prompt)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
