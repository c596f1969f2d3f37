package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jgoulah/dispatchtracker/internal/aggregate"
	"github.com/jgoulah/dispatchtracker/internal/sheet"
)

var exportFilters filterFlags

var exportCmd = &cobra.Command{
	Use:   "export <file.xlsx>",
	Short: "Write the filtered log to a spreadsheet",
	Long: `Exports the records matching the filters to an .xlsx workbook, newest date
first, in the same row layout the row store uses.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportFilters.register(exportCmd)
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	path := args[0]
	if !strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return fmt.Errorf("export file must end in .xlsx: %s", path)
	}

	criteria, err := exportFilters.criteria(cmd, time.Now())
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context(), sessionOptions{pull: true})
	if err != nil {
		return err
	}
	defer s.Close()

	records := aggregate.Filter(s.engine.Records(), criteria)
	if err := sheet.Export(path, records); err != nil {
		return fmt.Errorf("exporting: %w", err)
	}

	fmt.Printf("Exported %d records (%s) to %s\n", len(records), criteria.Label(), path)
	return nil
}
