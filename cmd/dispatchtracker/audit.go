package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jgoulah/dispatchtracker/internal/render"
)

var auditCmd = &cobra.Command{
	Use:   "audit <id>",
	Short: "Ask the AI auditor to summarize a record",
	Long: `Sends one record to the Gemini API and prints a short business summary,
key insights and a status. Needs audit.api_key in the config, or GEMINI_API_KEY.`,
	Args: cobra.ExactArgs(1),
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context(), sessionOptions{pull: true})
	if err != nil {
		return err
	}
	defer s.Close()

	rec, ok := s.engine.Records().Find(args[0])
	if !ok {
		return fmt.Errorf("no record with id %s", args[0])
	}

	auditor, err := newAuditor(s.cfg)
	if err != nil {
		return err
	}

	report, err := auditor.Summarize(cmd.Context(), rec)
	if err != nil {
		return fmt.Errorf("auditing %s: %w", rec.ID, err)
	}

	th := theme()
	fmt.Println(render.Record(rec, th))
	fmt.Println()
	fmt.Println(render.Audit(report, th))
	return nil
}
