package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jgoulah/dispatchtracker/internal/render"
	"github.com/jgoulah/dispatchtracker/internal/syncer"
	"github.com/jgoulah/dispatchtracker/pkg/models"
)

var (
	addDate  string
	addUnits []string
	addAudit bool
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a day's order and dispatch values",
	Long: `Commits one day's figures. The record is stored locally first and then
sent to the row store; if sending fails it stays in the local cache.

Each --unit takes UNIT=ORDER:DISPATCH, for example --unit SUR=125000:98000.
Units that are not given are recorded as zero.`,
	Example: `  dispatchtracker add --unit SUR=1200:800 --unit KDC=500
  dispatchtracker add --date 2025-03-01 --unit LMN=10,000:7,500 --audit`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addDate, "date", "", "posting date YYYY-MM-DD (default: today)")
	addCmd.Flags().StringArrayVarP(&addUnits, "unit", "u", nil, "unit figures as UNIT=ORDER[:DISPATCH] (repeatable)")
	addCmd.Flags().BoolVar(&addAudit, "audit", false, "ask the AI auditor for a summary of the new record")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	form := models.NewForm(time.Now())
	if addDate != "" {
		if _, err := time.Parse(models.DateLayout, addDate); err != nil {
			return fmt.Errorf("invalid --date %q (use YYYY-MM-DD)", addDate)
		}
		form.Date = addDate
	}

	for _, spec := range addUnits {
		unit, order, dispatch, err := parseUnitSpec(spec)
		if err != nil {
			return err
		}
		form.Set(unit, order, dispatch)
	}

	s, err := openSession(cmd.Context(), sessionOptions{pull: true, audit: addAudit})
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.engine.Create(cmd.Context(), form)
	if errors.Is(err, syncer.ErrNothingToCommit) {
		return fmt.Errorf("nothing to commit: enter an order value for at least one unit")
	}
	if err != nil {
		return fmt.Errorf("creating record: %w", err)
	}

	th := theme()
	fmt.Println(render.Record(res.Record, th))
	if res.Audit != nil {
		fmt.Println()
		fmt.Println(render.Audit(res.Audit, th))
	}
	return nil
}

// parseUnitSpec parses UNIT=ORDER[:DISPATCH]
func parseUnitSpec(spec string) (models.UnitKey, float64, float64, error) {
	name, values, ok := strings.Cut(spec, "=")
	if !ok {
		return "", 0, 0, fmt.Errorf("invalid --unit %q (use UNIT=ORDER:DISPATCH)", spec)
	}
	unit, err := models.ParseUnitKey(name)
	if err != nil {
		return "", 0, 0, err
	}

	orderStr, dispatchStr, _ := strings.Cut(values, ":")
	order, err := parseAmount(orderStr)
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid order value for %s: %w", unit, err)
	}
	dispatch, err := parseAmount(dispatchStr)
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid dispatch value for %s: %w", unit, err)
	}
	return unit, order, dispatch, nil
}

// parseAmount accepts "1,250.50"; empty is zero. Negative values are rejected.
func parseAmount(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	s = strings.TrimPrefix(s, "₹")
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("must not be negative: %v", v)
	}
	return v, nil
}
