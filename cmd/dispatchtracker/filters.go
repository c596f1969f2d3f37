package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jgoulah/dispatchtracker/pkg/models"
)

// filterFlags are the view selectors shared by list, dashboard, export and publish
type filterFlags struct {
	rng   string
	month int
	year  int
	unit  string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.rng, "range", "all", "time range: month, year or all")
	cmd.Flags().IntVar(&f.month, "month", 0, "month 1-12 (default: current month; implies --range month)")
	cmd.Flags().IntVar(&f.year, "year", 0, "year (default: current year; implies --range year unless --month is set)")
	cmd.Flags().StringVar(&f.unit, "unit", "ALL", "unit focus: ALL, SUR, KDC, CKU, EMB or LMN")
}

// criteria turns the flags into filter criteria. --month and --year pick a
// narrower range when --range was not given explicitly.
func (f *filterFlags) criteria(cmd *cobra.Command, now time.Time) (models.FilterCriteria, error) {
	c := models.DefaultFilter(now)

	rng, err := models.ParseTimeRange(f.rng)
	if err != nil {
		return c, err
	}
	if !cmd.Flags().Changed("range") {
		switch {
		case cmd.Flags().Changed("month"):
			rng = models.RangeMonth
		case cmd.Flags().Changed("year"):
			rng = models.RangeYear
		}
	}
	c.Range = rng

	if f.month != 0 {
		if f.month < 1 || f.month > 12 {
			return c, fmt.Errorf("--month must be between 1 and 12, got %d", f.month)
		}
		c.SelectedMonth = f.month - 1
	}
	if f.year != 0 {
		c.SelectedYear = f.year
	}

	if f.unit == "" || f.unit == string(models.AllUnits) || f.unit == "all" {
		c.Unit = models.AllUnits
	} else {
		unit, err := models.ParseUnitKey(f.unit)
		if err != nil {
			return c, err
		}
		c.Unit = unit
	}

	return c, c.Validate()
}
