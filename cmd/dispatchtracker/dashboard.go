package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jgoulah/dispatchtracker/internal/aggregate"
	"github.com/jgoulah/dispatchtracker/internal/render"
)

var dashboardFilters filterFlags

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"dash"},
	Short:   "Show totals, efficiency and the per-unit chart",
	Args:    cobra.NoArgs,
	RunE:    runDashboard,
}

func init() {
	dashboardFilters.register(dashboardCmd)
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	criteria, err := dashboardFilters.criteria(cmd, time.Now())
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context(), sessionOptions{pull: true})
	if err != nil {
		return err
	}
	defer s.Close()

	res := aggregate.Compute(s.engine.Records(), criteria)
	fmt.Println(render.Dashboard(res, theme()))
	return nil
}
