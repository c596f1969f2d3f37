package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jgoulah/dispatchtracker/internal/aggregate"
	"github.com/jgoulah/dispatchtracker/internal/render"
)

var listFilters filterFlags

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored records",
	Long:  `Displays the operational log, newest date first, under the selected filters.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listFilters.register(listCmd)
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	criteria, err := listFilters.criteria(cmd, time.Now())
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context(), sessionOptions{pull: true})
	if err != nil {
		return err
	}
	defer s.Close()

	res := aggregate.Compute(s.engine.Records(), criteria)

	fmt.Printf("\n%s · %s\n", criteria.Label(), criteria.Unit)
	fmt.Println(render.Log(res.Records, theme()))
	if len(res.Records) > 0 {
		fmt.Printf("\nTotal: %s ordered, %s dispatched (%d records)\n",
			render.Money(res.Totals.Order), render.Money(res.Totals.Dispatch), len(res.Records))
	}
	return nil
}
