package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jgoulah/dispatchtracker/internal/aggregate"
	"github.com/jgoulah/dispatchtracker/internal/render"
)

var (
	publishFilters filterFlags
	publishLimit   int
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Republish records to the MQTT mirror",
	Long: `Sends the records matching the filters to the MQTT broker as retained
messages. New records are mirrored automatically; use this to backfill a broker
or to repair one that lost its retained messages.`,
	Args: cobra.NoArgs,
	RunE: runPublish,
}

func init() {
	publishFilters.register(publishCmd)
	publishCmd.Flags().IntVar(&publishLimit, "limit", 0, "Limit number of records to publish (0 = no limit)")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Publish started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	criteria, err := publishFilters.criteria(cmd, time.Now())
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context(), sessionOptions{pull: true})
	if err != nil {
		return err
	}
	defer s.Close()

	if !s.cfg.MQTT.Enabled {
		return fmt.Errorf("MQTT mirror is not enabled in config")
	}
	if s.mirror == nil {
		return fmt.Errorf("MQTT mirror could not connect to %s", s.cfg.MQTT.Broker)
	}

	records := aggregate.Filter(s.engine.Records(), criteria)
	if len(records) == 0 {
		fmt.Printf("No records for %s\n", criteria.Label())
		return nil
	}

	// Apply limit if specified
	if publishLimit > 0 && len(records) > publishLimit {
		records = records[:publishLimit]
		fmt.Printf("Limiting to %d records (--limit flag)\n", publishLimit)
	}

	published := 0
	for i, r := range records {
		fmt.Printf("[%d/%d] Publishing %s %s (%s)... ", i+1, len(records), r.ID, r.Date, render.Money(r.TotalOrder))
		if err := s.mirror.Publish(r); err != nil {
			fmt.Printf("FAILED: %v\n", err)
			continue
		}
		fmt.Printf("✓\n")
		published++
	}

	fmt.Printf("\nSuccessfully published %d/%d records\n", published, len(records))
	return nil
}
