package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jgoulah/dispatchtracker/internal/syncer"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull every record from the row store",
	Long: `Replaces the local cache with the rows held by the row store. On failure
the cache is left as it was.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context(), sessionOptions{})
	if err != nil {
		return err
	}
	defer s.Close()

	before := len(s.engine.Records())
	status, err := s.engine.Pull(cmd.Context())
	switch status {
	case syncer.StatusOffline:
		fmt.Println("No endpoint configured. Set one with: dispatchtracker endpoint <url>")
		return nil
	case syncer.StatusFailed:
		return fmt.Errorf("sync failed, cached records kept: %w", err)
	}

	after := len(s.engine.Records())
	infoColor.Printf("✓ Synced %d records (was %d cached)\n", after, before)
	return nil
}
