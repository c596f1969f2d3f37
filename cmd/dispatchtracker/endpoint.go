package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jgoulah/dispatchtracker/internal/remote"
	"github.com/jgoulah/dispatchtracker/internal/syncer"
)

var endpointClear bool

var endpointCmd = &cobra.Command{
	Use:   "endpoint [url]",
	Short: "Show or set the row store endpoint",
	Long: `Without arguments, prints the configured row store URL. With a URL, stores
it in the local cache and pulls from it. --clear switches to offline mode.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEndpoint,
}

func init() {
	endpointCmd.Flags().BoolVar(&endpointClear, "clear", false, "remove the endpoint and work offline")
	rootCmd.AddCommand(endpointCmd)
}

func runEndpoint(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	if db.InMemory() && (endpointClear || len(args) > 0) {
		db.Close()
		return fmt.Errorf("cache %s is unavailable, the endpoint would not be saved", getDBPath(cfg))
	}

	switch {
	case endpointClear:
		err := db.SetEndpoint("")
		db.Close()
		if err != nil {
			return fmt.Errorf("clearing endpoint: %w", err)
		}
		fmt.Println("Endpoint cleared, working offline")
		return nil

	case len(args) == 0:
		current := db.Endpoint()
		db.Close()
		if !remote.Configured(current) {
			fmt.Println("No endpoint configured (offline)")
			return nil
		}
		fmt.Println(current)
		return nil
	}

	endpoint := strings.TrimSpace(args[0])
	if err := validateEndpoint(endpoint); err != nil {
		db.Close()
		return err
	}
	err = db.SetEndpoint(endpoint)
	db.Close()
	if err != nil {
		return fmt.Errorf("saving endpoint: %w", err)
	}
	fmt.Printf("Endpoint set to %s\n", endpoint)

	if offline {
		return nil
	}
	s, err := openSession(cmd.Context(), sessionOptions{})
	if err != nil {
		return err
	}
	defer s.Close()
	if s.pull(cmd.Context()) == syncer.StatusSynced {
		infoColor.Printf("✓ Pulled %d records\n", len(s.engine.Records()))
	}
	return nil
}

func validateEndpoint(endpoint string) error {
	if endpoint == remote.PlaceholderEndpoint {
		return fmt.Errorf("that is the placeholder URL; paste the deployed web app URL instead")
	}
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid endpoint %q (expected an http or https URL)", endpoint)
	}
	return nil
}
