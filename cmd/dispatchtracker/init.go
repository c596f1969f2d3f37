package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jgoulah/dispatchtracker/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Long: `Creates config.yaml (or the file named by --config) with the default
settings filled in, ready to edit. An existing file is left alone unless --force.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path := getConfigPath()
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	empty := &config.Config{}
	rateLimit, burst := empty.GetRateLimit()
	cfg := &config.Config{
		Database: empty.GetDatabase(),
		Remote: config.RemoteConfig{
			TimeoutSeconds: int(empty.GetRemoteTimeout().Seconds()),
			RateLimit:      rateLimit,
			Burst:          burst,
		},
		Audit: config.AuditConfig{
			Model:          empty.GetAuditModel(),
			TimeoutSeconds: int(empty.GetAuditTimeout().Seconds()),
		},
		MQTT: config.MQTTConfig{
			TopicPrefix: empty.MQTT.GetTopicPrefix(),
		},
	}

	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	fmt.Println("Next: dispatchtracker endpoint <row store URL>")
	return nil
}
