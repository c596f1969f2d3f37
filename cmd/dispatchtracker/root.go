package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jgoulah/dispatchtracker/internal/audit"
	"github.com/jgoulah/dispatchtracker/internal/config"
	"github.com/jgoulah/dispatchtracker/internal/database"
	"github.com/jgoulah/dispatchtracker/internal/publisher"
	"github.com/jgoulah/dispatchtracker/internal/remote"
	"github.com/jgoulah/dispatchtracker/internal/render"
	"github.com/jgoulah/dispatchtracker/internal/syncer"
)

var (
	cfgFile string
	dbPath  string
	offline bool
	noColor bool
	verbose bool
)

var (
	infoColor  = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed, color.Bold)
	debugColor = color.New(color.FgHiBlack)
)

var rootCmd = &cobra.Command{
	Use:   "dispatchtracker",
	Short: "Track daily order intake and dispatch per manufacturing unit",
	Long: `DispatchTracker records each day's order and dispatch values for the
SUR, KDC, CKU, EMB and LMN units. Records are cached in a local SQLite file and
kept in step with a spreadsheet-backed row store over HTTP.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file (default is ./data.db)")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "skip the startup pull from the row store")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show debug messages")
}

// getConfigPath returns the config file path
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// getDBPath returns the database file path: flag, then config, then ./data.db
func getDBPath(cfg *config.Config) string {
	if dbPath != "" {
		return dbPath
	}
	return cfg.GetDatabase()
}

// loadConfig loads the configuration file
func loadConfig() (*config.Config, error) {
	return config.Load(getConfigPath())
}

// saveConfig saves the configuration file
func saveConfig(cfg *config.Config) error {
	return config.Save(getConfigPath(), cfg)
}

// openDB opens the cache. If the file cannot be opened the session runs on
// an in-memory cache so nothing crashes.
func openDB(cfg *config.Config) (*database.DB, error) {
	db, err := database.New(getDBPath(cfg))
	if err == nil {
		db.SetLogFn(logLine)
		return db, nil
	}

	logLine("warning", fmt.Sprintf("cache unavailable (%v), using a temporary in-memory cache", err))
	db, memErr := database.NewMemory()
	if memErr != nil {
		return nil, fmt.Errorf("opening database: %w", errors.Join(err, memErr))
	}
	db.SetLogFn(logLine)
	return db, nil
}

// logLine prints a levelled log message. Debug lines need --verbose.
func logLine(level, msg string) {
	switch level {
	case "debug":
		if verbose {
			debugColor.Fprintln(os.Stderr, msg)
		}
	case "info":
		if verbose {
			infoColor.Fprintln(os.Stderr, msg)
		}
	case "warning":
		warnColor.Fprintln(os.Stderr, msg)
	default:
		errorColor.Fprintln(os.Stderr, msg)
	}
}

// printNotice shows a user-facing notice from the sync engine
func printNotice(n syncer.Notice) {
	switch n.Level {
	case "info":
		infoColor.Println("✓ " + n.Message)
	case "warning":
		warnColor.Println("! " + n.Message)
	default:
		errorColor.Println("✗ " + n.Message)
	}
}

func theme() render.Theme {
	if noColor || color.NoColor {
		return render.PlainTheme()
	}
	return render.DefaultTheme()
}

// session is everything a command needs to work on records
type session struct {
	cfg    *config.Config
	db     *database.DB
	client *remote.Client
	engine *syncer.Engine
	mirror *publisher.Publisher
}

type sessionOptions struct {
	pull  bool // pull from the row store unless --offline
	audit bool // attach the AI summarizer
}

// openSession loads config and cache and builds the sync engine
func openSession(ctx context.Context, opts sessionOptions) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	sheetLoc, err := cfg.GetRemoteLocation()
	if err != nil {
		return nil, err
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	rateLimit, burst := cfg.GetRateLimit()
	client := remote.NewClient(remote.ClientConfig{
		Endpoint:      db.Endpoint(),
		Timeout:       cfg.GetRemoteTimeout(),
		Location:      sheetLoc,
		ConfirmWrites: cfg.Remote.ConfirmWrites,
		RateLimit:     rateLimit,
		Burst:         burst,
		LogFn:         logLine,
	})

	s := &session{cfg: cfg, db: db, client: client}
	engineCfg := syncer.Config{
		Store:    db,
		Remote:   client,
		NotifyFn: printNotice,
		LogFn:    logLine,
	}

	if cfg.MQTT.Enabled {
		pub, err := publisher.New(cfg.MQTT)
		if err != nil {
			logLine("warning", fmt.Sprintf("mqtt mirror disabled: %v", err))
		} else {
			s.mirror = pub
			engineCfg.Mirror = pub
		}
	}

	if opts.audit {
		if auditor, err := newAuditor(cfg); err != nil {
			logLine("warning", err.Error())
		} else {
			engineCfg.Auditor = auditor
		}
	}

	s.engine = syncer.New(engineCfg)
	s.engine.Load()

	if opts.pull && !offline {
		s.pull(ctx)
	}
	return s, nil
}

// pull refreshes the records and reports problems without failing
func (s *session) pull(ctx context.Context) syncer.Status {
	status, err := s.engine.Pull(ctx)
	switch {
	case err != nil:
		warnColor.Fprintf(os.Stderr, "! Sync failed, showing cached records: %v\n", err)
	case status == syncer.StatusOffline:
		logLine("debug", "no endpoint configured, working offline")
	}
	return status
}

func newAuditor(cfg *config.Config) (*audit.Gemini, error) {
	return audit.New(audit.Config{
		APIKey:  cfg.GetAuditAPIKey(),
		Model:   cfg.GetAuditModel(),
		BaseURL: cfg.GetAuditBaseURL(),
		Timeout: cfg.GetAuditTimeout(),
	})
}

func (s *session) Close() {
	if s.mirror != nil {
		s.mirror.Close()
	}
	if err := s.db.Close(); err != nil {
		logLine("warning", fmt.Sprintf("closing database: %v", err))
	}
}
