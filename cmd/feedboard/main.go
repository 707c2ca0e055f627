package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/feedboard/internal/config"
	"github.com/TobiSchelling/feedboard/internal/database"
	"github.com/TobiSchelling/feedboard/internal/logger"
	"github.com/TobiSchelling/feedboard/internal/pipeline"
	"github.com/TobiSchelling/feedboard/internal/scheduler"
	"github.com/TobiSchelling/feedboard/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "feedboard",
	Short:   "Refresh a news feed snapshot",
	Long:    "feedboard fetches the RSS and Atom feeds listed in a snapshot document, scores the newest articles and republishes the document.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return logger.Init(logger.Config{Level: levelFor("info")})
		}

		path, err := config.ResolveConfigPath(configPath)
		switch {
		case err == nil:
			cfg, err = config.Load(path)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
		case configPath == "":
			cfg = config.Default()
		default:
			return err
		}

		lc := cfg.Logging
		if err := logger.Init(logger.Config{
			Level:      levelFor(lc.Level),
			File:       lc.File,
			MaxSize:    lc.MaxSizeMB,
			MaxBackups: lc.MaxBackups,
			MaxAge:     lc.MaxAgeDays,
		}); err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		if path != "" {
			logger.Debugf("[config] loaded %s", path)
		} else {
			logger.Debugf("[config] no config file, using defaults")
		}
		return nil
	},
}

func levelFor(level string) string {
	if verbose {
		return "debug"
	}
	return level
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	rootCmd.SilenceUsage = true

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("feedboard", version)
	},
}

// --- init command ---

var initSnapshot string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config in ~/.config/feedboard/ and a starter snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
		} else {
			if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
				return fmt.Errorf("creating config directory: %w", err)
			}
			if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}
			fmt.Printf("Created config: %s\n", target)
		}

		created, err := writeStarterSnapshot(initSnapshot)
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("Created snapshot: %s\n", initSnapshot)
			fmt.Println("Edit it to list your sources, then run 'feedboard refresh'.")
		} else {
			fmt.Printf("Snapshot already exists: %s\n", initSnapshot)
		}
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initSnapshot, "snapshot", filepath.Join("config", "config.json"), "Where to write the starter snapshot")
}

// writeStarterSnapshot writes the starter document unless path exists.
func writeStarterSnapshot(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("creating snapshot directory: %w", err)
	}
	if err := os.WriteFile(path, config.StarterSnapshotJSON, 0o644); err != nil {
		return false, fmt.Errorf("writing snapshot: %w", err)
	}
	return true, nil
}

// --- refresh command ---

var dryRun bool

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch every feed and republish the snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		var db *database.DB
		if !dryRun {
			db = openHistory()
			if db != nil {
				defer db.Close()
			}
		}

		pipe := pipeline.New(cfg, db)

		var (
			result *pipeline.Result
			err    error
		)
		if dryRun {
			result, err = pipe.DryRun(cmd.Context())
		} else {
			result, err = pipe.Run(cmd.Context())
		}
		if err != nil {
			return err
		}

		printReport(result.Report)

		if dryRun {
			fmt.Printf("\n[dry-run] %s not written\n", result.Path)
			return nil
		}
		fmt.Printf("\nrefreshed feeds at %s\n", result.UpdatedAt)
		return nil
	},
}

func init() {
	refreshCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Refresh in memory and print results without writing the snapshot")
}

func printReport(r *pipeline.Report) {
	for _, f := range r.Feeds {
		if f.OK() {
			fmt.Printf("  ok    %-20s %-20s %d articles (%s)\n", f.Source, f.Topic, f.Articles, f.Duration.Round(time.Millisecond))
		} else {
			fmt.Printf("  FAIL  %-20s %-20s %v\n", f.Source, f.Topic, f.Err)
		}
	}
	fmt.Printf("\n%d feeds refreshed, %d kept previous articles\n", r.Succeeded(), r.Failed())
}

// --- status command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last refresh and failing feeds",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Snapshot: %s\n", cfg.Snapshot.Path)
		fmt.Printf("History: %s\n\n", db.Path())
		fmt.Println("Runs:")
		fmt.Printf("  Total: %d\n", stats.TotalRuns)
		fmt.Printf("  Published: %d\n", stats.PublishedRuns)
		fmt.Printf("  Failed: %d\n", stats.FailedRuns)

		last := stats.LastRun
		if last == nil {
			fmt.Println("\nNo refresh recorded yet. Run 'feedboard refresh'.")
			return nil
		}

		fmt.Println("\nLast run:")
		fmt.Printf("  Started: %s\n", last.StartedAt)
		fmt.Printf("  Status: %s\n", last.Status)
		if last.UpdatedAt != nil {
			fmt.Printf("  Snapshot updated at: %s\n", *last.UpdatedAt)
		}
		if last.Error != nil {
			fmt.Printf("  Error: %s\n", *last.Error)
		}
		fmt.Printf("  Feeds: %d ok, %d failed of %d\n", last.FeedsOK, last.FeedsFailed, last.FeedsTotal)

		failing, err := db.GetFailingFeeds()
		if err != nil {
			return fmt.Errorf("getting failing feeds: %w", err)
		}
		if len(failing) > 0 {
			fmt.Println("\nFailing feeds:")
			for _, f := range failing {
				msg := ""
				if f.Error != nil {
					msg = *f.Error
				}
				fmt.Printf("  %s / %s (%s): %s [%d runs in a row]\n",
					f.SourceName, f.Topic, f.RSSURL, msg, f.ConsecutiveFailures)
			}
		}
		return nil
	},
}

// --- serve command ---

var (
	servePort     int
	serveSchedule string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the snapshot over HTTP, optionally refreshing on a schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}
		spec := cfg.Refresh.Schedule
		if cmd.Flags().Changed("schedule") {
			spec = serveSchedule
		}

		db := openHistory()
		if db != nil {
			defer db.Close()
		}

		if spec != "" {
			sched, err := scheduler.New(spec, pipeline.New(cfg, db))
			if err != nil {
				return fmt.Errorf("invalid schedule %q: %w", spec, err)
			}
			sched.Start()
			defer sched.Stop()
		}

		srv := server.New(cfg.Snapshot.Path, db)
		fmt.Printf("Starting server at http://%s\n", cfg.Addr())
		return server.Serve(cmd.Context(), srv.Handler(), cfg.Addr())
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
	serveCmd.Flags().StringVar(&serveSchedule, "schedule", "", `Cron spec for periodic refresh, e.g. "*/15 * * * *"`)
}

func openDB() (*database.DB, error) {
	return database.Open(cfg.GetDataDir())
}

// openHistory opens the run history database. Refreshes still work without
// it, so failures are only logged.
func openHistory() *database.DB {
	db, err := openDB()
	if err != nil {
		logger.Warnf("[history] run history disabled: %v", err)
		return nil
	}
	return db
}
