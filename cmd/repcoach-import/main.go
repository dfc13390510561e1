package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/repcoach/internal/config"
	"github.com/claude/repcoach/internal/importer"
	"github.com/claude/repcoach/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	plansPath := flag.String("path", "", "directory of .json / .json.gz plan files (required)")
	login := flag.String("user", "local", "login recorded as the owner of the import log")
	dryRun := flag.Bool("dry-run", false, "validate plans without writing to the database")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *plansPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: repcoach-import -config config.yaml -path /path/to/plans [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	info, err := os.Stat(*plansPath)
	if err != nil || !info.IsDir() {
		log.Error("plans path does not exist or is not a directory", "path", *plansPath)
		os.Exit(1)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dsn := cfg.Database.DSN()

	// Run migrations
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	ctx := context.Background()

	if *dryRun {
		log.Info("DRY RUN mode: no data will be written to the database")
	}

	// Connect database
	db, err := storage.New(ctx, dsn, cfg.Database.MaxConns)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	userID, err := db.GetOrCreateUser(ctx, *login, *login)
	if err != nil {
		log.Error("resolving user", "login", *login, "error", err)
		os.Exit(1)
	}

	// Run import
	imp := importer.New(db, log, userID, *dryRun)
	stats, err := imp.Import(ctx, *plansPath)
	if err != nil {
		log.Error("import failed", "error", err)
		printStats(log, stats)
		os.Exit(1)
	}

	printStats(log, stats)
	log.Info("import complete")
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	log.Info("import stats",
		"files_processed", stats.FilesProcessed,
		"files_skipped", stats.FilesSkipped,
		"files_errored", stats.FilesErrored,
		"plans_imported", stats.PlansImported,
		"plans_rejected", stats.PlansRejected,
		"exercises_loaded", stats.ExercisesLoaded,
	)
	if len(stats.RejectedFiles) > 0 {
		log.Info("rejected plan files", "files", stats.RejectedFiles)
	}
}
