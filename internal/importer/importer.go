package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/plan"
	"github.com/claude/repcoach/internal/storage"
)

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	PlansImported   int
	PlansRejected   int
	ExercisesLoaded int64

	RejectedFiles []string
}

// Importer reads plan files from a directory and upserts them into the
// plan catalog. Files whose name starts with "exercises" hold catalog
// entries instead of a plan.
type Importer struct {
	store  storage.Store
	log    *slog.Logger
	dryRun bool
	userID int
	stats  Stats
}

// New creates a new Importer. userID owns the import log entries.
func New(store storage.Store, log *slog.Logger, userID int, dryRun bool) *Importer {
	return &Importer{store: store, log: log, userID: userID, dryRun: dryRun}
}

// Import processes every .json and .json.gz file under dir. Per-file
// failures are counted and logged; only store errors abort the run.
func (imp *Importer) Import(ctx context.Context, dir string) (*Stats, error) {
	start := time.Now()
	files, err := planFiles(dir)
	if err != nil {
		return &imp.stats, err
	}

	var logID int64
	if !imp.dryRun {
		logID, err = imp.store.InsertImportLog(ctx, storage.ImportLog{
			UserID: imp.userID,
			Source: dir,
			Status: "running",
		})
		if err != nil {
			return &imp.stats, fmt.Errorf("recording import: %w", err)
		}
	}

	runErr := imp.importFiles(ctx, files)

	if !imp.dryRun {
		entry := imp.logEntry(time.Since(start), runErr)
		if err := imp.store.UpdateImportLog(ctx, logID, entry); err != nil {
			imp.log.Error("updating import log", "id", logID, "error", err)
		}
	}
	return &imp.stats, runErr
}

func (imp *Importer) importFiles(ctx context.Context, files []string) error {
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := ReadFile(f)
		if err != nil {
			imp.log.Warn("read failed", "file", f, "error", err)
			imp.stats.FilesErrored++
			continue
		}
		if len(strings.TrimSpace(string(data))) == 0 {
			imp.stats.FilesSkipped++
			continue
		}

		if strings.HasPrefix(filepath.Base(f), "exercises") {
			err = imp.importCatalog(ctx, f, data)
		} else {
			err = imp.importPlan(ctx, f, data)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (imp *Importer) importPlan(ctx context.Context, file string, data []byte) error {
	var raw models.RawPlan
	if err := json.Unmarshal(data, &raw); err != nil {
		imp.log.Warn("parse failed", "file", file, "error", err)
		imp.stats.FilesErrored++
		return nil
	}
	if raw.ID == "" {
		raw.ID = uuid.NewString()
	}

	p, err := plan.Transform(raw)
	if err != nil {
		imp.log.Warn("plan rejected", "file", file, "plan_id", raw.ID, "error", err)
		imp.stats.PlansRejected++
		imp.stats.RejectedFiles = append(imp.stats.RejectedFiles, filepath.Base(file))
		return nil
	}

	imp.stats.FilesProcessed++
	if imp.dryRun {
		imp.stats.PlansImported++
		imp.log.Info("plan ok", "file", file, "plan_id", p.ID, "weeks", len(p.Weeks))
		return nil
	}

	if err := imp.store.UpsertPlan(ctx, raw); err != nil {
		return fmt.Errorf("storing plan %s from %s: %w", raw.ID, filepath.Base(file), err)
	}
	imp.stats.PlansImported++
	imp.log.Info("plan imported", "file", file, "plan_id", p.ID, "name", p.Name)
	return nil
}

func (imp *Importer) importCatalog(ctx context.Context, file string, data []byte) error {
	var list []models.CatalogExercise
	if err := json.Unmarshal(data, &list); err != nil {
		imp.log.Warn("parse failed", "file", file, "error", err)
		imp.stats.FilesErrored++
		return nil
	}

	valid := list[:0]
	for _, e := range list {
		if e.ID == "" || e.Name == "" {
			continue
		}
		valid = append(valid, e)
	}
	if len(valid) == 0 {
		imp.stats.FilesSkipped++
		return nil
	}

	imp.stats.FilesProcessed++
	if imp.dryRun {
		imp.stats.ExercisesLoaded += int64(len(valid))
		return nil
	}

	n, err := imp.store.UpsertExercises(ctx, valid)
	if err != nil {
		return fmt.Errorf("storing exercises from %s: %w", filepath.Base(file), err)
	}
	imp.stats.ExercisesLoaded += n
	return nil
}

func (imp *Importer) logEntry(elapsed time.Duration, runErr error) storage.ImportLog {
	ms := int(elapsed.Milliseconds())
	entry := storage.ImportLog{
		Status:          "success",
		FilesSeen:       imp.stats.FilesProcessed + imp.stats.FilesSkipped + imp.stats.FilesErrored + imp.stats.PlansRejected,
		PlansImported:   imp.stats.PlansImported,
		PlansRejected:   imp.stats.PlansRejected,
		ExercisesLoaded: imp.stats.ExercisesLoaded,
		DurationMs:      &ms,
	}
	if runErr != nil {
		msg := runErr.Error()
		entry.Status = "error"
		entry.ErrorMessage = &msg
	}
	if len(imp.stats.RejectedFiles) > 0 {
		meta, _ := json.Marshal(map[string]any{"rejected_files": imp.stats.RejectedFiles})
		raw := json.RawMessage(meta)
		entry.Metadata = &raw
	}
	return entry
}

// planFiles returns the .json and .json.gz files under dir in lexical order.
func planFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".json.gz") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}
