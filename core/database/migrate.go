package database

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/m3rciful/offerbot/core/logger"
)

// postgresReadyTimeout bounds the wait for a freshly started container.
const postgresReadyTimeout = 30 * time.Second

type migrationFile struct {
	name    string
	version uint64
}

// RunMigrations applies pending up migrations from <MigrationsDir>/<driver>.
// The memory driver has no schema and returns immediately.
func RunMigrations(cfg Config) error {
	ctx := context.Background()
	if cfg.Driver == DriverMemory {
		logger.LogEvent(ctx, logger.MIG, slog.LevelDebug, "db.migrate",
			slog.String("status", "skipped"),
			slog.String("driver", cfg.Driver),
		)
		return nil
	}

	dsn := cfg.MigrateURL()
	if cfg.Driver == DriverPostgres {
		waitCtx, cancel := context.WithTimeout(ctx, postgresReadyTimeout)
		err := WaitForPostgres(waitCtx, cfg.DSN())
		cancel()
		if err != nil {
			return migrateFailed(ctx, "wait", fmt.Errorf("database not ready: %w", err))
		}
	}

	dir, err := resolveMigrationsDir(cfg)
	if err != nil {
		return migrateFailed(ctx, "resolve", err)
	}
	files := listMigrations(dir)
	logger.LogEvent(ctx, logger.MIG, slog.LevelDebug, "resolve", fileAttrs(dir, files)...)

	m, err := migrate.New("file://"+filepath.ToSlash(dir), dsn)
	if err != nil {
		return migrateFailed(ctx, "init", fmt.Errorf("failed to initialize migrations: %w", err))
	}
	defer func() { _, _ = m.Close() }()

	from, _, _ := m.Version()
	start := time.Now()
	upErr := m.Up()
	took := time.Since(start)
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return migrateFailed(ctx, "apply", fmt.Errorf("migration execution failed: %w", upErr))
	}
	to, _, _ := m.Version()

	applied := appliedBetween(files, uint64(from), uint64(to))
	if len(applied) > 0 {
		logger.LogEvent(ctx, logger.MIG, slog.LevelDebug, "apply", fileAttrs("", applied)...)
	}
	logger.LogEvent(ctx, logger.MIG, slog.LevelInfo, "summary",
		slog.String("status", "ok"),
		slog.Uint64("from_ver", uint64(from)),
		slog.Uint64("to_ver", uint64(to)),
		slog.Int("files", len(applied)),
		slog.Duration("duration", logger.RoundMS(took)),
	)
	return nil
}

func migrateFailed(ctx context.Context, stage string, err error) error {
	logger.LogEvent(ctx, logger.MIG, slog.LevelError, "db.migrate",
		slog.String("status", "error"),
		slog.String("stage", stage),
		slog.String("err", err.Error()),
	)
	return err
}

func fileAttrs(dir string, files []migrationFile) []slog.Attr {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.name
	}
	attrs := []slog.Attr{slog.Int("files_total", len(names))}
	if dir != "" {
		attrs = append(attrs, slog.String("path", dir))
	}
	if preview, truncated := logger.SummarizeStrings(names, 6); preview != "" {
		attrs = append(attrs, slog.String("files_preview", preview))
		if truncated {
			attrs = append(attrs, slog.Bool("files_truncated", true))
		}
	}
	return attrs
}

// resolveMigrationsDir returns the absolute <MigrationsDir>/<driver> path.
// Relative directories are taken from the working directory.
func resolveMigrationsDir(cfg Config) (string, error) {
	base := cmp.Or(cfg.MigrationsDir, "migrations")
	abs, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolve migrations dir: %w", err)
	}
	dir := filepath.Join(abs, cfg.Driver)
	if _, err := os.Stat(dir); err != nil {
		return "", fmt.Errorf("migrations directory %s: %w", dir, err)
	}
	return dir, nil
}

// listMigrations returns the up files in dir ordered by version.
func listMigrations(dir string) []migrationFile {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []migrationFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".up.sql") {
			continue
		}
		out = append(out, migrationFile{name: e.Name(), version: migrationVersion(e.Name())})
	}
	slices.SortFunc(out, func(a, b migrationFile) int {
		return cmp.Or(cmp.Compare(a.version, b.version), strings.Compare(a.name, b.name))
	})
	return out
}

func migrationVersion(name string) uint64 {
	prefix, _, _ := strings.Cut(name, "_")
	v, _ := strconv.ParseUint(prefix, 10, 64)
	return v
}

// appliedBetween returns the files with from < version <= to.
func appliedBetween(files []migrationFile, from, to uint64) []migrationFile {
	var out []migrationFile
	for _, f := range files {
		if f.version > from && f.version <= to {
			out = append(out, f)
		}
	}
	return out
}

// WaitForPostgres pings dsn every two seconds until it answers or ctx ends.
func WaitForPostgres(ctx context.Context, dsn string) error {
	db, err := sql.Open(DriverPostgres, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	tick := time.NewTicker(2 * time.Second)
	defer tick.Stop()
	for {
		err := db.PingContext(ctx)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout reached waiting for database: %w", err)
		case <-tick.C:
		}
	}
}
