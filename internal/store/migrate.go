// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"path"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*/*.sql
var migrationFiles embed.FS

// goose keeps its base FS, dialect, and logger in package globals.
var gooseMu sync.Mutex

// migrate applies the embedded migrations for backend and returns the
// resulting schema version.
func migrate(ctx context.Context, db *sql.DB, backend string, logger *slog.Logger) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationFiles)
	goose.SetLogger(gooseLogger{logger})
	if err := goose.SetDialect(backend); err != nil {
		return 0, fmt.Errorf("goose dialect %s: %w", backend, err)
	}

	dir := path.Join("migrations", backend)
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, db)
}

// gooseLogger routes goose progress messages to slog at debug level.
type gooseLogger struct {
	logger *slog.Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...), "component", "goose")
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...), "component", "goose")
}
