// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one extraction end to end: detect, extract, write
// locally, and record in the database. The local write and the database
// insert are independent; a failure in one does not undo or skip the other.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/docextract/internal/extract"
	"github.com/pdiddy/docextract/internal/logger"
	"github.com/pdiddy/docextract/internal/output"
	"github.com/pdiddy/docextract/internal/store"
	"github.com/pdiddy/docextract/pkg/types"
)

// Recorder persists one document record.
type Recorder interface {
	Insert(ctx context.Context, doc *types.ExtractedDocument) error
	Close() error
}

// Connector opens a Recorder for the duration of one run.
type Connector func(ctx context.Context) (Recorder, error)

// StoreConnector returns a Connector that opens the configured database.
func StoreConnector(cfg types.DatabaseConfig, log *slog.Logger) Connector {
	return func(ctx context.Context) (Recorder, error) {
		s, err := store.Open(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Result reports the outcome of each persistence step.
type Result struct {
	Document *types.ExtractedDocument

	// OutputDir is set when the local write succeeded.
	OutputDir string

	LocalErr error
	StoreErr error
}

// OK reports whether both persistence steps succeeded.
func (r *Result) OK() bool {
	return r.LocalErr == nil && r.StoreErr == nil
}

// Runner holds the collaborators of a run.
type Runner struct {
	DocumentsDir string
	Extractor    *extract.Extractor
	Writer       *output.Writer
	Connect      Connector
	Logger       *slog.Logger

	// Out receives one progress line per completed step.
	Out io.Writer

	now   func() time.Time
	newID func() string
}

// New builds a Runner from cfg.
func New(cfg types.Config, log *slog.Logger, out io.Writer) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		DocumentsDir: cfg.DocumentsDir,
		Extractor:    extract.New(log),
		Writer:       output.NewWriter(cfg.OutputDir),
		Connect:      StoreConnector(cfg.Database, log),
		Logger:       log,
		Out:          out,
	}
}

// Resolve maps a user-supplied file name to a path. Absolute paths are used
// as given; anything else is looked up in DocumentsDir.
func (r *Runner) Resolve(filename string) string {
	if filepath.IsAbs(filename) || r.DocumentsDir == "" {
		return filename
	}
	return filepath.Join(r.DocumentsDir, filename)
}

// Run processes filename. Detection and extraction failures stop the run
// before anything is written. Otherwise both persistence steps are
// attempted and the returned error joins their failures.
func (r *Runner) Run(ctx context.Context, filename string) (*Result, error) {
	path := r.Resolve(filename)

	doc, err := r.Extractor.Extract(ctx, path)
	if err != nil {
		return nil, err
	}
	doc.ID = r.id()
	doc.ExtractedAt = r.timestamp()

	ctx = logger.WithRunID(ctx, doc.ID)
	log := logger.FromContext(ctx, r.Logger)
	r.progress("extracted: %s (%s) %d blocks, %d links, %d images, %d tables\n",
		doc.SourceFile, doc.Format, len(doc.Blocks), len(doc.Links), len(doc.Images), len(doc.Tables))

	res := &Result{Document: doc}

	dir, err := r.Writer.Write(doc)
	if err != nil {
		res.LocalErr = fmt.Errorf("writing local output: %w", err)
		log.Error("local write failed", "error", err)
		r.progress("failed:  local output (%v)\n", err)
	} else {
		res.OutputDir = dir
		log.Info("local output written", "dir", dir)
		r.progress("saved:   %s\n", dir)
	}

	if err := r.record(ctx, doc); err != nil {
		res.StoreErr = err
		log.Error("database insert failed", "error", err)
		r.progress("failed:  database (%v)\n", err)
	} else {
		log.Info("database record inserted", "id", doc.ID)
		r.progress("stored:  %s\n", doc.ID)
	}

	return res, errors.Join(res.LocalErr, res.StoreErr)
}

// record opens a connection, inserts doc, and always releases the
// connection. A close failure is reported only when the insert succeeded.
func (r *Runner) record(ctx context.Context, doc *types.ExtractedDocument) (err error) {
	if r.Connect == nil {
		return &store.StorageError{Op: "connect", Err: errors.New("no database configured")}
	}
	rec, err := r.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rec.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return rec.Insert(ctx, doc)
}

func (r *Runner) id() string {
	if r.newID != nil {
		return r.newID()
	}
	return uuid.NewString()
}

// timestamp returns the current UTC time at microsecond precision, the
// finest resolution every backend stores.
func (r *Runner) timestamp() time.Time {
	now := time.Now
	if r.now != nil {
		now = r.now
	}
	return now().UTC().Truncate(time.Microsecond)
}

func (r *Runner) progress(format string, args ...any) {
	if r.Out != nil {
		fmt.Fprintf(r.Out, format, args...)
	}
}
