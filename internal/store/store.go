// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists extracted documents to a relational database.
// SQLite is the default backend; PostgreSQL and MySQL are selected by
// DatabaseConfig.Driver. The schema is managed by embedded goose migrations.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/docextract/pkg/types"
)

const defaultListLimit = 20

// Store writes and reads document records.
type Store struct {
	db      *sql.DB
	backend string
}

// Summary is one row of List output.
type Summary struct {
	ID          string       `json:"id"`
	SourceFile  string       `json:"source_file"`
	Format      types.Format `json:"format"`
	Links       int          `json:"links"`
	Images      int          `json:"images"`
	Tables      int          `json:"tables"`
	ExtractedAt time.Time    `json:"extracted_at"`
}

// Open connects to the configured database, verifies the connection within
// cfg.ConnectTimeout, and applies pending migrations. Every failure is a
// *StorageError.
func Open(ctx context.Context, cfg types.DatabaseConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	name, err := driverName(cfg.Driver)
	if err != nil {
		return nil, storageErr("connect", err)
	}
	dsn, err := dataSourceName(cfg)
	if err != nil {
		return nil, storageErr("connect", err)
	}

	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, storageErr("connect", err)
	}
	if cfg.Driver == types.DriverSQLite {
		// One writer avoids SQLITE_BUSY between pooled connections.
		db.SetMaxOpenConns(1)
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = types.DefaultConnectTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, storageErr("connect", err)
	}

	version, err := migrate(ctx, db, cfg.Driver, logger)
	if err != nil {
		db.Close()
		return nil, storageErr("migrate", err)
	}
	logger.Debug("database ready", "driver", cfg.Driver, "schema_version", version)

	return &Store{db: db, backend: cfg.Driver}, nil
}

// New wraps an existing connection. The schema is assumed to be in place.
func New(db *sql.DB, backend string) *Store {
	return &Store{db: db, backend: backend}
}

// Close releases the database connection.
func (s *Store) Close() error {
	return storageErr("close", s.db.Close())
}

// Insert writes doc as a single row. It issues exactly one statement.
func (s *Store) Insert(ctx context.Context, doc *types.ExtractedDocument) error {
	if doc.ID == "" {
		return storageErr("insert", errors.New("document has no id"))
	}
	if err := doc.Validate(); err != nil {
		return storageErr("insert", err)
	}

	cols, err := encodeColumns(doc)
	if err != nil {
		return storageErr("insert", err)
	}

	query := s.rebind(`INSERT INTO documents
		(id, source_file, format, text_content, text_blocks, link_data, image_data, table_data, extracted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = s.db.ExecContext(ctx, query,
		doc.ID,
		doc.SourceFile,
		string(doc.Format),
		doc.Text,
		string(cols.blocks),
		string(cols.links),
		string(cols.images),
		string(cols.tables),
		doc.ExtractedAt.UTC(),
	)
	return storageErr("insert", err)
}

// Get reads the record with the given id. A missing record yields a
// *StorageError wrapping ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*types.ExtractedDocument, error) {
	query := s.rebind(`SELECT id, source_file, format, text_content, text_blocks, link_data, image_data, table_data, extracted_at
		FROM documents WHERE id = ?`)

	var (
		doc    types.ExtractedDocument
		format string
		cols   encodedColumns
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&doc.ID,
		&doc.SourceFile,
		&format,
		&doc.Text,
		&cols.blocks,
		&cols.links,
		&cols.images,
		&cols.tables,
		&doc.ExtractedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storageErr("get", fmt.Errorf("%w: %s", ErrNotFound, id))
	}
	if err != nil {
		return nil, storageErr("get", err)
	}

	doc.Format = types.Format(format)
	doc.ExtractedAt = doc.ExtractedAt.UTC()
	if err := cols.decode(&doc); err != nil {
		return nil, storageErr("get", err)
	}
	doc.Normalize()
	return &doc, nil
}

// List returns up to limit records, newest first. A non-positive limit
// uses the default of 20.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	query := s.rebind(`SELECT id, source_file, format, link_data, image_data, table_data, extracted_at
		FROM documents ORDER BY extracted_at DESC, id LIMIT ?`)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, storageErr("list", err)
	}
	defer rows.Close()

	summaries := []Summary{}
	for rows.Next() {
		var (
			sum    Summary
			format string
			cols   encodedColumns
			doc    types.ExtractedDocument
		)
		if err := rows.Scan(&sum.ID, &sum.SourceFile, &format, &cols.links, &cols.images, &cols.tables, &sum.ExtractedAt); err != nil {
			return nil, storageErr("list", err)
		}
		if err := cols.decode(&doc); err != nil {
			return nil, storageErr("list", err)
		}
		sum.Format = types.Format(format)
		sum.ExtractedAt = sum.ExtractedAt.UTC()
		sum.Links = len(doc.Links)
		sum.Images = len(doc.Images)
		sum.Tables = len(doc.Tables)
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list", err)
	}
	return summaries, nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.backend != types.DriverPostgres {
		return query
	}
	var (
		b strings.Builder
		n int
	)
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// encodedColumns holds the JSON-encoded sequence columns of a row.
type encodedColumns struct {
	blocks, links, images, tables []byte
}

func encodeColumns(doc *types.ExtractedDocument) (encodedColumns, error) {
	var (
		c   encodedColumns
		err error
	)
	if c.blocks, err = json.Marshal(doc.Blocks); err != nil {
		return c, fmt.Errorf("encoding text blocks: %w", err)
	}
	if c.links, err = json.Marshal(doc.Links); err != nil {
		return c, fmt.Errorf("encoding links: %w", err)
	}
	if c.images, err = json.Marshal(doc.Images); err != nil {
		return c, fmt.Errorf("encoding images: %w", err)
	}
	if c.tables, err = json.Marshal(doc.Tables); err != nil {
		return c, fmt.Errorf("encoding tables: %w", err)
	}
	return c, nil
}

// decode fills the sequences of doc from the non-empty columns.
func (c encodedColumns) decode(doc *types.ExtractedDocument) error {
	targets := []struct {
		name string
		data []byte
		dst  any
	}{
		{"text blocks", c.blocks, &doc.Blocks},
		{"links", c.links, &doc.Links},
		{"images", c.images, &doc.Images},
		{"tables", c.tables, &doc.Tables},
	}
	for _, t := range targets {
		if len(t.data) == 0 {
			continue
		}
		if err := json.Unmarshal(t.data, t.dst); err != nil {
			return fmt.Errorf("decoding %s: %w", t.name, err)
		}
	}
	return nil
}
