// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docextract/pkg/types"
)

func testDocument(id, source string, at time.Time) *types.ExtractedDocument {
	doc := &types.ExtractedDocument{
		ID:          id,
		SourceFile:  source,
		Format:      types.FormatPDF,
		Blocks:      []types.TextBlock{{Location: types.Location{Page: 1}, Text: "hello world"}},
		Links:       []types.Link{{Location: types.Location{Page: 1}, URL: "https://example.com"}},
		Images:      []types.Image{{Location: types.Location{Page: 1}, Extension: "png", Width: 2, Height: 2, Data: []byte{1, 2, 3}}},
		Tables:      []types.Table{{Location: types.Location{Page: 1}, Rows: [][]string{{"a", "b"}, {"1", "2"}}}},
		ExtractedAt: at,
	}
	doc.Normalize()
	return doc
}

func openSQLite(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), types.DatabaseConfig{
		Driver:         types.DriverSQLite,
		Path:           filepath.Join(t.TempDir(), "db", "documents.db"),
		ConnectTimeout: time.Second,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteRoundTrip(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	doc := testDocument("3b241101-e2bb-4255-8caf-4136c566a962", "report.pdf", time.Date(2026, 5, 1, 12, 0, 0, 123456000, time.UTC))
	require.NoError(t, s.Insert(ctx, doc))

	got, err := s.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, doc.ExtractedAt.Equal(got.ExtractedAt), "extracted_at %v != %v", doc.ExtractedAt, got.ExtractedAt)
	got.ExtractedAt = doc.ExtractedAt
	assert.Equal(t, doc, got)
}

func TestSQLiteListNewestFirst(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Insert(ctx, testDocument("00000000-0000-4000-8000-000000000001", "old.pdf", base)))
	require.NoError(t, s.Insert(ctx, testDocument("00000000-0000-4000-8000-000000000002", "new.pdf", base.Add(time.Hour))))
	// Reprocessing the same file produces a second record.
	require.NoError(t, s.Insert(ctx, testDocument("00000000-0000-4000-8000-000000000003", "old.pdf", base.Add(2*time.Hour))))

	list, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "00000000-0000-4000-8000-000000000003", list[0].ID)
	assert.Equal(t, "new.pdf", list[1].SourceFile)
	assert.Equal(t, 1, list[0].Links)
	assert.Equal(t, 1, list[0].Images)
	assert.Equal(t, 1, list[0].Tables)
	assert.Equal(t, types.FormatPDF, list[0].Format)

	limited, err := s.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteDuplicateIDFails(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	doc := testDocument("00000000-0000-4000-8000-00000000000a", "a.pdf", time.Now().UTC())
	require.NoError(t, s.Insert(ctx, doc))

	err := s.Insert(ctx, doc)
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "insert", se.Op)
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "documents.db")
	cfg := types.DatabaseConfig{Driver: types.DriverSQLite, Path: path}
	ctx := context.Background()

	s, err := Open(ctx, cfg, nil)
	require.NoError(t, err)
	require.NoError(t, s.Insert(ctx, testDocument("00000000-0000-4000-8000-0000000000aa", "a.pdf", time.Now().UTC())))
	require.NoError(t, s.Close())

	// Migrations are already applied; reopening must not fail or drop rows.
	s, err = Open(ctx, cfg, nil)
	require.NoError(t, err)
	defer s.Close()
	list, err := s.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGetNotFound(t *testing.T) {
	s := openSQLite(t)
	_, err := s.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)

	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "get", se.Op)
}

func TestInsertIssuesSingleStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	doc := testDocument("11111111-2222-4333-8444-555555555555", "report.pdf", at)

	mock.ExpectExec("INSERT INTO documents").
		WithArgs(
			doc.ID,
			"report.pdf",
			"PDF",
			"hello world",
			sqlmock.AnyArg(), // text_blocks
			`[{"page":1,"url":"https://example.com"}]`,
			sqlmock.AnyArg(), // image_data
			`[{"page":1,"rows":[["a","b"],["1","2"]]}]`,
			at,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, New(db, types.DriverMySQL).Insert(context.Background(), doc))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertPostgresPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec(`VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8, \$9\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	doc := testDocument("11111111-2222-4333-8444-555555555555", "report.pdf", time.Now().UTC())
	require.NoError(t, New(db, types.DriverPostgres).Insert(context.Background(), doc))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertFailureIsStorageError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cause := errors.New("connection reset")
	mock.ExpectExec("INSERT INTO documents").WillReturnError(cause)

	err = New(db, types.DriverSQLite).Insert(context.Background(), testDocument("x", "a.pdf", time.Now()))
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "insert", se.Op)
	assert.ErrorIs(t, err, cause)
}

func TestInsertRejectsMissingID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	err = New(db, types.DriverSQLite).Insert(context.Background(), testDocument("", "a.pdf", time.Now()))
	var se *StorageError
	require.ErrorAs(t, err, &se)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListWithMock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	at := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "source_file", "format", "link_data", "image_data", "table_data", "extracted_at"}).
		AddRow("id-1", "deck.pptx", "PPTX", `[{"slide":1,"url":"https://a"},{"slide":2,"url":"https://b"}]`, `[]`, `[]`, at)
	mock.ExpectQuery("SELECT id, source_file, format").WithArgs(5).WillReturnRows(rows)

	list, err := New(db, types.DriverSQLite).List(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, Summary{ID: "id-1", SourceFile: "deck.pptx", Format: types.FormatPPTX, Links: 2, ExtractedAt: at}, list[0])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenUnreachable(t *testing.T) {
	for _, driver := range []string{types.DriverMySQL, types.DriverPostgres} {
		t.Run(driver, func(t *testing.T) {
			_, err := Open(context.Background(), types.DatabaseConfig{
				Driver:         driver,
				Host:           "127.0.0.1",
				Port:           1,
				User:           "nobody",
				Name:           "documents",
				ConnectTimeout: 500 * time.Millisecond,
			}, nil)
			var se *StorageError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, "connect", se.Op)
		})
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), types.DatabaseConfig{Driver: "oracle"}, nil)
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, err.Error(), "oracle")
}
