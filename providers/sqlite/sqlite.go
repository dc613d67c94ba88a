// Package sqlite stores tagged documents in a SQLite table. Each row holds
// the JSON body produced by a type-preserving Serializer; listing by type
// reads the type tag straight from the body.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	jsonodm "github.com/kenfreee/doctrine-json-odm"
	"github.com/kenfreee/doctrine-json-odm/internal/document"
	"github.com/kenfreee/doctrine-json-odm/internal/schema"
)

// Record is a stored document as read back from the table.
type Record struct {
	ID        string
	Type      string
	Value     any
	Digest    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store is a document store over a SQLite database.
type Store struct {
	db         *sql.DB
	table      schema.DocumentsTable
	serializer document.Serializer
	logger     *jsonodm.Logger
	now        func() time.Time
}

// Option configures a Store.
type Option func(*Store) error

// WithTable sets the table name. Default: documents
func WithTable(name string) Option {
	return func(s *Store) error {
		table, err := schema.NewDocumentsTable(schema.SQLite, name)
		if err != nil {
			return fmt.Errorf("%w: %w", jsonodm.ErrInvalidConfiguration, err)
		}
		s.table = table
		return nil
	}
}

// WithLogger sets the logger. Default: a production logger.
func WithLogger(logger *jsonodm.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			return fmt.Errorf("%w: logger cannot be nil", jsonodm.ErrInvalidConfiguration)
		}
		s.logger = logger
		return nil
	}
}

// Open opens the SQLite database at path and prepares the store.
func Open(ctx context.Context, path string, serializer *jsonodm.Serializer, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	store, err := New(ctx, db, serializer, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// New prepares a store over an open database, creating the documents table
// when it does not exist.
func New(ctx context.Context, db *sql.DB, serializer *jsonodm.Serializer, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: database cannot be nil", jsonodm.ErrInvalidConfiguration)
	}
	if serializer == nil {
		return nil, fmt.Errorf("%w: serializer cannot be nil", jsonodm.ErrInvalidConfiguration)
	}
	table, _ := schema.NewDocumentsTable(schema.SQLite, "")
	s := &Store{
		db:         db,
		table:      table,
		serializer: serializer,
		logger:     jsonodm.NewProductionLogger("sqlite-store"),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	for _, stmt := range s.table.CreateStatements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to create %s table: %w", s.table.Name, err)
		}
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores v under a new random ID and returns it.
func (s *Store) Save(ctx context.Context, v any) (string, error) {
	id := uuid.NewString()
	if err := s.Put(ctx, id, v); err != nil {
		return "", err
	}
	return id, nil
}

// Put stores v under id, replacing any previous document.
func (s *Store) Put(ctx context.Context, id string, v any) error {
	if id == "" {
		return fmt.Errorf("%w: document id cannot be empty", jsonodm.ErrInvalidConfiguration)
	}
	doc, err := document.Encode(ctx, s.serializer, id, jsonodm.TypeNameOf(v), v)
	if err != nil {
		return err
	}

	now := s.now()
	if _, err := s.db.ExecContext(ctx, s.table.UpsertStatement(), doc.ID, doc.Type, string(doc.Body), doc.Digest, now, now); err != nil {
		return fmt.Errorf("failed to store document %s: %w", id, err)
	}
	s.logger.WithContext(ctx).Debug("document stored", "id", id, "type", doc.Type, "digest", doc.Digest)
	return nil
}

// Get loads the document stored under id and rebuilds its value.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, s.table.SelectStatement(), id)
	rec, doc, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: document %s", jsonodm.ErrNotFound, id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to load document %s: %w", id, err)
	}

	rec.Value, err = document.Decode(ctx, s.serializer, doc)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// GetInto loads the document stored under id into dst, a non-nil pointer.
func (s *Store) GetInto(ctx context.Context, id string, dst any) error {
	row := s.db.QueryRowContext(ctx, s.table.SelectStatement(), id)
	_, doc, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: document %s", jsonodm.ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to load document %s: %w", id, err)
	}
	return document.DecodeInto(ctx, s.serializer, doc, dst)
}

// Delete removes the document stored under id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.table.DeleteStatement(), id)
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: document %s", jsonodm.ErrNotFound, id)
	}
	return nil
}

// ListByType returns the documents whose body is tagged with typeName,
// oldest first.
func (s *Store) ListByType(ctx context.Context, typeName string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, s.table.SelectByTypeStatement(), typeName)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents of type %s: %w", typeName, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, doc, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read document row: %w", err)
		}
		rec.Value, err = document.Decode(ctx, s.serializer, doc)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list documents of type %s: %w", typeName, err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (Record, document.Document, error) {
	var (
		rec  Record
		body string
	)
	if err := row.Scan(&rec.ID, &rec.Type, &body, &rec.Digest, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return Record{}, document.Document{}, err
	}
	doc := document.Document{ID: rec.ID, Type: rec.Type, Body: []byte(body), Digest: rec.Digest}
	return rec, doc, nil
}
