// Package postgres stores import records as JSONB documents in PostgreSQL.
package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/gereecole/internal/core"
	"github.com/JonMunkholm/gereecole/internal/store"
)

//go:embed schema.sql
var schemaSQL string

const (
	insertDocumentSQL = `
		INSERT INTO documents (id, tenant_id, collection, parent_collection, parent_id, data)
		VALUES ($1, $2, $3, $4, $5, $6)`

	listClassesSQL = `
		SELECT id::text, COALESCE(data->>'name', '')
		FROM documents
		WHERE tenant_id = $1 AND collection = $2 AND parent_id IS NULL
		ORDER BY created_at, id`

	listStudentsSQL = `
		SELECT id::text,
		       COALESCE(data->>'matricule', ''),
		       COALESCE(data->>'firstName', ''),
		       COALESCE(data->>'lastName', '')
		FROM documents
		WHERE tenant_id = $1 AND collection = $2 AND parent_id IS NULL
		ORDER BY created_at, id`
)

// Options configures the connection pool.
type Options struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Store is a core.Store over a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ core.Store = (*Store)(nil)

// Open connects a pool and verifies it with a ping.
func Open(ctx context.Context, opts Options) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	if opts.MaxConns > 0 {
		poolConfig.MaxConns = int32(opts.MaxConns)
	}
	if opts.MinConns > 0 {
		poolConfig.MinConns = int32(opts.MinConns)
	}
	if opts.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return New(pool), nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate creates the documents table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate documents: %w", err)
	}
	return nil
}

// CreateRecord inserts rec as a new document and returns its id.
func (s *Store) CreateRecord(ctx context.Context, tenantID string, rec core.Record) (string, error) {
	data, err := json.Marshal(rec.Doc)
	if err != nil {
		return "", fmt.Errorf("encode %s document: %w", rec.Collection, err)
	}

	id := uuid.New()
	parentCollection, parentID := parentColumns(rec.Parent)

	_, err = s.pool.Exec(ctx, insertDocumentSQL,
		pgtype.UUID{Bytes: id, Valid: true},
		tenantID,
		rec.Collection,
		parentCollection,
		parentID,
		data,
	)
	if err != nil {
		return "", fmt.Errorf("insert into %s: %w", rec.Path(), err)
	}
	return id.String(), nil
}

// parentColumns maps an optional parent to nullable columns.
func parentColumns(p *core.ParentRef) (pgtype.Text, pgtype.Text) {
	if p == nil {
		return pgtype.Text{}, pgtype.Text{}
	}
	return pgtype.Text{String: p.Collection, Valid: true}, pgtype.Text{String: p.ID, Valid: true}
}

// ListClasses returns the tenant's classes, oldest first.
func (s *Store) ListClasses(ctx context.Context, tenantID string) ([]core.ClassRef, error) {
	rows, err := s.pool.Query(ctx, listClassesSQL, tenantID, store.ClassesCollection)
	if err != nil {
		return nil, fmt.Errorf("query classes: %w", err)
	}

	classes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.ClassRef, error) {
		var c core.ClassRef
		err := row.Scan(&c.ID, &c.Name)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan classes: %w", err)
	}
	return classes, nil
}

// ListStudents returns the tenant's students, oldest first.
func (s *Store) ListStudents(ctx context.Context, tenantID string) ([]core.StudentRef, error) {
	rows, err := s.pool.Query(ctx, listStudentsSQL, tenantID, store.StudentsCollection)
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}

	students, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.StudentRef, error) {
		var st core.StudentRef
		err := row.Scan(&st.ID, &st.Matricule, &st.FirstName, &st.LastName)
		return st, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan students: %w", err)
	}
	return students, nil
}

// Ping checks the pool.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases every pooled connection.
func (s *Store) Close(context.Context) error {
	s.pool.Close()
	return nil
}
