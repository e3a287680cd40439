// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gigfeed/gigfeed/internal/feed"
	"github.com/gigfeed/gigfeed/internal/storage"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// RecordStoreConfig controls the Postgres connection pool used for record rows.
type RecordStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pgxPool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Close()
}

// RecordStore persists canonical records in Postgres. Record content lives in
// a JSONB column; review status and timestamps are first-class columns.
type RecordStore struct {
	pool  pgxPool
	table string
	clock feed.Clock
}

// NewRecordStore creates a Postgres-backed RecordStore using the provided config.
func NewRecordStore(ctx context.Context, cfg RecordStoreConfig, clock feed.Clock) (*RecordStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("storage.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "records"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if clock == nil {
		clock = feed.SystemClock()
	}
	return &RecordStore{pool: pool, table: table, clock: clock}, nil
}

// NewRecordStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewRecordStoreWithPool(pool pgxPool, table string, clock feed.Clock) (*RecordStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "records"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if clock == nil {
		clock = feed.SystemClock()
	}
	return &RecordStore{pool: pool, table: table, clock: clock}, nil
}

// Close releases the underlying pool resources.
func (s *RecordStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Upsert inserts a record as pending or refreshes an existing row's content.
// The conflict branch deliberately leaves status and created_at untouched.
func (s *RecordStore) Upsert(ctx context.Context, tenant string, record feed.Record) error {
	if record.ID == "" {
		return fmt.Errorf("record id is required")
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	now := s.clock.Now()
	query := fmt.Sprintf(`
INSERT INTO %s (tenant, record_id, source, record, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$6)
ON CONFLICT (tenant, record_id) DO UPDATE
SET record = EXCLUDED.record, updated_at = EXCLUDED.updated_at`, s.table)

	args := []any{tenant, record.ID, string(record.Source), payload, string(storage.StatusPending), now}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	return nil
}

// Get fetches one record row.
func (s *RecordStore) Get(ctx context.Context, tenant, id string) (storage.StoredRecord, error) {
	query := fmt.Sprintf(`
SELECT record, status, created_at, updated_at
FROM %s WHERE tenant = $1 AND record_id = $2`, s.table)

	var (
		payload              []byte
		status               string
		createdAt, updatedAt time.Time
	)
	err := s.pool.QueryRow(ctx, query, tenant, id).Scan(&payload, &status, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.StoredRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.StoredRecord{}, fmt.Errorf("query record: %w", err)
	}
	return decodeRow(tenant, payload, status, createdAt, updatedAt)
}

// List returns the tenant's records matching the filter, newest update first.
func (s *RecordStore) List(ctx context.Context, tenant string, filter storage.ListFilter) ([]storage.StoredRecord, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
SELECT record, status, created_at, updated_at
FROM %s WHERE tenant = $1`, s.table)
	args := []any{tenant}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Source != "" {
		args = append(args, string(filter.Source))
		query += fmt.Sprintf(" AND source = $%d", len(args))
	}
	query += " ORDER BY updated_at DESC, record_id ASC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []storage.StoredRecord
	for rows.Next() {
		var (
			payload              []byte
			status               string
			createdAt, updatedAt time.Time
		)
		if err := rows.Scan(&payload, &status, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan record row: %w", err)
		}
		rec, err := decodeRow(tenant, payload, status, createdAt, updatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate record rows: %w", err)
	}
	return out, nil
}

// UpdateStatus moves a record to a new review status.
func (s *RecordStore) UpdateStatus(ctx context.Context, tenant, id string, status storage.RecordStatus) error {
	if !storage.ValidStatus(status) {
		return fmt.Errorf("%w: %q", storage.ErrInvalidStatus, status)
	}
	query := fmt.Sprintf(`
UPDATE %s SET status = $3, updated_at = $4
WHERE tenant = $1 AND record_id = $2`, s.table)

	tag, err := s.pool.Exec(ctx, query, tenant, id, string(status), s.clock.Now())
	if err != nil {
		return fmt.Errorf("update record status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func decodeRow(tenant string, payload []byte, status string, createdAt, updatedAt time.Time) (storage.StoredRecord, error) {
	var record feed.Record
	if err := json.Unmarshal(payload, &record); err != nil {
		return storage.StoredRecord{}, fmt.Errorf("unmarshal record: %w", err)
	}
	return storage.StoredRecord{
		Tenant:    tenant,
		Record:    record,
		Status:    storage.RecordStatus(status),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}
