// Package history is the calculation/export audit log: one row per
// successful calculation and per PDF export, kept so a disputed estimate can
// be traced back to the exact inputs and final figure that were shown.
package history

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	"github.com/oklog/ulid/v2"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	KindCalculation = "calculation"
	KindExport      = "export"
)

// Record is one audit row. FinalPayable is the derived figure that was
// displayed, not the remote's echoed total.
type Record struct {
	ID           string  `db:"id" json:"id"`
	Kind         string  `db:"kind" json:"kind"`
	Jurisdiction string  `db:"jurisdiction" json:"jurisdiction"`
	GroupKey     string  `db:"group_key" json:"group_key"`
	GroupName    string  `db:"group_name" json:"group_name"`
	WeightLbs    float64 `db:"weight_lbs" json:"weight_lbs"`
	FinalPayable float64 `db:"final_payable" json:"final_payable"`
	Filename     string  `db:"filename" json:"filename,omitempty"`
	CreatedAt    string  `db:"created_at" json:"created_at"`
}

type Store struct {
	db *sqlx.DB
}

// Open connects to the sqlite database at path and runs migrations. The
// connect is retried with bounded exponential backoff: on a cold deploy the
// data volume can be a beat behind the process.
func Open(path string) (*Store, error) {
	var db *sqlx.DB
	connect := func() error {
		var err error
		db, err = sqlx.Connect("sqlite", path)
		return err
	}
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5)
	if err := backoff.Retry(connect, policy); err != nil {
		return nil, fmt.Errorf("connect history db: %w", err)
	}

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		return nil, fmt.Errorf("run history migrations: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Append inserts a record, assigning a ULID id and timestamp when absent.
func (s *Store) Append(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = ulid.Make().String()
	}
	if rec.CreatedAt == "" {
		rec.CreatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO records (id, kind, jurisdiction, group_key, group_name, weight_lbs, final_payable, filename, created_at)
		VALUES (:id, :kind, :jurisdiction, :group_key, :group_name, :weight_lbs, :final_payable, :filename, :created_at)`,
		rec)
	if err != nil {
		return Record{}, fmt.Errorf("append history record: %w", err)
	}
	return rec, nil
}

// Recent returns up to limit records, newest first. ULIDs sort
// lexicographically by creation time, so ordering by id is ordering by time.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []Record
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, kind, jurisdiction, group_key, group_name, weight_lbs, final_payable, filename, created_at
		FROM records ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list history records: %w", err)
	}
	return out, nil
}
