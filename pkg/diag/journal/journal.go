// Package journal persists diagnostic entries to SQLite so failures from
// earlier runs can be listed after the process exits.
package journal

import (
	"context"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/bambi/overwatch/pkg/db"
	"github.com/bambi/overwatch/pkg/db/migrations"
	"github.com/bambi/overwatch/pkg/diag"
	"github.com/bambi/overwatch/pkg/logger"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Store is a diag.Journal backed by the overwatch database. Every Store
// tags its rows with a fresh run id.
type Store struct {
	conn     *sqlx.DB
	runID    string
	attempts uint
	delay    time.Duration
}

var _ diag.Journal = (*Store)(nil)

// Option configures a Store
type Option func(*Store)

// WithRunID overrides the generated run id.
func WithRunID(id string) Option {
	return func(s *Store) { s.runID = id }
}

// WithRetry sets how often a busy write is retried.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(s *Store) {
		s.attempts = attempts
		s.delay = delay
	}
}

// Open opens the database at path and migrates it.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	conn, err := db.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, conn, migrations.All()); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to migrate journal")
	}

	s := &Store{
		conn:     conn,
		runID:    uuid.New().String(),
		attempts: 5,
		delay:    50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RunID identifies the rows written by this store.
func (s *Store) RunID() string { return s.runID }

// Close closes the database.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Append implements diag.Journal.
func (s *Store) Append(ctx context.Context, e diag.Entry) error {
	row := fromEntry(s.runID, e)
	err := retry.Do(
		func() error {
			_, err := s.conn.NamedExecContext(ctx, `
				INSERT INTO diagnostics (run_id, kind, type_name, method, message, detail, cause, created_at)
				VALUES (:run_id, :kind, :type_name, :method, :message, :detail, :cause, :created_at)`, row)
			return err
		},
		retry.RetryIf(isBusy),
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			logger.G(ctx).WithError(err).WithField("attempt", n+1).Debug("retrying diagnostic write")
		}),
	)
	return errors.Wrap(err, "failed to write diagnostic")
}

// Query selects journaled entries
type Query struct {
	// RunID restricts results to one run; empty means every run
	RunID string
	Kind  diag.EntryKind
	// Limit caps the result; zero means no limit
	Limit int
}

// Record is a journaled entry with its run
type Record struct {
	ID    int64  `json:"id" yaml:"id"`
	RunID string `json:"run_id" yaml:"run_id"`
	diag.Entry `yaml:",inline"`
}

// List returns entries matching q, newest first.
func (s *Store) List(ctx context.Context, q Query) ([]Record, error) {
	var (
		where []string
		args  []any
	)
	if q.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, q.RunID)
	}
	if q.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(q.Kind))
	}

	query := "SELECT id, run_id, kind, type_name, method, message, detail, cause, created_at FROM diagnostics"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	var rows []row
	if err := s.conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to list diagnostics")
	}

	records := make([]Record, len(rows))
	for i, r := range rows {
		records[i] = r.record()
	}
	return records, nil
}

// Prune deletes entries older than cutoff and returns how many went.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.conn.ExecContext(ctx, "DELETE FROM diagnostics WHERE created_at < ?", cutoff.UTC())
	if err != nil {
		return 0, errors.Wrap(err, "failed to prune diagnostics")
	}
	return res.RowsAffected()
}

type row struct {
	ID        int64     `db:"id"`
	RunID     string    `db:"run_id"`
	Kind      string    `db:"kind"`
	TypeName  string    `db:"type_name"`
	Method    string    `db:"method"`
	Message   string    `db:"message"`
	Detail    string    `db:"detail"`
	Cause     string    `db:"cause"`
	CreatedAt time.Time `db:"created_at"`
}

func fromEntry(runID string, e diag.Entry) row {
	created := e.Time
	if created.IsZero() {
		created = time.Now()
	}
	return row{
		RunID:     runID,
		Kind:      string(e.Kind),
		TypeName:  e.Type,
		Method:    e.Method,
		Message:   e.Message,
		Detail:    e.Detail,
		Cause:     e.Cause,
		CreatedAt: created.UTC(),
	}
}

func (r row) record() Record {
	return Record{
		ID:    r.ID,
		RunID: r.RunID,
		Entry: diag.Entry{
			Time:    r.CreatedAt,
			Kind:    diag.EntryKind(r.Kind),
			Type:    r.TypeName,
			Method:  r.Method,
			Message: r.Message,
			Detail:  r.Detail,
			Cause:   r.Cause,
		},
	}
}

func isBusy(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "sqlite_busy")
}
