package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"PackCurator/internal/ports"
)

// PostgresDedup persists processed pack ids in Postgres. Used instead of
// the file log when a DSN is configured, so several deployments can share
// one dedup history.
type PostgresDedup struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	logger  *slog.Logger
}

var _ ports.DedupStore = (*PostgresDedup)(nil)

// NewPostgresDedup wires a sql.DB implementation.
func NewPostgresDedup(db *sql.DB, logger *slog.Logger) *PostgresDedup {
	return &PostgresDedup{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		logger:  logger,
	}
}

// OpenPostgresDedup connects to the DSN and verifies the connection.
func OpenPostgresDedup(dsn string, logger *slog.Logger) (*PostgresDedup, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgresDedup(db, logger), nil
}

// IsMarked reports whether the id exists in the processed_packs table. A
// query failure is logged and reported as unmarked: the candidate is shown
// again rather than silently dropped.
func (s *PostgresDedup) IsMarked(ctx context.Context, id string) bool {
	if s.db == nil {
		return false
	}

	query, args, err := s.builder.
		Select("1").
		From("processed_packs").
		Where(sq.Eq{"pack_id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		s.warn("build dedup query", "error", err)
		return false
	}

	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		s.warn("query dedup", "pack_id", id, "error", err)
		return false
	}
	return true
}

// Mark inserts the id; a conflicting insert is a no-op, keeping Mark
// idempotent.
func (s *PostgresDedup) Mark(ctx context.Context, id string) error {
	if s.db == nil {
		return nil
	}

	query, args, err := s.builder.
		Insert("processed_packs").
		Columns("pack_id").
		Values(id).
		Suffix("ON CONFLICT (pack_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build dedup insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert processed pack %s: %w", id, err)
	}
	return nil
}

func (s *PostgresDedup) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
