package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"MacroPipe/internal/domain/models"
	domrepo "MacroPipe/internal/domain/repository"
	pkgch "MacroPipe/pkg/clickhouse"
	applogger "MacroPipe/pkg/logger"
)

// archiveTimeout bounds one archive batch insert.
const archiveTimeout = 10 * time.Second

// CHValueArchive mirrors ingested observations into ClickHouse. The
// in-process store stays authoritative; the archive is the durability
// upgrade path and its failures never fail an ingestion.
type CHValueArchive struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

var _ domrepo.ValueArchive = (*CHValueArchive)(nil)

// NewCHValueArchive creates an archive writing to the given table.
func NewCHValueArchive(ch *pkgch.Client, table string) *CHValueArchive {
	return &CHValueArchive{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (a *CHValueArchive) SetLogger(l *applogger.Logger) { a.l = l }

// Schema returns the idempotent DDL for the archive table.
func (a *CHValueArchive) Schema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			symbol String,
			date Date,
			value String,
			ingested_at DateTime DEFAULT now()
		) ENGINE=MergeTree ORDER BY (symbol, date)`, a.table),
	}
}

// ArchiveValues batch-inserts one ingestion's values.
func (a *CHValueArchive) ArchiveValues(symbol string, vs []models.Value) error {
	if len(vs) == 0 {
		return nil
	}
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("archive begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (symbol, date, value) VALUES (?, ?, ?)", a.table))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("archive prepare: %w", err)
	}
	defer stmt.Close()

	for _, v := range vs {
		if _, err := stmt.ExecContext(ctx, symbol, v.Date, v.Value); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("archive insert: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("archive commit: %w", err)
	}

	if a.l != nil {
		a.l.Info("values archived",
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(vs)),
			applogger.Duration("duration", time.Since(start)),
		)
	}
	return nil
}

// Close is a no-op; the underlying client owns the connection pool.
func (a *CHValueArchive) Close() error { return nil }
