package master

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"hotparts/pkg/contracts/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS hot_parts (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	mpn           TEXT NOT NULL,
	date          TEXT NOT NULL,
	reqs_count    TEXT NOT NULL DEFAULT '',
	manufacturer  TEXT NOT NULL DEFAULT '',
	product_class TEXT NOT NULL DEFAULT '',
	description   TEXT NOT NULL DEFAULT '',
	source_file   TEXT NOT NULL DEFAULT '',
	created_at    TEXT NOT NULL,
	UNIQUE (mpn, date)
);
CREATE INDEX IF NOT EXISTS idx_hot_parts_mpn ON hot_parts (mpn);

CREATE TABLE IF NOT EXISTS pivot_data (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	mpn        TEXT NOT NULL,
	reqs_count TEXT NOT NULL DEFAULT '',
	date       TEXT NOT NULL,
	created_at TEXT NOT NULL,
	UNIQUE (mpn, date)
);

CREATE TABLE IF NOT EXISTS excess_inventory (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	mpn             TEXT NOT NULL,
	excess_filename TEXT NOT NULL,
	excess_qty      INTEGER NOT NULL DEFAULT 0,
	target_price    REAL,
	manufacturer    TEXT NOT NULL DEFAULT '',
	sheet_name      TEXT NOT NULL DEFAULT '',
	created_at      TEXT NOT NULL,
	UNIQUE (mpn, excess_filename)
);
CREATE INDEX IF NOT EXISTS idx_excess_mpn ON excess_inventory (mpn);

CREATE TABLE IF NOT EXISTS matches (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	record_key      TEXT NOT NULL UNIQUE,
	mpn             TEXT NOT NULL,
	hot_parts_date  TEXT NOT NULL,
	reqs_count      TEXT NOT NULL DEFAULT '',
	manufacturer    TEXT NOT NULL DEFAULT '',
	product_class   TEXT NOT NULL DEFAULT '',
	description     TEXT NOT NULL DEFAULT '',
	excess_filename TEXT NOT NULL,
	excess_qty      INTEGER NOT NULL DEFAULT 0,
	target_price    REAL,
	created_at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_matches_mpn ON matches (mpn);

CREATE TABLE IF NOT EXISTS processing_log (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	filename          TEXT NOT NULL,
	file_type         TEXT NOT NULL,
	status            TEXT NOT NULL,
	records_processed INTEGER NOT NULL DEFAULT 0,
	records_added     INTEGER NOT NULL DEFAULT 0,
	records_skipped   INTEGER NOT NULL DEFAULT 0,
	error_message     TEXT,
	processed_at      TEXT NOT NULL
);
`

// SQLiteStore persists the master collections in a single SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// schema.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	logger.InfoContext(ctx, "database opened", slog.String("path", path))
	return &SQLiteStore{db: db, logger: logger.With(slog.String("component", "sqlite_store"))}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}
	var err error
	if snap.HotParts, err = s.loadHotParts(ctx); err != nil {
		return nil, err
	}
	if snap.Pivot, err = s.loadPivot(ctx); err != nil {
		return nil, err
	}
	if snap.Excess, err = s.loadExcess(ctx); err != nil {
		return nil, err
	}
	if snap.Matches, err = s.loadMatches(ctx); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *SQLiteStore) loadHotParts(ctx context.Context) ([]domain.HotPart, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT mpn, date, reqs_count, manufacturer, product_class, description, source_file FROM hot_parts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query hot_parts: %w", err)
	}
	defer rows.Close()

	var out []domain.HotPart
	for rows.Next() {
		var r domain.HotPart
		if err := rows.Scan(&r.MPN, &r.Date, &r.ReqsCount, &r.Manufacturer, &r.ProductClass, &r.Description, &r.SourceFile); err != nil {
			return nil, fmt.Errorf("failed to scan hot_parts: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) loadPivot(ctx context.Context) ([]domain.PivotRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT mpn, reqs_count, date FROM pivot_data ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pivot_data: %w", err)
	}
	defer rows.Close()

	var out []domain.PivotRecord
	for rows.Next() {
		var r domain.PivotRecord
		if err := rows.Scan(&r.MPN, &r.ReqsCount, &r.Date); err != nil {
			return nil, fmt.Errorf("failed to scan pivot_data: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) loadExcess(ctx context.Context) ([]domain.ExcessRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT mpn, excess_filename, excess_qty, target_price, manufacturer, sheet_name FROM excess_inventory ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query excess_inventory: %w", err)
	}
	defer rows.Close()

	var out []domain.ExcessRecord
	for rows.Next() {
		var (
			r     domain.ExcessRecord
			price sql.NullFloat64
		)
		if err := rows.Scan(&r.MPN, &r.ExcessFilename, &r.ExcessQty, &price, &r.Manufacturer, &r.SheetName); err != nil {
			return nil, fmt.Errorf("failed to scan excess_inventory: %w", err)
		}
		r.TargetPrice = nullablePrice(price)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) loadMatches(ctx context.Context) ([]domain.MatchRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT mpn, hot_parts_date, reqs_count, manufacturer, product_class, description, excess_filename, excess_qty, target_price FROM matches ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var out []domain.MatchRecord
	for rows.Next() {
		var (
			r     domain.MatchRecord
			price sql.NullFloat64
		)
		if err := rows.Scan(&r.MPN, &r.HotPartsDate, &r.ReqsCount, &r.Manufacturer, &r.ProductClass, &r.Description, &r.ExcessFilename, &r.ExcessQty, &price); err != nil {
			return nil, fmt.Errorf("failed to scan matches: %w", err)
		}
		r.TargetPrice = nullablePrice(price)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) InsertHotParts(ctx context.Context, records []domain.HotPart) error {
	now := nowText()
	return insertAll(ctx, s, "hot_parts",
		`INSERT OR IGNORE INTO hot_parts (mpn, date, reqs_count, manufacturer, product_class, description, source_file, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		records, func(r domain.HotPart) []any {
			return []any{r.MPN, r.Date, r.ReqsCount, r.Manufacturer, r.ProductClass, r.Description, r.SourceFile, now}
		})
}

func (s *SQLiteStore) InsertPivot(ctx context.Context, records []domain.PivotRecord) error {
	now := nowText()
	return insertAll(ctx, s, "pivot_data",
		`INSERT OR IGNORE INTO pivot_data (mpn, reqs_count, date, created_at) VALUES (?, ?, ?, ?)`,
		records, func(r domain.PivotRecord) []any {
			return []any{r.MPN, r.ReqsCount, r.Date, now}
		})
}

func (s *SQLiteStore) InsertExcess(ctx context.Context, records []domain.ExcessRecord) error {
	now := nowText()
	return insertAll(ctx, s, "excess_inventory",
		`INSERT OR IGNORE INTO excess_inventory (mpn, excess_filename, excess_qty, target_price, manufacturer, sheet_name, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		records, func(r domain.ExcessRecord) []any {
			return []any{r.MPN, r.ExcessFilename, r.ExcessQty, priceArg(r.TargetPrice), r.Manufacturer, r.SheetName, now}
		})
}

func (s *SQLiteStore) InsertMatches(ctx context.Context, records []domain.MatchRecord) error {
	now := nowText()
	return insertAll(ctx, s, "matches",
		`INSERT OR IGNORE INTO matches (record_key, mpn, hot_parts_date, reqs_count, manufacturer, product_class, description, excess_filename, excess_qty, target_price, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		records, func(r domain.MatchRecord) []any {
			return []any{r.Key(), r.MPN, r.HotPartsDate, r.ReqsCount, r.Manufacturer, r.ProductClass, r.Description, r.ExcessFilename, r.ExcessQty, priceArg(r.TargetPrice), now}
		})
}

// insertAll writes records in one transaction and logs how many rows the
// unique constraints ignored.
func insertAll[T any](ctx context.Context, s *SQLiteStore, table, query string, records []T, args func(T) []any) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin %s insert: %w", table, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare %s insert: %w", table, err)
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range records {
		res, err := stmt.ExecContext(ctx, args(r)...)
		if err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s insert: %w", table, err)
	}

	s.logger.DebugContext(ctx, "rows inserted",
		slog.String("table", table),
		slog.Int("inserted", inserted),
		slog.Int("ignored", len(records)-inserted))
	return nil
}

func (s *SQLiteStore) AppendLog(ctx context.Context, entry domain.ProcessingLog) error {
	at := entry.ProcessedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	var errMsg any
	if entry.ErrorMessage != "" {
		errMsg = entry.ErrorMessage
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO processing_log (filename, file_type, status, records_processed, records_added, records_skipped, error_message, processed_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Filename, string(entry.FileType), string(entry.Status),
		entry.RecordsProcessed, entry.RecordsAdded, entry.RecordsSkipped,
		errMsg, at.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to append processing log: %w", err)
	}
	return nil
}

// RecentLog returns the newest entries first. limit <= 0 returns everything.
func (s *SQLiteStore) RecentLog(ctx context.Context, limit int) ([]domain.ProcessingLog, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, file_type, status, records_processed, records_added, records_skipped, error_message, processed_at FROM processing_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query processing log: %w", err)
	}
	defer rows.Close()

	var out []domain.ProcessingLog
	for rows.Next() {
		var (
			e        domain.ProcessingLog
			fileType string
			status   string
			errMsg   sql.NullString
			at       string
		)
		if err := rows.Scan(&e.ID, &e.Filename, &fileType, &status, &e.RecordsProcessed, &e.RecordsAdded, &e.RecordsSkipped, &errMsg, &at); err != nil {
			return nil, fmt.Errorf("failed to scan processing log: %w", err)
		}
		e.FileType = domain.FileType(fileType)
		e.Status = domain.ProcessingStatus(status)
		e.ErrorMessage = errMsg.String
		if t, err := time.Parse(time.RFC3339Nano, at); err == nil {
			e.ProcessedAt = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CountLog(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM processing_log`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count processing log: %w", err)
	}
	return n, nil
}

func nowText() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func priceArg(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullablePrice(p sql.NullFloat64) *float64 {
	if !p.Valid {
		return nil
	}
	v := p.Float64
	return &v
}
