// Package sqlstore persists listing records into a SQL table.
//
// Supported DSNs:
//
//	sqlite://laptops.db           modernc.org/sqlite, any sqlite DSN after the scheme
//	mysql://user:pw@tcp(host)/db  github.com/go-sql-driver/mysql DSN after the scheme
//	postgres://user:pw@host/db    github.com/jackc/pgx/v5, the URL as is
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/law-makers/laptops/internal/output"
	"github.com/law-makers/laptops/pkg/models"
)

// TableName is the table records are inserted into
const TableName = "laptops"

// ErrUnsupportedDSN is returned for DSNs without a known scheme
var ErrUnsupportedDSN = errors.New("unsupported sql dsn")

type dialect struct {
	driver string
	create string
	// placeholder returns the n-th (1-based) bind parameter
	placeholder func(n int) string
}

var dialects = map[string]dialect{
	"sqlite": {
		driver: "sqlite",
		create: `CREATE TABLE IF NOT EXISTS ` + TableName + ` (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	website TEXT NOT NULL,
	specs TEXT,
	model TEXT,
	price_amount REAL,
	price_text TEXT,
	source_url TEXT NOT NULL,
	scraped_at TEXT NOT NULL
)`,
		placeholder: func(int) string { return "?" },
	},
	"mysql": {
		driver: "mysql",
		create: `CREATE TABLE IF NOT EXISTS ` + TableName + ` (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	name TEXT NOT NULL,
	website VARCHAR(255) NOT NULL,
	specs TEXT,
	model TEXT,
	price_amount DOUBLE,
	price_text TEXT,
	source_url TEXT NOT NULL,
	scraped_at VARCHAR(40) NOT NULL
)`,
		placeholder: func(int) string { return "?" },
	},
	"postgres": {
		driver: "pgx",
		create: `CREATE TABLE IF NOT EXISTS ` + TableName + ` (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	website TEXT NOT NULL,
	specs TEXT,
	model TEXT,
	price_amount DOUBLE PRECISION,
	price_text TEXT,
	source_url TEXT NOT NULL,
	scraped_at TEXT NOT NULL
)`,
		placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	},
}

// parseDSN splits a scheme-prefixed DSN into its dialect and driver DSN
func parseDSN(dsn string) (string, string, error) {
	dsn = strings.TrimSpace(dsn)
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return "", "", fmt.Errorf("%w: %q has no scheme", ErrUnsupportedDSN, dsn)
	}
	switch strings.ToLower(scheme) {
	case "sqlite", "sqlite3", "file":
		return "sqlite", rest, nil
	case "mysql":
		return "mysql", rest, nil
	case "postgres", "postgresql":
		return "postgres", dsn, nil
	default:
		return "", "", fmt.Errorf("%w: scheme %q", ErrUnsupportedDSN, scheme)
	}
}

// Store is an output.Sink backed by a SQL database
type Store struct {
	db      *sql.DB
	dialect dialect
	insert  string
	now     func() time.Time

	mu     sync.Mutex
	closed bool
}

var _ output.Sink = (*Store)(nil)

// Open connects to dsn and creates the laptops table if it is missing
func Open(ctx context.Context, dsn string) (*Store, error) {
	name, driverDSN, err := parseDSN(dsn)
	if err != nil {
		return nil, err
	}
	d := dialects[name]

	db, err := sql.Open(d.driver, driverDSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	if name == "sqlite" {
		// sqlite allows a single writer
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect %s: %w", name, err)
	}
	if _, err := db.ExecContext(ctx, d.create); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create table %s: %w", TableName, err)
	}

	return &Store{
		db:      db,
		dialect: d,
		insert:  insertSQL(d),
		now:     time.Now,
	}, nil
}

func insertSQL(d dialect) string {
	cols := []string{"name", "website", "specs", "model", "price_amount", "price_text", "source_url", "scraped_at"}
	ph := make([]string, len(cols))
	for i := range cols {
		ph[i] = d.placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", TableName, strings.Join(cols, ", "), strings.Join(ph, ", "))
}

// Write inserts records in one transaction
func (s *Store) Write(ctx context.Context, records []models.ListingRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return output.ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, s.insert)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	scrapedAt := s.now().UTC().Format(time.RFC3339Nano)
	for _, r := range records {
		var amount sql.NullFloat64
		var text sql.NullString
		switch r.Price.Kind {
		case models.PriceNumeric:
			amount = sql.NullFloat64{Float64: r.Price.Amount, Valid: true}
		case models.PriceText:
			text = sql.NullString{String: r.Price.Text, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, r.Name, r.Website, r.Specs, r.Model, amount, text, r.SourceURL, scrapedAt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert %q: %w", r.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Count returns the number of stored records
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+TableName).Scan(&n)
	return n, err
}

// Records returns the stored records in insertion order
func (s *Store) Records(ctx context.Context) ([]models.ListingRecord, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, website, specs, model, price_amount, price_text, source_url FROM "+TableName+" ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ListingRecord
	for rows.Next() {
		var (
			r          models.ListingRecord
			specs, mdl sql.NullString
			amount     sql.NullFloat64
			text       sql.NullString
		)
		if err := rows.Scan(&r.Name, &r.Website, &specs, &mdl, &amount, &text, &r.SourceURL); err != nil {
			return nil, err
		}
		r.Specs, r.Model = specs.String, mdl.String
		switch {
		case amount.Valid:
			r.Price = models.NumericPrice(amount.Float64)
		case text.Valid:
			r.Price = models.TextPrice(text.String, "")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database handle
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
