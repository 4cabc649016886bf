package rowstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// SQL dialects.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// SQL is a Table backed by the lead_rows table. Refs are row positions, which
// only ever grow, so storage order equals insertion order.
type SQL struct {
	db      *sqlx.DB
	dialect string
}

type leadRow struct {
	Position int    `db:"position"`
	ColA     string `db:"col_a"`
	ColB     string `db:"col_b"`
	ColC     string `db:"col_c"`
	ColD     string `db:"col_d"`
}

func newLeadRow(position int, values []string) leadRow {
	padded := Pad(values)
	return leadRow{Position: position, ColA: padded[0], ColB: padded[1], ColC: padded[2], ColD: padded[3]}
}

func (r leadRow) values() []string {
	return []string{r.ColA, r.ColB, r.ColC, r.ColD}
}

// OpenSQLite opens (creating if necessary) a SQLite database at path and
// applies migrations.
func OpenSQLite(ctx context.Context, path string) (*SQL, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure sqlite directory: %w", err)
		}
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	return newSQL(ctx, db, DialectSQLite)
}

// OpenPostgres connects to a Postgres database and applies migrations.
func OpenPostgres(ctx context.Context, dsn string) (*SQL, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return newSQL(ctx, db, DialectPostgres)
}

func newSQL(ctx context.Context, db *sqlx.DB, dialect string) (*SQL, error) {
	store := &SQL{db: db, dialect: dialect}
	if err := store.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *SQL) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *SQL) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Rows implements Table.
func (s *SQL) Rows(ctx context.Context) ([]Row, error) {
	var records []leadRow
	if err := s.db.SelectContext(ctx, &records, "SELECT position, col_a, col_b, col_c, col_d FROM lead_rows ORDER BY position"); err != nil {
		return nil, fmt.Errorf("select lead rows: %w", err)
	}
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, Row{Ref: rec.Position, Values: rec.values()})
	}
	return rows, nil
}

// UpdateRow implements Table.
func (s *SQL) UpdateRow(ctx context.Context, ref int, values []string) error {
	res, err := s.db.NamedExecContext(ctx,
		`UPDATE lead_rows SET col_a = :col_a, col_b = :col_b, col_c = :col_c, col_d = :col_d WHERE position = :position`,
		newLeadRow(ref, values),
	)
	if err != nil {
		return fmt.Errorf("update lead row %d: %w", ref, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrRowNotFound
	}
	return nil
}

// AppendRow implements Table.
func (s *SQL) AppendRow(ctx context.Context, values []string) error {
	if _, err := s.db.NamedExecContext(ctx,
		`INSERT INTO lead_rows (col_a, col_b, col_c, col_d) VALUES (:col_a, :col_b, :col_c, :col_d)`,
		newLeadRow(0, values),
	); err != nil {
		return fmt.Errorf("insert lead row: %w", err)
	}
	return nil
}
