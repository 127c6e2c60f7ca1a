// Package store snapshots tables to a SQL database and restores them.
//
// Every table lives in one relation, felisp_rows, keyed by table name and
// logical row index. Only occupied slots are written, so a restored table
// has the same pages, counts and row positions as the saved one. Tables
// with no rows are not recorded.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sambeau/felisp/pkg/felisp/table"
)

// ErrNotFound is returned by Load when no rows are saved under a name
var ErrNotFound = errors.New("table not found in store")

const schema = `
CREATE TABLE IF NOT EXISTS felisp_rows (
	table_name VARCHAR(255) NOT NULL,
	idx INTEGER NOT NULL,
	id INTEGER NOT NULL,
	username TEXT NOT NULL,
	email TEXT NOT NULL,
	PRIMARY KEY (table_name, idx)
)`

// Store is an open snapshot database
type Store struct {
	db     *sql.DB
	driver string
}

// NormalizeDriver maps accepted driver spellings to database/sql driver
// names
func NormalizeDriver(driver string) (string, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return "sqlite", nil
	case "postgres", "postgresql", "pg":
		return "postgres", nil
	case "mysql", "mariadb":
		return "mysql", nil
	default:
		return "", fmt.Errorf("unsupported store driver %q (supported: sqlite, postgres, mysql)", driver)
	}
}

// Open connects to the database and creates the schema if needed
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	name, err := NormalizeDriver(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", name, err)
	}
	if name == "sqlite" && strings.Contains(dsn, ":memory:") {
		// Each connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, driver: name}
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("connecting to %s store: %w", s.driver, err)
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating store schema: %w", err)
	}
	return nil
}

// Driver returns the database/sql driver name in use
func (s *Store) Driver() string {
	return s.driver
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders for drivers that number them
func (s *Store) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(ch)
	}
	return sb.String()
}

// Save replaces the stored rows of t in a single transaction
func (s *Store) Save(ctx context.Context, t *table.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.rebind("DELETE FROM felisp_rows WHERE table_name = ?"), t.Name); err != nil {
		return fmt.Errorf("failed to clear table %s: %w", t.Name, err)
	}

	insert := s.rebind(`
		INSERT INTO felisp_rows(table_name, idx, id, username, email)
		VALUES (?, ?, ?, ?, ?)
	`)
	var insertErr error
	t.Select(func(index int, r table.Row) {
		if insertErr != nil {
			return
		}
		if _, err := tx.ExecContext(ctx, insert, t.Name, index, r.ID, r.Username, r.Email); err != nil {
			insertErr = fmt.Errorf("failed to save row %d of %s: %w", index, t.Name, err)
		}
	})
	if insertErr != nil {
		return insertErr
	}

	return tx.Commit()
}

// SaveAll saves every table in the catalog
func (s *Store) SaveAll(ctx context.Context, c *table.Catalog) error {
	for _, name := range c.Names() {
		t, _ := c.Get(name)
		if err := s.Save(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// Load rebuilds a table from its stored rows
func (s *Store) Load(ctx context.Context, name string) (*table.Table, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind("SELECT idx, id, username, email FROM felisp_rows WHERE table_name = ? ORDER BY idx"), name)
	if err != nil {
		return nil, fmt.Errorf("failed to query table %s: %w", name, err)
	}
	defer rows.Close()

	t := table.New(name)
	found := false
	for rows.Next() {
		var idx int
		var r table.Row
		if err := rows.Scan(&idx, &r.ID, &r.Username, &r.Email); err != nil {
			return nil, fmt.Errorf("failed to scan row of %s: %w", name, err)
		}
		if err := t.Put(idx, r); err != nil {
			return nil, err
		}
		found = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err := t.Check(); err != nil {
		return nil, fmt.Errorf("failed to load table %s: %w", name, err)
	}
	return t, nil
}

// LoadAll loads every stored table in name order
func (s *Store) LoadAll(ctx context.Context) ([]*table.Table, error) {
	names, err := s.Tables(ctx)
	if err != nil {
		return nil, err
	}
	tables := make([]*table.Table, 0, len(names))
	for _, name := range names {
		t, err := s.Load(ctx, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// Tables lists the names of stored tables in order
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT table_name FROM felisp_rows ORDER BY table_name")
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
