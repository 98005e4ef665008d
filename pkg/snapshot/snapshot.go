// Package snapshot keeps named interpreter states in a SQL database.
package snapshot

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"tacvm/pkg/interpreter"
)

var (
	ErrNotFound          = errors.New("snapshot not found")
	ErrUnsupportedDriver = errors.New("unsupported snapshot driver")
)

type dialect struct {
	createTable string
	dollarArgs  bool // $1, $2 instead of ?
}

var dialects = map[string]dialect{
	"sqlite3": {
		createTable: `CREATE TABLE IF NOT EXISTS tacvm_snapshots (
	name     TEXT PRIMARY KEY,
	pc       INTEGER NOT NULL,
	state    TEXT NOT NULL,
	saved_at INTEGER NOT NULL
)`,
	},
	"mysql": {
		createTable: `CREATE TABLE IF NOT EXISTS tacvm_snapshots (
	name     VARCHAR(255) PRIMARY KEY,
	pc       BIGINT NOT NULL,
	state    LONGTEXT NOT NULL,
	saved_at BIGINT NOT NULL
)`,
	},
	"postgres": {
		createTable: `CREATE TABLE IF NOT EXISTS tacvm_snapshots (
	name     TEXT PRIMARY KEY,
	pc       BIGINT NOT NULL,
	state    TEXT NOT NULL,
	saved_at BIGINT NOT NULL
)`,
		dollarArgs: true,
	},
}

// Info describes a stored snapshot without its state.
type Info struct {
	Name    string
	PC      int
	SavedAt time.Time
}

// Store is a snapshot table in one database.
type Store struct {
	db      *sql.DB
	dialect dialect
}

// Open connects with one of the drivers sqlite3, mysql or postgres and
// creates the snapshot table if needed.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, dialect: d}
	if _, err := db.ExecContext(ctx, d.createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create snapshot table: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders for drivers that number their arguments.
func (s *Store) rebind(query string) string {
	if !s.dialect.dollarArgs {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Save stores st under name, replacing any snapshot with the same name.
func (s *Store) Save(ctx context.Context, name string, st interpreter.State) error {
	if name == "" {
		return errors.New("snapshot name must not be empty")
	}

	var buf bytes.Buffer
	if err := st.Encode(&buf); err != nil {
		return fmt.Errorf("encode snapshot %q: %w", name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM tacvm_snapshots WHERE name = ?`), name); err != nil {
		return fmt.Errorf("save snapshot %q: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx,
		s.rebind(`INSERT INTO tacvm_snapshots (name, pc, state, saved_at) VALUES (?, ?, ?, ?)`),
		name, st.PC, buf.String(), time.Now().Unix(),
	); err != nil {
		return fmt.Errorf("save snapshot %q: %w", name, err)
	}

	return tx.Commit()
}

// Load returns the state stored under name.
func (s *Store) Load(ctx context.Context, name string) (interpreter.State, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT state FROM tacvm_snapshots WHERE name = ?`), name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return interpreter.State{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return interpreter.State{}, fmt.Errorf("load snapshot %q: %w", name, err)
	}

	return interpreter.DecodeState(strings.NewReader(raw))
}

// List returns every snapshot ordered by name.
func (s *Store) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, pc, saved_at FROM tacvm_snapshots ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Info
	for rows.Next() {
		var (
			info  Info
			saved int64
		)
		if err := rows.Scan(&info.Name, &info.PC, &saved); err != nil {
			return nil, err
		}
		info.SavedAt = time.Unix(saved, 0)
		out = append(out, info)
	}
	return out, rows.Err()
}

// Delete removes the snapshot stored under name.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM tacvm_snapshots WHERE name = ?`), name)
	if err != nil {
		return fmt.Errorf("delete snapshot %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return nil
}
