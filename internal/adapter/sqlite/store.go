// Package sqlite stores tabs as rows of a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/swell-alert-etl/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS tabs (
	name       TEXT PRIMARY KEY,
	header     TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS tab_rows (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	tab        TEXT NOT NULL REFERENCES tabs(name),
	kind       TEXT NOT NULL CHECK (kind IN ('data', 'status')),
	cells      TEXT NOT NULL,
	written_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_tab_rows_tab ON tab_rows(tab, kind, id);
`

// Row kinds.
const (
	kindData   = "data"
	kindStatus = "status"
)

// Store implements pipeline.SheetGateway on SQLite. Each tab has a header
// and an ordered list of rows; cells are kept as a JSON array so sheet
// semantics (mixed strings and numbers, ragged rows) survive unchanged.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens or creates the database at path and applies the schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL", "PRAGMA foreign_keys=ON"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureTab creates the tab if missing. A tab that already has a non-empty
// header keeps it.
func (s *Store) EnsureTab(ctx context.Context, name string, header []string) error {
	h, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("encode header of %q: %w", name, err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tabs (name, header) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET header = excluded.header
		WHERE tabs.header = '[]' OR tabs.header = 'null'`,
		name, string(h))
	if err != nil {
		return fmt.Errorf("ensure tab %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.logger.Info("tab header written", "tab", name, "columns", len(header))
	}
	return nil
}

// AppendRows appends data rows in one transaction.
func (s *Store) AppendRows(ctx context.Context, name string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	return s.insert(ctx, name, kindData, rows)
}

// WriteStatus appends a status row holding only the message.
func (s *Store) WriteStatus(ctx context.Context, name, message string) error {
	return s.insert(ctx, name, kindStatus, [][]any{{message}})
}

// ReadLatestRow returns the newest data row keyed by the tab header.
func (s *Store) ReadLatestRow(ctx context.Context, name string) (domain.Record, bool, error) {
	var header, cells string
	err := s.db.QueryRowContext(ctx, `
		SELECT t.header, r.cells
		FROM tab_rows r JOIN tabs t ON t.name = r.tab
		WHERE r.tab = ? AND r.kind = ?
		ORDER BY r.id DESC
		LIMIT 1`, name, kindData).Scan(&header, &cells)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read latest row of %q: %w", name, err)
	}

	var cols []string
	if err := json.Unmarshal([]byte(header), &cols); err != nil {
		return nil, false, fmt.Errorf("decode header of %q: %w", name, err)
	}
	row, err := decodeCells(cells)
	if err != nil {
		return nil, false, fmt.Errorf("decode row of %q: %w", name, err)
	}
	return domain.RecordFromRow(cols, row), true, nil
}

// Statuses returns the status messages of a tab, oldest first.
func (s *Store) Statuses(ctx context.Context, name string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT cells FROM tab_rows WHERE tab = ? AND kind = ? ORDER BY id`, name, kindStatus)
	if err != nil {
		return nil, fmt.Errorf("querying statuses of %q: %w", name, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var cells string
		if err := rows.Scan(&cells); err != nil {
			return nil, err
		}
		row, err := decodeCells(cells)
		if err != nil {
			return nil, err
		}
		if len(row) > 0 {
			out = append(out, row[0])
		}
	}
	return out, rows.Err()
}

func (s *Store) insert(ctx context.Context, name, kind string, rows [][]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO tab_rows (tab, kind, cells) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		data, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("encode row for %q: %w", name, err)
		}
		if _, err := stmt.ExecContext(ctx, name, kind, string(data)); err != nil {
			return fmt.Errorf("insert into %q: %w", name, err)
		}
	}
	return tx.Commit()
}

// decodeCells renders a stored JSON row back to sheet text: numbers in
// shortest form, null as empty.
func decodeCells(raw string) ([]string, error) {
	var cells []any
	if err := json.Unmarshal([]byte(raw), &cells); err != nil {
		return nil, err
	}
	out := make([]string, len(cells))
	for i, c := range cells {
		switch v := c.(type) {
		case nil:
		case string:
			out[i] = v
		case float64:
			out[i] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out, nil
}
