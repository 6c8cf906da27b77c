package repl

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// History persists REPL input lines in a SQLite database so sessions
// survive restarts. Every operation is best-effort: a broken history
// store must never take the REPL down with it.
type History struct {
	db *sql.DB
}

const historySchema = `
CREATE TABLE IF NOT EXISTS history (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	entered_at TEXT NOT NULL,
	line       TEXT NOT NULL
);`

// OpenHistory opens (creating if needed) the history database at path.
func OpenHistory(path string) (*History, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, err
	}

	return &History{db: db}, nil
}

// Add records one input line.
func (h *History) Add(line string) error {
	_, err := h.db.Exec(
		"INSERT INTO history (entered_at, line) VALUES (?, ?)",
		time.Now().UTC().Format(time.RFC3339), line)
	return err
}

// Recent returns up to n lines, oldest first.
func (h *History) Recent(n int) ([]string, error) {
	rows, err := h.db.Query(
		"SELECT line FROM (SELECT id, line FROM history ORDER BY id DESC LIMIT ?) ORDER BY id ASC", n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// Close releases the database.
func (h *History) Close() error {
	return h.db.Close()
}
