package grammar

import (
	"database/sql"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/teranos/treesitter-ls/errors"
)

// FailedRegistry persists crash-recovery state across restarts: a record
// of "begin-parse"/"end-parse" markers per language, bracketing document
// parse attempts (document.Store.Open/Change), not grammar loading. A
// language whose most recent record has no matching end (the process died
// mid-parse) is quarantined at startup — every subsequent parse attempt
// short-circuits to "no tree" until ClearQuarantine is called.
//
// Backed by a single SQLite table rather than a literal append-only
// file: SQLite's own journal gives the same crash-safety guarantee at
// lower complexity, and mattn/go-sqlite3 is already part of this
// codebase's ambient stack.
type FailedRegistry struct {
	mu            sync.Mutex
	db            *sql.DB
	quarantined   map[string]bool
}

// NewFailedRegistry opens (creating if necessary) the registry database
// under dataDir/failed_parsers.state and loads the current quarantine
// set.
func NewFailedRegistry(dataDir string) (*FailedRegistry, error) {
	path := filepath.Join(dataDir, "failed_parsers.state")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS parser_attempts (
			language   TEXT PRIMARY KEY,
			started_at INTEGER NOT NULL,
			ended_at   INTEGER
		)
	`); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create parser_attempts table")
	}

	r := &FailedRegistry{db: db, quarantined: make(map[string]bool)}
	if err := r.loadQuarantine(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *FailedRegistry) loadQuarantine() error {
	rows, err := r.db.Query(`SELECT language FROM parser_attempts WHERE ended_at IS NULL`)
	if err != nil {
		return errors.Wrap(err, "query unfinished parser attempts")
	}
	defer rows.Close()

	for rows.Next() {
		var language string
		if err := rows.Scan(&language); err != nil {
			return errors.Wrap(err, "scan parser_attempts row")
		}
		r.quarantined[language] = true
	}
	return rows.Err()
}

// IsQuarantined reports whether language is currently quarantined.
func (r *FailedRegistry) IsQuarantined(language string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.quarantined[language]
}

// MarkBegin records that a parse attempt for language has started. Must
// be paired with MarkEnd; an unpaired MarkBegin is what causes
// quarantine on the next process start.
func (r *FailedRegistry) MarkBegin(language string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = r.db.Exec(`
		INSERT INTO parser_attempts (language, started_at, ended_at)
		VALUES (?, ?, NULL)
		ON CONFLICT(language) DO UPDATE SET started_at = excluded.started_at, ended_at = NULL
	`, language, time.Now().Unix())
}

// MarkEnd records that the parse attempt for language completed cleanly.
func (r *FailedRegistry) MarkEnd(language string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = r.db.Exec(`UPDATE parser_attempts SET ended_at = ? WHERE language = ?`, time.Now().Unix(), language)
	delete(r.quarantined, language)
}

// Clear removes language's quarantine, allowing the next parse attempt
// for it to proceed again.
func (r *FailedRegistry) Clear(language string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.quarantined, language)
	_, _ = r.db.Exec(`DELETE FROM parser_attempts WHERE language = ?`, language)
}

// Close releases the underlying database handle.
func (r *FailedRegistry) Close() error {
	return r.db.Close()
}
