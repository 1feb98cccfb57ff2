// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ballotdb indexes converted CVR sessions in a SQLite database so
// ranked marks can be queried with SQL.
package ballotdb

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/cvr-compact/pkg/types"
)

// Store manages the ballot index database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the database at cfg.DBPath and creates the
// schema if it does not exist.
func NewStore(cfg types.IndexConfig) (*Store, error) {
	if dir := filepath.Dir(cfg.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sources (
			source TEXT PRIMARY KEY,
			version TEXT,
			election_id TEXT,
			sessions INTEGER,
			ingested_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL REFERENCES sources(source) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			tabulator_id INTEGER,
			batch_id INTEGER,
			record_id TEXT,
			counting_group_id INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS marks (
			session_id INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			contest_id INTEGER NOT NULL,
			candidate_id INTEGER NOT NULL,
			rank INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_source ON sessions(source)`,
		`CREATE INDEX IF NOT EXISTS idx_marks_session ON marks(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_marks_contest ON marks(contest_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// IngestSummary holds counts from one ingest.
type IngestSummary struct {
	Sessions int
	Marks    int
	Replaced bool
}

// Ingest stores every session of env under source in one transaction. Rows
// previously ingested from the same source are replaced.
func (s *Store) Ingest(ctx context.Context, env types.Envelope, source string, w io.Writer) (IngestSummary, error) {
	var summary IngestSummary

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return summary, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM sources WHERE source = ?`, source)
	if err != nil {
		return summary, fmt.Errorf("deleting old source: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		summary.Replaced = true
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sources (source, version, election_id, sessions, ingested_at) VALUES (?, ?, ?, ?, ?)`,
		source, env.Version, env.ElectionID, len(env.Sessions), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return summary, fmt.Errorf("inserting source: %w", err)
	}

	sessionStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sessions (source, seq, tabulator_id, batch_id, record_id, counting_group_id)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return summary, fmt.Errorf("preparing session insert: %w", err)
	}
	defer sessionStmt.Close()

	markStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO marks (session_id, contest_id, candidate_id, rank) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return summary, fmt.Errorf("preparing mark insert: %w", err)
	}
	defer markStmt.Close()

	for i, sess := range env.Sessions {
		res, err := sessionStmt.ExecContext(ctx,
			source, i, sess.TabulatorID, sess.BatchID, sess.RecordID, sess.CountingGroupID)
		if err != nil {
			return summary, fmt.Errorf("inserting session %s: %w", sess.RecordID, err)
		}
		sessionID, err := res.LastInsertId()
		if err != nil {
			return summary, fmt.Errorf("reading session id: %w", err)
		}

		for _, contest := range sess.Original.Contests {
			for _, m := range contest.Marks {
				if _, err := markStmt.ExecContext(ctx, sessionID, contest.ID, m.CandidateID, m.Rank); err != nil {
					return summary, fmt.Errorf("inserting mark for session %s: %w", sess.RecordID, err)
				}
				summary.Marks++
			}
		}
		summary.Sessions++
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("committing: %w", err)
	}

	verb := "indexed"
	if summary.Replaced {
		verb = "replaced"
	}
	fmt.Fprintf(w, "%s %s: %d sessions, %d marks\n", verb, source, summary.Sessions, summary.Marks)
	return summary, nil
}

// ContestCount summarizes the indexed marks of one contest.
type ContestCount struct {
	ContestID int `json:"contest_id" yaml:"contest_id"`
	Ballots   int `json:"ballots" yaml:"ballots"`
	Marks     int `json:"marks" yaml:"marks"`
	MaxRank   int `json:"max_rank" yaml:"max_rank"`
}

// ContestSummary returns ballot and mark counts per contest, ordered by
// contest id.
func (s *Store) ContestSummary(ctx context.Context) ([]ContestCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT contest_id, COUNT(DISTINCT session_id), COUNT(*), MAX(rank)
		 FROM marks GROUP BY contest_id ORDER BY contest_id`)
	if err != nil {
		return nil, fmt.Errorf("querying contest summary: %w", err)
	}
	defer rows.Close()

	var out []ContestCount
	for rows.Next() {
		var c ContestCount
		if err := rows.Scan(&c.ContestID, &c.Ballots, &c.Marks, &c.MaxRank); err != nil {
			return nil, fmt.Errorf("scanning contest summary: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SessionCount returns the number of indexed sessions across all sources.
func (s *Store) SessionCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}
	return n, nil
}
