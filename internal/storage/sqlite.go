package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"depdoc/internal/graph"
	"depdoc/internal/pipeline"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS artifacts (
			id TEXT PRIMARY KEY,
			name TEXT,
			kind TEXT,
			document TEXT,
			updated_at TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS reports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TIMESTAMP,
			total_nodes INTEGER,
			total_edges INTEGER,
			payload JSON
		);`,
		`CREATE INDEX IF NOT EXISTS idx_artifacts_kind ON artifacts(kind);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// Persist upserts one node's documentation. Re-running a project overwrites
// the previous artifact for the same path.
func (s *SQLiteStore) Persist(ctx context.Context, node *graph.FileNode, doc string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO artifacts (id, name, kind, document, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			kind=excluded.kind,
			document=excluded.document,
			updated_at=excluded.updated_at
	`, node.Path, node.Name, nodeKind(node), doc, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to persist artifact %s: %w", node.Path, err)
	}
	return nil
}

// GetDocument retrieves the stored documentation for a node.
func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (string, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, "SELECT document FROM artifacts WHERE id = ?", id).Scan(&doc)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query artifact %s: %w", id, err)
	}
	return doc, nil
}

// SaveReport records the run's report as a JSON payload row.
func (s *SQLiteStore) SaveReport(ctx context.Context, report *pipeline.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (created_at, total_nodes, total_edges, payload)
		VALUES (?, ?, ?, ?)
	`, time.Now().UTC(), report.TotalNodes, report.TotalEdges, payload)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}
