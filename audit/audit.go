// Copyright 2026 Klartext Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package audit keeps an append-only trail of data processing activity
// in a local SQLite database. Every entry names an actor, an action and
// an optional structured payload, so that processing of personal data
// stays accountable after the data itself has been masked or erased.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Well-known action names recorded by the rest of the system.
const (
	ActionDocumentProcessed = "document_processed"
	ActionDocumentDeleted   = "document_deleted"
	ActionSearch            = "search"
	ActionChat              = "chat"
	ActionAnalysis          = "nlp_analysis"
	ActionStartup           = "startup"
	ActionShutdown          = "shutdown"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_log (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT NOT NULL,
	actor     TEXT NOT NULL,
	action    TEXT NOT NULL,
	details   TEXT,
	metadata  TEXT
);
CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_log(timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_audit_action ON audit_log(action);
`

// Entry is one recorded audit event.
type Entry struct {
	ID        int64
	Timestamp time.Time
	Actor     string
	Action    string
	Details   string
	Metadata  map[string]any
}

// Stats summarizes the trail.
type Stats struct {
	TotalEntries int64
	ByAction     map[string]int64
}

// Trail is the SQLite-backed audit log. It is safe for concurrent use;
// database/sql serializes access to the single connection pool.
type Trail struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Option configures a Trail.
type Option func(*Trail)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(t *Trail) {
		if logger == nil {
			logger = slog.Default()
		}
		t.logger = logger
	}
}

// Open creates or opens the audit trail under dataDir. The database
// lives at dataDir/audit/audit.db and is created on first use.
func Open(dataDir string, opts ...Option) (*Trail, error) {
	auditDir := filepath.Join(dataDir, "audit")
	if err := os.MkdirAll(auditDir, 0o700); err != nil {
		return nil, fmt.Errorf("create audit directory: %w", err)
	}
	dbPath := filepath.Join(auditDir, "audit.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize audit schema: %w", err)
	}

	t := &Trail{
		db:     db,
		path:   dbPath,
		logger: slog.Default().With("component", "audit"),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger.Debug("audit trail opened", "path", dbPath)
	return t, nil
}

// Close closes the underlying database.
func (t *Trail) Close() error {
	return t.db.Close()
}

// Path returns the database file path.
func (t *Trail) Path() string {
	return t.path
}

// Log appends an event to the trail and returns its row id. Metadata
// is stored as JSON; a nil map is stored as SQL NULL. A failure to
// write the trail is returned to the caller but never mutates prior
// entries.
func (t *Trail) Log(ctx context.Context, actor, action, details string, metadata map[string]any) (int64, error) {
	var metadataJSON sql.NullString
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return 0, fmt.Errorf("encode audit metadata: %w", err)
		}
		metadataJSON = sql.NullString{String: string(raw), Valid: true}
	}

	res, err := t.db.ExecContext(ctx,
		`INSERT INTO audit_log (timestamp, actor, action, details, metadata) VALUES (?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano), actor, action, nullable(details), metadataJSON,
	)
	if err != nil {
		return 0, fmt.Errorf("insert audit entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read audit entry id: %w", err)
	}
	t.logger.Debug("audit entry recorded", "id", id, "actor", actor, "action", action)
	return id, nil
}

// Recent returns the newest entries, most recent first. A limit of
// zero or less defaults to 100 entries.
func (t *Trail) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := t.db.QueryContext(ctx,
		`SELECT id, timestamp, actor, action, details, metadata
		 FROM audit_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e            Entry
			ts           string
			details      sql.NullString
			metadataJSON sql.NullString
		)
		if err := rows.Scan(&e.ID, &ts, &e.Actor, &e.Action, &details, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse audit timestamp %q: %w", ts, err)
		}
		e.Timestamp = parsed
		e.Details = details.String
		if metadataJSON.Valid {
			if err := json.Unmarshal([]byte(metadataJSON.String), &e.Metadata); err != nil {
				return nil, fmt.Errorf("decode audit metadata of entry %d: %w", e.ID, err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats returns the total entry count and a per-action breakdown.
func (t *Trail) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{ByAction: make(map[string]int64)}

	rows, err := t.db.QueryContext(ctx,
		`SELECT action, COUNT(*) FROM audit_log GROUP BY action`)
	if err != nil {
		return Stats{}, fmt.Errorf("query audit stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			action string
			count  int64
		)
		if err := rows.Scan(&action, &count); err != nil {
			return Stats{}, fmt.Errorf("scan audit stats: %w", err)
		}
		stats.ByAction[action] = count
		stats.TotalEntries += count
	}
	return stats, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
