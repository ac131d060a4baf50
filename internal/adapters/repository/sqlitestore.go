package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/sitescore/internal/domain/model"
	"github.com/okian/sitescore/pkg/metrics"
)

// SQLiteStore keeps the last composite score per site in SQLite.
type SQLiteStore struct {
	DBPath       string
	db           *sql.DB
	busyTimeout  time.Duration
	maxOpenConns int
}

// OpenSQLite opens or creates the snapshot database at path.
func OpenSQLite(ctx context.Context, path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve db path: %v", ErrSnapshot, err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("%w: ensure db dir: %v", ErrSnapshot, err)
	}

	s := &SQLiteStore{
		DBPath:       absPath,
		busyTimeout:  5 * time.Second,
		maxOpenConns: 1,
	}
	for _, opt := range opts {
		opt(s)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", absPath, s.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open db: %v", ErrSnapshot, err)
	}
	db.SetMaxOpenConns(s.maxOpenConns)
	s.db = db

	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS site_scores (
	site_id TEXT PRIMARY KEY,
	overall_score INTEGER NOT NULL,
	grade TEXT NOT NULL,
	metrics_version TEXT NOT NULL,
	low_confidence INTEGER NOT NULL,
	computed_at TEXT NOT NULL,
	payload_json TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_site_scores_overall ON site_scores(overall_score DESC, site_id);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: create schema: %v", ErrSnapshot, err)
	}
	return nil
}

// Save overwrites the site's snapshot.
func (s *SQLiteStore) Save(ctx context.Context, score model.CompositeScore) error {
	payload, err := json.Marshal(score)
	if err != nil {
		metrics.RecordSnapshotError()
		return fmt.Errorf("%w: marshal %s: %v", ErrSnapshot, score.SiteID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO site_scores (site_id, overall_score, grade, metrics_version, low_confidence, computed_at, payload_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(site_id) DO UPDATE SET
			overall_score = excluded.overall_score,
			grade = excluded.grade,
			metrics_version = excluded.metrics_version,
			low_confidence = excluded.low_confidence,
			computed_at = excluded.computed_at,
			payload_json = excluded.payload_json
	`, score.SiteID, score.OverallScore, score.Grade, score.MetricsVersion,
		boolToInt(score.LowConfidence), score.ComputedAt.UTC().Format(time.RFC3339Nano), string(payload))
	if err != nil {
		metrics.RecordSnapshotError()
		return fmt.Errorf("%w: save %s: %v", ErrSnapshot, score.SiteID, err)
	}
	metrics.RecordSnapshotWrite()
	return nil
}

// Load returns the site's snapshot.
func (s *SQLiteStore) Load(ctx context.Context, siteID string) (model.CompositeScore, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT payload_json FROM site_scores WHERE site_id = ?", siteID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CompositeScore{}, ErrNotFound
	}
	if err != nil {
		metrics.RecordSnapshotError()
		return model.CompositeScore{}, fmt.Errorf("%w: load %s: %v", ErrSnapshot, siteID, err)
	}
	return decodeSnapshot(payload)
}

// List returns every snapshot ordered by site ID.
func (s *SQLiteStore) List(ctx context.Context) ([]model.CompositeScore, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT payload_json FROM site_scores ORDER BY site_id")
	if err != nil {
		metrics.RecordSnapshotError()
		return nil, fmt.Errorf("%w: list: %v", ErrSnapshot, err)
	}
	defer rows.Close()

	var out []model.CompositeScore
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrSnapshot, err)
		}
		score, err := decodeSnapshot(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, score)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list: %v", ErrSnapshot, err)
	}
	return out, nil
}

func decodeSnapshot(payload string) (model.CompositeScore, error) {
	var score model.CompositeScore
	if err := json.Unmarshal([]byte(payload), &score); err != nil {
		return model.CompositeScore{}, fmt.Errorf("%w: decode: %v", ErrSnapshot, err)
	}
	return score, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// NopSnapshotStore is used when persistence is disabled.
type NopSnapshotStore struct{}

func (NopSnapshotStore) Save(context.Context, model.CompositeScore) error { return nil }

func (NopSnapshotStore) Load(context.Context, string) (model.CompositeScore, error) {
	return model.CompositeScore{}, ErrNotFound
}

func (NopSnapshotStore) List(context.Context) ([]model.CompositeScore, error) { return nil, nil }

func (NopSnapshotStore) Close() error { return nil }
