// Package store persists graded submissions and serves leaderboard
// aggregation queries over them. Challenge artifacts themselves live on
// the filesystem (see internal/challenge); this database only ever holds
// derived results, which are always recomputable from the artifacts and
// the simulator.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Submission is one graded answer.
type Submission struct {
	ID           string
	Bucket       string
	Model        string
	Provider     string
	ActionGrade  float64
	StateGrade   float64
	OverallGrade float64
	Score        int
	ContentHash  string
	CreatedAt    time.Time
}

// LeaderboardRow is one aggregated leaderboard entry.
type LeaderboardRow struct {
	Model       string  `json:"model"`
	Provider    string  `json:"provider"`
	Points      int     `json:"points"`
	MeanOverall float64 `json:"mean_overall"`
	Submissions int     `json:"submissions"`
}

// SQLiteDB is the sqlite-backed results store.
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens (or creates) the database at path.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Migrate runs database migrations.
func (s *SQLiteDB) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS submissions (
			id TEXT PRIMARY KEY,
			bucket TEXT NOT NULL,
			model TEXT NOT NULL,
			provider TEXT NOT NULL DEFAULT '',
			action_grade REAL NOT NULL,
			state_grade REAL NOT NULL,
			overall_grade REAL NOT NULL,
			score INTEGER NOT NULL DEFAULT 0,
			content_hash TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_bucket ON submissions(bucket)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_model ON submissions(model, bucket)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// SaveSubmission stores one graded submission, assigning an ID if absent.
func (s *SQLiteDB) SaveSubmission(sub *Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	_, err := s.db.Exec(
		`INSERT INTO submissions (id, bucket, model, provider, action_grade, state_grade, overall_grade, score, content_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.Bucket, sub.Model, sub.Provider,
		sub.ActionGrade, sub.StateGrade, sub.OverallGrade, sub.Score, sub.ContentHash,
	)
	if err != nil {
		return fmt.Errorf("failed to save submission: %w", err)
	}
	return nil
}

// SubmissionsForBucket returns every graded submission for a bucket.
func (s *SQLiteDB) SubmissionsForBucket(bucket string) ([]Submission, error) {
	rows, err := s.db.Query(
		`SELECT id, bucket, model, provider, action_grade, state_grade, overall_grade, score, content_hash, created_at
		 FROM submissions WHERE bucket = ? ORDER BY created_at`,
		bucket,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		var sub Submission
		if err := rows.Scan(&sub.ID, &sub.Bucket, &sub.Model, &sub.Provider,
			&sub.ActionGrade, &sub.StateGrade, &sub.OverallGrade, &sub.Score,
			&sub.ContentHash, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// Leaderboard aggregates per-model results for every bucket matching the
// prefix (e.g. "2025-11" for a monthly board), ranked by binary points
// then mean overall grade.
func (s *SQLiteDB) Leaderboard(bucketPrefix string) ([]LeaderboardRow, error) {
	rows, err := s.db.Query(
		`SELECT model, provider, SUM(score), AVG(overall_grade), COUNT(*)
		 FROM submissions WHERE bucket LIKE ? || '%'
		 GROUP BY model, provider
		 ORDER BY SUM(score) DESC, AVG(overall_grade) DESC`,
		bucketPrefix,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []LeaderboardRow
	for rows.Next() {
		var row LeaderboardRow
		if err := rows.Scan(&row.Model, &row.Provider, &row.Points, &row.MeanOverall, &row.Submissions); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
