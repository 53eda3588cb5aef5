// Package store persists the exercise taxonomy in SQLite so exercises and
// annotations can be queried by category, namespace, and language without
// rescanning the tree.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"ucdocs/internal/logging"

	_ "github.com/mattn/go-sqlite3"
)

// TaxonomyStore wraps the SQLite taxonomy database.
type TaxonomyStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// Exercise is one exercise directory as recorded in the taxonomy.
type Exercise struct {
	Dir        string
	Title      string
	Summary    string
	Category   string
	Namespace  string
	ReadmeHash string // sha256 of the generated README, empty when absent
}

// AnnotationRow is one indexed annotation as recorded in the taxonomy.
type AnnotationRow struct {
	ID        string
	Exercise  string
	Title     string
	Language  string
	File      string
	Parts     int
	StartLine int
	EndLine   int
}

// NewTaxonomyStore opens (creating if needed) the taxonomy database.
func NewTaxonomyStore(path string) (*TaxonomyStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "NewTaxonomyStore")
	defer timer.Stop()

	logging.Store("opening taxonomy store at %s", path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("failed to set sqlite journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("failed to set sqlite synchronous=NORMAL: %v", err)
	}

	s := &TaxonomyStore{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logging.StoreDebug("taxonomy schema ready")
	return s, nil
}

// initialize creates the required tables.
func (s *TaxonomyStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS exercises (
		dir TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		summary TEXT,
		category TEXT,
		namespace TEXT,
		readme_hash TEXT,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_exercises_category ON exercises(category);
	CREATE INDEX IF NOT EXISTS idx_exercises_namespace ON exercises(namespace);

	CREATE TABLE IF NOT EXISTS annotations (
		id TEXT PRIMARY KEY,
		exercise_dir TEXT NOT NULL,
		title TEXT,
		language TEXT,
		file TEXT,
		parts INTEGER NOT NULL,
		start_line INTEGER,
		end_line INTEGER,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_annotations_exercise ON annotations(exercise_dir);
	CREATE INDEX IF NOT EXISTS idx_annotations_language ON annotations(language);

	CREATE TABLE IF NOT EXISTS sync_runs (
		run_id TEXT PRIMARY KEY,
		signature TEXT NOT NULL,
		synced_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *TaxonomyStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Replace atomically replaces the taxonomy content with the given exercises
// and annotations, recording the sync run.
func (s *TaxonomyStore) Replace(runID, signature string, exercises []Exercise, annotations []AnnotationRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer := logging.StartTimer(logging.CategoryStore, "Replace")
	defer timer.Stop()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM exercises"); err != nil {
		return fmt.Errorf("failed to clear exercises: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM annotations"); err != nil {
		return fmt.Errorf("failed to clear annotations: %w", err)
	}

	exStmt, err := tx.Prepare(`INSERT INTO exercises (dir, title, summary, category, namespace, readme_hash) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer exStmt.Close()
	for _, ex := range exercises {
		if _, err := exStmt.Exec(ex.Dir, ex.Title, ex.Summary, ex.Category, ex.Namespace, ex.ReadmeHash); err != nil {
			return fmt.Errorf("failed to insert exercise %s: %w", ex.Dir, err)
		}
	}

	annStmt, err := tx.Prepare(`INSERT INTO annotations (id, exercise_dir, title, language, file, parts, start_line, end_line) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer annStmt.Close()
	for _, a := range annotations {
		if _, err := annStmt.Exec(a.ID, a.Exercise, a.Title, a.Language, a.File, a.Parts, a.StartLine, a.EndLine); err != nil {
			return fmt.Errorf("failed to insert annotation %s: %w", a.ID, err)
		}
	}

	if _, err := tx.Exec(`INSERT OR REPLACE INTO sync_runs (run_id, signature) VALUES (?, ?)`, runID, signature); err != nil {
		return fmt.Errorf("failed to record sync run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	logging.Store("taxonomy synced: %d exercises, %d annotations", len(exercises), len(annotations))
	return nil
}

// LastSignature returns the build signature of the most recent sync, or
// empty when the store has never been synced.
func (s *TaxonomyStore) LastSignature() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sig string
	err := s.db.QueryRow(`SELECT signature FROM sync_runs ORDER BY rowid DESC LIMIT 1`).Scan(&sig)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read last sync: %w", err)
	}
	return sig, nil
}

// ExerciseQuery filters Exercises. Zero-value fields match everything.
type ExerciseQuery struct {
	Category  string
	Namespace string
}

// Exercises lists exercises matching the query, ordered by directory.
func (s *TaxonomyStore) Exercises(q ExerciseQuery) ([]Exercise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT dir, title, summary, category, namespace, readme_hash FROM exercises WHERE 1=1`
	var args []interface{}
	if q.Category != "" {
		query += ` AND category = ?`
		args = append(args, q.Category)
	}
	if q.Namespace != "" {
		query += ` AND namespace = ?`
		args = append(args, q.Namespace)
	}
	query += ` ORDER BY dir`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query exercises: %w", err)
	}
	defer rows.Close()

	var out []Exercise
	for rows.Next() {
		var ex Exercise
		if err := rows.Scan(&ex.Dir, &ex.Title, &ex.Summary, &ex.Category, &ex.Namespace, &ex.ReadmeHash); err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

// AnnotationQuery filters Annotations. Zero-value fields match everything.
type AnnotationQuery struct {
	Exercise string
	Language string
}

// Annotations lists annotations matching the query, ordered by id.
func (s *TaxonomyStore) Annotations(q AnnotationQuery) ([]AnnotationRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, exercise_dir, title, language, file, parts, start_line, end_line FROM annotations WHERE 1=1`
	var args []interface{}
	if q.Exercise != "" {
		query += ` AND exercise_dir = ?`
		args = append(args, q.Exercise)
	}
	if q.Language != "" {
		query += ` AND language = ?`
		args = append(args, q.Language)
	}
	query += ` ORDER BY id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query annotations: %w", err)
	}
	defer rows.Close()

	var out []AnnotationRow
	for rows.Next() {
		var a AnnotationRow
		if err := rows.Scan(&a.ID, &a.Exercise, &a.Title, &a.Language, &a.File, &a.Parts, &a.StartLine, &a.EndLine); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Annotation returns one annotation by id.
func (s *TaxonomyStore) Annotation(id string) (*AnnotationRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var a AnnotationRow
	err := s.db.QueryRow(
		`SELECT id, exercise_dir, title, language, file, parts, start_line, end_line FROM annotations WHERE id = ?`, id,
	).Scan(&a.ID, &a.Exercise, &a.Title, &a.Language, &a.File, &a.Parts, &a.StartLine, &a.EndLine)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load annotation %s: %w", id, err)
	}
	return &a, nil
}

// Categories lists the distinct non-empty categories in use.
func (s *TaxonomyStore) Categories() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT DISTINCT category FROM exercises WHERE category != '' ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
