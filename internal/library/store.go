package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"reelsmith/internal/config"
	"reelsmith/internal/pipeline"
)

// Render is one catalogued completed pipeline run.
type Render struct {
	ID              int64
	SessionID       string
	Kind            pipeline.Kind
	Title           string
	ArtifactPath    string
	Inputs          map[string]any
	DurationSeconds float64
	CreatedAt       time.Time
}

// Store catalogues completed renders backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the library database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.OutputDir, "library.db"))
}

// OpenPath opens the library database at an explicit path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the location of the database file.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Add catalogues a completed render. Re-adding a session replaces its entry.
func (s *Store) Add(ctx context.Context, render Render) (*Render, error) {
	if render.SessionID == "" {
		return nil, errors.New("session id is required")
	}
	if render.ArtifactPath == "" {
		return nil, errors.New("artifact path is required")
	}

	var inputsJSON any
	if len(render.Inputs) > 0 {
		encoded, err := json.Marshal(render.Inputs)
		if err != nil {
			return nil, fmt.Errorf("marshal inputs: %w", err)
		}
		inputsJSON = string(encoded)
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO renders (session_id, kind, title, artifact_path, inputs_json, duration_seconds, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(session_id) DO UPDATE SET
             kind = excluded.kind, title = excluded.title, artifact_path = excluded.artifact_path,
             inputs_json = excluded.inputs_json, duration_seconds = excluded.duration_seconds`,
		render.SessionID,
		string(render.Kind),
		nullableString(render.Title),
		render.ArtifactPath,
		inputsJSON,
		render.DurationSeconds,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert render: %w", err)
	}
	return s.GetBySessionID(ctx, render.SessionID)
}

// GetBySessionID fetches a catalogued render by session identifier.
func (s *Store) GetBySessionID(ctx context.Context, sessionID string) (*Render, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+renderColumns+` FROM renders WHERE session_id = ?`, sessionID)
	render, err := scanRender(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get render: %w", err)
	}
	return render, nil
}

// List returns catalogued renders, newest first, optionally filtered by kind.
func (s *Store) List(ctx context.Context, kinds ...pipeline.Kind) ([]*Render, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + renderColumns + ` FROM renders`
	orderClause := ` ORDER BY created_at DESC`

	if len(kinds) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(kinds))
		args := make([]any, len(kinds))
		for i, kind := range kinds {
			args[i] = string(kind)
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE kind IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list renders: %w", err)
	}
	defer rows.Close()

	var renders []*Render
	for rows.Next() {
		render, err := scanRender(rows)
		if err != nil {
			return nil, err
		}
		renders = append(renders, render)
	}
	return renders, rows.Err()
}

// Stats returns a count of renders grouped by kind.
func (s *Store) Stats(ctx context.Context) (map[pipeline.Kind]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(1) FROM renders GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("library stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[pipeline.Kind]int)
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		stats[pipeline.Kind(kind)] = count
	}
	return stats, rows.Err()
}

// Remove deletes a catalogued render by session identifier.
func (s *Store) Remove(ctx context.Context, sessionID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM renders WHERE session_id = ?`, sessionID)
	if err != nil {
		return false, fmt.Errorf("delete render: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Clear removes every catalogued render.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM renders`)
	if err != nil {
		return 0, fmt.Errorf("clear library: %w", err)
	}
	return res.RowsAffected()
}

const renderColumns = "id, session_id, kind, title, artifact_path, inputs_json, duration_seconds, created_at"

func scanRender(scanner interface{ Scan(dest ...any) error }) (*Render, error) {
	var (
		id         int64
		sessionID  string
		kind       string
		title      sql.NullString
		artifact   string
		inputsJSON sql.NullString
		duration   float64
		createdRaw string
	)
	if err := scanner.Scan(&id, &sessionID, &kind, &title, &artifact, &inputsJSON, &duration, &createdRaw); err != nil {
		return nil, err
	}

	render := &Render{
		ID:              id,
		SessionID:       sessionID,
		Kind:            pipeline.Kind(kind),
		Title:           title.String,
		ArtifactPath:    artifact,
		DurationSeconds: duration,
	}
	if inputsJSON.Valid && inputsJSON.String != "" {
		if err := json.Unmarshal([]byte(inputsJSON.String), &render.Inputs); err != nil {
			return nil, fmt.Errorf("decode inputs: %w", err)
		}
	}
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		render.CreatedAt = created
	}
	return render, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
