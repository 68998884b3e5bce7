package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"

	"github.com/vixomaix/reel-to-recipe-api/internal/domain"
	"github.com/vixomaix/reel-to-recipe-api/internal/port"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Archive mirrors terminal extraction results into a local sqlite database
// for history queries. It sits outside the hot path: queue correctness
// never depends on it.
type Archive struct {
	db *sql.DB
}

var hookOnce sync.Once

func registerHook() {
	hookOnce.Do(func() {
		sqlite.RegisterConnectionHook(func(conn sqlite.ExecQuerierContext, dsn string) error {
			pragmas := []string{
				"PRAGMA journal_mode = WAL",
				"PRAGMA busy_timeout = 5000",
				"PRAGMA synchronous = NORMAL",
				"PRAGMA foreign_keys = ON",
			}
			for _, p := range pragmas {
				if _, err := conn.ExecContext(context.Background(), p, nil); err != nil {
					return fmt.Errorf("execute %s: %w", p, err)
				}
			}
			return nil
		})
	})
}

func NewArchive(dataDir string) (*Archive, error) {
	registerHook()

	db, err := sql.Open("sqlite", dataDir+"/extractions.db")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL allows concurrent reads but only one writer.
	db.SetMaxOpenConns(1)

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Archive{db: db}, nil
}

func (a *Archive) Close() error {
	return a.db.Close()
}

func (a *Archive) SaveExtraction(ctx context.Context, job *domain.Job, recipe *domain.Recipe) error {
	var recipeJSON []byte
	if recipe != nil {
		data, err := json.Marshal(recipe)
		if err != nil {
			return fmt.Errorf("marshal recipe: %w", err)
		}
		recipeJSON = data
	}

	_, err := a.db.ExecContext(ctx, `
		INSERT INTO extractions (job_id, user_id, url, platform, status, error_message, recipe_json, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET
			status = excluded.status,
			error_message = excluded.error_message,
			recipe_json = excluded.recipe_json,
			completed_at = excluded.completed_at`,
		job.ID, job.UserID, job.URL, string(job.Platform), string(job.Status),
		job.ErrorMessage, recipeJSON, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("archive extraction %s: %w", job.ID, err)
	}
	return nil
}

// ExtractionRecord is an archived terminal result.
type ExtractionRecord struct {
	JobID        string
	UserID       string
	URL          string
	Platform     string
	Status       string
	ErrorMessage string
	Recipe       *domain.Recipe
}

// ListByUser returns the most recent archived extractions for a user.
func (a *Archive) ListByUser(ctx context.Context, userID string, limit int) ([]ExtractionRecord, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT job_id, user_id, url, platform, status, error_message, recipe_json
		FROM extractions WHERE user_id = ?
		ORDER BY completed_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list extractions: %w", err)
	}
	defer rows.Close()

	var records []ExtractionRecord
	for rows.Next() {
		var rec ExtractionRecord
		var recipeJSON []byte
		if err := rows.Scan(&rec.JobID, &rec.UserID, &rec.URL, &rec.Platform, &rec.Status, &rec.ErrorMessage, &recipeJSON); err != nil {
			return nil, fmt.Errorf("scan extraction: %w", err)
		}
		if len(recipeJSON) > 0 {
			var recipe domain.Recipe
			if err := json.Unmarshal(recipeJSON, &recipe); err != nil {
				return nil, fmt.Errorf("decode archived recipe %s: %w", rec.JobID, err)
			}
			rec.Recipe = &recipe
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

var _ port.Archive = (*Archive)(nil)
