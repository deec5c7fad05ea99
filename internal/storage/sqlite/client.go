package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/ai-portfolio/backend/internal/storage/models"
	"github.com/ai-portfolio/backend/pkg/logger"
)

// Client stores projects and the interaction log in a single SQLite file.
type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		skills TEXT NOT NULL DEFAULT '',
		demo_type TEXT NOT NULL DEFAULT '',
		ai_context TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS interactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp INTEGER NOT NULL DEFAULT (CAST(strftime('%s', 'now') AS INTEGER)),
		project_name TEXT NOT NULL,
		question TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_interactions_project ON interactions(project_name);
	`

	if _, err := c.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// InsertProjectIfAbsent inserts p unless a project with the same title exists.
func (c *Client) InsertProjectIfAbsent(ctx context.Context, p *models.Project) (bool, error) {
	query := `
		INSERT OR IGNORE INTO projects (title, description, skills, demo_type, ai_context)
		VALUES (?, ?, ?, ?, ?)
	`

	res, err := c.db.ExecContext(ctx, query,
		p.Title,
		p.Description,
		models.JoinSkills(p.Skills),
		string(p.DemoType),
		p.AIContext,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert project: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}

	logger.Debug("Project insert", zap.String("title", p.Title), zap.Bool("inserted", n == 1))
	return n == 1, nil
}

func (c *Client) GetProjects(ctx context.Context) (map[string]models.Project, error) {
	query := `SELECT id, title, description, skills, demo_type, ai_context FROM projects`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get projects: %w", err)
	}
	defer rows.Close()

	projects := make(map[string]models.Project)
	for rows.Next() {
		var p models.Project
		var skills, demoType string

		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &skills, &demoType, &p.AIContext); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}

		p.Skills = models.SplitSkills(skills)
		p.DemoType = models.DemoType(demoType)
		projects[p.Title] = p
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}

	return projects, nil
}

func (c *Client) DeleteProject(ctx context.Context, title string) (bool, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM projects WHERE title = ?`, title)
	if err != nil {
		return false, fmt.Errorf("failed to delete project: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	return n > 0, nil
}

// AppendInteraction logs one question. The timestamp comes from the column default.
func (c *Client) AppendInteraction(ctx context.Context, project, question string) error {
	query := `INSERT INTO interactions (project_name, question) VALUES (?, ?)`

	if _, err := c.db.ExecContext(ctx, query, project, question); err != nil {
		return fmt.Errorf("failed to insert interaction: %w", err)
	}

	return nil
}

// LoadInteractions returns the log most recent first.
func (c *Client) LoadInteractions(ctx context.Context) ([]models.Interaction, error) {
	query := `SELECT timestamp, project_name, question FROM interactions ORDER BY id DESC`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load interactions: %w", err)
	}
	defer rows.Close()

	records := []models.Interaction{}
	for rows.Next() {
		var r models.Interaction
		var ts int64

		if err := rows.Scan(&ts, &r.Project, &r.Question); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}

		r.Timestamp = time.Unix(ts, 0)
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate interactions: %w", err)
	}

	return records, nil
}
