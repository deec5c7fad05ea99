// Package postgres is the relational backend for deployments that already
// run Postgres. It mirrors the SQLite client's contract.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/ai-portfolio/backend/internal/storage/models"
	"github.com/ai-portfolio/backend/pkg/logger"
)

var ErrMissingDSN = errors.New("postgres DSN is not set (DATABASE_URL)")

type Client struct {
	db *sql.DB
}

func Open(dsn string) (*Client, error) {
	if dsn == "" {
		return nil, ErrMissingDSN
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &Client{db: db}, nil
}

// NewWithDB wraps an existing handle.
func NewWithDB(db *sql.DB) *Client {
	return &Client{db: db}
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
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		skills TEXT NOT NULL DEFAULT '',
		demo_type TEXT NOT NULL DEFAULT '',
		ai_context TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS interactions (
		id BIGSERIAL PRIMARY KEY,
		timestamp TIMESTAMPTZ NOT NULL DEFAULT now(),
		project_name TEXT NOT NULL,
		question TEXT NOT NULL
	);
	`

	if _, err := c.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("Postgres schema initialized")
	return nil
}

func (c *Client) InsertProjectIfAbsent(ctx context.Context, p *models.Project) (bool, error) {
	res, err := c.db.ExecContext(ctx, `
		insert into projects (title, description, skills, demo_type, ai_context)
		values ($1, $2, $3, $4, $5)
		on conflict (title) do nothing
	`, p.Title, p.Description, models.JoinSkills(p.Skills), string(p.DemoType), p.AIContext)
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
	rows, err := c.db.QueryContext(ctx, `
		select id, title, description, skills, demo_type, ai_context
		from projects
	`)
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
	return projects, rows.Err()
}

func (c *Client) DeleteProject(ctx context.Context, title string) (bool, error) {
	res, err := c.db.ExecContext(ctx, `delete from projects where title = $1`, title)
	if err != nil {
		return false, fmt.Errorf("failed to delete project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	return n > 0, nil
}

func (c *Client) AppendInteraction(ctx context.Context, project, question string) error {
	_, err := c.db.ExecContext(ctx, `
		insert into interactions (project_name, question)
		values ($1, $2)
	`, project, question)
	if err != nil {
		return fmt.Errorf("failed to insert interaction: %w", err)
	}
	return nil
}

func (c *Client) LoadInteractions(ctx context.Context) ([]models.Interaction, error) {
	rows, err := c.db.QueryContext(ctx, `
		select timestamp, project_name, question
		from interactions
		order by id desc
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load interactions: %w", err)
	}
	defer rows.Close()

	records := []models.Interaction{}
	for rows.Next() {
		var r models.Interaction
		if err := rows.Scan(&r.Timestamp, &r.Project, &r.Question); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
