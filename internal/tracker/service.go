// Package tracker records visitor questions and serves the analytics view.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ai-portfolio/backend/internal/metrics"
	"github.com/ai-portfolio/backend/internal/storage/models"
	"github.com/ai-portfolio/backend/pkg/logger"
)

var ErrUnavailable = errors.New("interaction log is not available")

// Sink is a storage backend for the interaction log. LoadInteractions
// returns rows most recent first.
type Sink interface {
	AppendInteraction(ctx context.Context, project, question string) error
	LoadInteractions(ctx context.Context) ([]models.Interaction, error)
}

// Table is the backend-independent view of the log.
type Table struct {
	Columns []string             `json:"columns"`
	Rows    []models.Interaction `json:"rows"`
}

func emptyTable() Table {
	return Table{
		Columns: append([]string(nil), models.InteractionColumns...),
		Rows:    []models.Interaction{},
	}
}

type Service struct {
	sink    Sink
	backend string
}

func NewService(sink Sink, backend string) *Service {
	return &Service{sink: sink, backend: backend}
}

func (s *Service) Backend() string {
	return s.backend
}

func (s *Service) Available() bool {
	return s.sink != nil
}

// Record appends one interaction. Callers treat failure as non-fatal.
func (s *Service) Record(ctx context.Context, project, question string) error {
	if s.sink == nil {
		metrics.InteractionsLogged.WithLabelValues(s.backend, "unavailable").Inc()
		return ErrUnavailable
	}

	if err := s.sink.AppendInteraction(ctx, project, question); err != nil {
		metrics.InteractionsLogged.WithLabelValues(s.backend, "error").Inc()
		logger.Error("Failed to log interaction",
			zap.String("backend", s.backend),
			zap.String("project", project),
			zap.Error(err),
		)
		return fmt.Errorf("failed to record interaction: %w", err)
	}

	metrics.InteractionsLogged.WithLabelValues(s.backend, "success").Inc()
	return nil
}

// Load returns the whole log. On failure the table is empty but still
// carries the three columns.
func (s *Service) Load(ctx context.Context) (Table, error) {
	table := emptyTable()
	if s.sink == nil {
		return table, ErrUnavailable
	}

	rows, err := s.sink.LoadInteractions(ctx)
	if err != nil {
		logger.Warn("Failed to load interactions", zap.String("backend", s.backend), zap.Error(err))
		return table, fmt.Errorf("failed to load interactions: %w", err)
	}

	if rows != nil {
		table.Rows = rows
	}
	return table, nil
}

// Summary is the dashboard view of a table.
type Summary struct {
	TotalInteractions int                  `json:"total_interactions"`
	MostPopular       string               `json:"most_popular_project"`
	LatestQuery       string               `json:"latest_query"`
	ProjectInterest   []ProjectCount       `json:"project_interest"`
	RecentQuestions   []models.Interaction `json:"recent_questions"`
}

type ProjectCount struct {
	Project string `json:"project"`
	Count   int    `json:"count"`
}

const (
	recentLimit  = 5
	notAvailable = "N/A"
	clockLayout  = "15:04:05"
)

// Summarize expects rows most recent first.
func Summarize(rows []models.Interaction) Summary {
	sum := Summary{
		TotalInteractions: len(rows),
		MostPopular:       notAvailable,
		LatestQuery:       notAvailable,
		ProjectInterest:   CountByProject(rows),
		RecentQuestions:   []models.Interaction{},
	}

	if len(rows) == 0 {
		return sum
	}

	sum.MostPopular = sum.ProjectInterest[0].Project
	sum.LatestQuery = rows[0].Timestamp.Format(clockLayout)

	n := min(recentLimit, len(rows))
	sum.RecentQuestions = append(sum.RecentQuestions, rows[:n]...)
	return sum
}

// CountByProject is sorted by count descending, ties alphabetically.
func CountByProject(rows []models.Interaction) []ProjectCount {
	counts := make(map[string]int)
	for _, r := range rows {
		counts[r.Project]++
	}

	out := make([]ProjectCount, 0, len(counts))
	for p, c := range counts {
		out = append(out, ProjectCount{Project: p, Count: c})
	}
	sortCounts(out)
	return out
}

func formatTimestamp(t time.Time) string {
	return t.Format(models.TimestampLayout)
}
