// Package projects merges the built-in catalog with projects saved through
// the admin path.
package projects

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ai-portfolio/backend/internal/metrics"
	"github.com/ai-portfolio/backend/internal/storage/models"
	"github.com/ai-portfolio/backend/pkg/logger"
)

var (
	ErrNotFound         = errors.New("project not found")
	ErrStoreUnavailable = errors.New("project store is not available")
	ErrInvalidProject   = errors.New("invalid project")
	ErrBuiltIn          = errors.New("built-in projects cannot be deleted")
)

// Store is implemented by the sqlite and postgres clients.
type Store interface {
	InsertProjectIfAbsent(ctx context.Context, p *models.Project) (bool, error)
	GetProjects(ctx context.Context) (map[string]models.Project, error)
	DeleteProject(ctx context.Context, title string) (bool, error)
}

type Service struct {
	store Store
}

// NewService accepts a nil store; the catalog is still served.
func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) StoreAvailable() bool {
	return s.store != nil
}

// List returns built-ins first, then stored projects by title. A failing
// store degrades to the catalog alone.
func (s *Service) List(ctx context.Context) ([]models.Project, error) {
	list := BuiltIns()
	if s.store == nil {
		return list, nil
	}

	stored, err := s.store.GetProjects(ctx)
	if err != nil {
		logger.Error("Failed to load stored projects", zap.Error(err))
		return list, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	extra := make([]models.Project, 0, len(stored))
	for title, p := range stored {
		if _, dup := builtIn(title); dup {
			continue
		}
		extra = append(extra, p)
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i].Title < extra[j].Title })

	return append(list, extra...), nil
}

func (s *Service) Get(ctx context.Context, title string) (*models.Project, error) {
	if p, ok := builtIn(title); ok {
		return &p, nil
	}
	if s.store == nil {
		return nil, ErrNotFound
	}

	stored, err := s.store.GetProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	p, ok := stored[title]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

// Save inserts p unless its title is taken, by a built-in or a stored
// project. An existing title is a silent no-op and reports false.
func (s *Service) Save(ctx context.Context, p models.Project) (bool, error) {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return false, fmt.Errorf("%w: title is required", ErrInvalidProject)
	}
	if !p.DemoType.Valid() {
		return false, fmt.Errorf("%w: unknown demo type %q", ErrInvalidProject, p.DemoType)
	}
	if s.store == nil {
		metrics.ProjectsSaved.WithLabelValues("unavailable").Inc()
		return false, ErrStoreUnavailable
	}
	if p.Skills == nil {
		p.Skills = []string{}
	}
	p.BuiltIn = false

	if _, ok := builtIn(p.Title); ok {
		metrics.ProjectsSaved.WithLabelValues("exists").Inc()
		logger.Info("Project title is built in, save skipped", zap.String("title", p.Title))
		return false, nil
	}

	inserted, err := s.store.InsertProjectIfAbsent(ctx, &p)
	if err != nil {
		metrics.ProjectsSaved.WithLabelValues("error").Inc()
		logger.Error("Failed to save project", zap.String("title", p.Title), zap.Error(err))
		return false, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	if inserted {
		metrics.ProjectsSaved.WithLabelValues("inserted").Inc()
		logger.Info("Project saved", zap.String("title", p.Title))
	} else {
		metrics.ProjectsSaved.WithLabelValues("exists").Inc()
		logger.Info("Project already exists, save skipped", zap.String("title", p.Title))
	}
	return inserted, nil
}

func (s *Service) Delete(ctx context.Context, title string) error {
	if _, ok := builtIn(title); ok {
		return ErrBuiltIn
	}
	if s.store == nil {
		return ErrStoreUnavailable
	}

	deleted, err := s.store.DeleteProject(ctx, title)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if !deleted {
		return ErrNotFound
	}

	logger.Info("Project deleted", zap.String("title", title))
	return nil
}
