// Package csvlog keeps the interaction log in a flat CSV file with the
// header Timestamp,Project,Question.
package csvlog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ai-portfolio/backend/internal/storage/models"
	"github.com/ai-portfolio/backend/pkg/logger"
)

type Sink struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

func New(path string) *Sink {
	return &Sink{path: path, now: time.Now}
}

func (s *Sink) Path() string {
	return s.path
}

// AppendInteraction writes one row. The header is written only when the file
// is empty.
func (s *Sink) AppendInteraction(ctx context.Context, project, question string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat log file: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(models.InteractionColumns); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	row := []string{s.now().Format(models.TimestampLayout), project, question}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush log file: %w", err)
	}

	return nil
}

// LoadInteractions returns every row most recent first. A missing file is an
// empty log.
func (s *Sink) LoadInteractions(ctx context.Context) ([]models.Interaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []models.Interaction{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(models.InteractionColumns)

	records := []models.Interaction{}
	header := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read log file: %w", err)
		}
		if header {
			header = false
			if row[0] == models.ColumnTimestamp {
				continue
			}
		}

		ts, err := time.ParseInLocation(models.TimestampLayout, row[0], time.Local)
		if err != nil {
			logger.Warn("Skipping log row with bad timestamp", zap.String("value", row[0]))
			continue
		}
		records = append(records, models.Interaction{Timestamp: ts, Project: row[1], Question: row[2]})
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}

	return records, nil
}
