package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai-portfolio/backend/internal/storage/models"
)

func setupClient(t *testing.T) (*Client, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewWithDB(db), mock
}

func TestOpen_RequiresDSN(t *testing.T) {
	_, err := Open("")
	assert.ErrorIs(t, err, ErrMissingDSN)
}

func TestInsertProjectIfAbsent(t *testing.T) {
	c, mock := setupClient(t)
	p := &models.Project{
		Title:       "Churn Prediction v2",
		Description: "desc",
		Skills:      []string{"Logistic Regression", "EDA"},
		DemoType:    models.DemoSlider,
		AIContext:   "ctx",
	}

	t.Run("inserts new title", func(t *testing.T) {
		mock.ExpectExec(`insert into projects`).
			WithArgs("Churn Prediction v2", "desc", "Logistic Regression,EDA", "slider", "ctx").
			WillReturnResult(sqlmock.NewResult(1, 1))

		inserted, err := c.InsertProjectIfAbsent(context.Background(), p)
		require.NoError(t, err)
		assert.True(t, inserted)
	})

	t.Run("conflict is a no-op", func(t *testing.T) {
		mock.ExpectExec(`on conflict \(title\) do nothing`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		inserted, err := c.InsertProjectIfAbsent(context.Background(), p)
		require.NoError(t, err)
		assert.False(t, inserted)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProjects_SplitsSkills(t *testing.T) {
	c, mock := setupClient(t)

	mock.ExpectQuery(`select id, title, description, skills, demo_type, ai_context`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "skills", "demo_type", "ai_context"}).
			AddRow(int64(1), "Resume Matcher", "desc", "NLP,Text Similarity", "text", "ctx").
			AddRow(int64(2), "Bare", "", "", "", ""))

	projects, err := c.GetProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, []string{"NLP", "Text Similarity"}, projects["Resume Matcher"].Skills)
	assert.Equal(t, models.DemoText, projects["Resume Matcher"].DemoType)
	assert.Equal(t, []string{}, projects["Bare"].Skills)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInteractions(t *testing.T) {
	c, mock := setupClient(t)
	ctx := context.Background()

	mock.ExpectExec(`insert into interactions`).
		WithArgs("ProjectA", "Why?").
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, c.AppendInteraction(ctx, "ProjectA", "Why?"))

	now := time.Now()
	mock.ExpectQuery(`order by id desc`).
		WillReturnRows(sqlmock.NewRows([]string{"timestamp", "project_name", "question"}).
			AddRow(now, "ProjectB", "How?").
			AddRow(now.Add(-time.Minute), "ProjectA", "Why?"))

	rows, err := c.LoadInteractions(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ProjectB", rows[0].Project)
	assert.Equal(t, "ProjectA", rows[1].Project)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendInteraction_PropagatesError(t *testing.T) {
	c, mock := setupClient(t)

	mock.ExpectExec(`insert into interactions`).WillReturnError(errors.New("connection reset"))

	err := c.AppendInteraction(context.Background(), "ProjectA", "Why?")
	assert.ErrorContains(t, err, "connection reset")
}
