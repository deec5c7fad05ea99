package projects

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai-portfolio/backend/internal/storage/models"
	"github.com/ai-portfolio/backend/internal/storage/sqlite"
)

func newSQLiteService(t *testing.T) *Service {
	t.Helper()

	db, err := sqlite.NewClient(filepath.Join(t.TempDir(), "portfolio.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.InitSchema(context.Background()))

	return NewService(db)
}

type failingStore struct{}

func (failingStore) InsertProjectIfAbsent(context.Context, *models.Project) (bool, error) {
	return false, errors.New("disk full")
}

func (failingStore) GetProjects(context.Context) (map[string]models.Project, error) {
	return nil, errors.New("disk full")
}

func (failingStore) DeleteProject(context.Context, string) (bool, error) {
	return false, errors.New("disk full")
}

func TestList_BuiltInsFirstThenSortedStored(t *testing.T) {
	s := newSQLiteService(t)
	ctx := context.Background()

	for _, title := range []string{"Zeta Forecast", "Anomaly Detection"} {
		_, err := s.Save(ctx, models.Project{Title: title, Skills: []string{"Python"}})
		require.NoError(t, err)
	}

	list, err := s.List(ctx)
	require.NoError(t, err)

	titles := make([]string, len(list))
	for i, p := range list {
		titles[i] = p.Title
	}
	assert.Equal(t, []string{"Churn Prediction", "Resume–JD Matcher", "Anomaly Detection", "Zeta Forecast"}, titles)
	assert.True(t, list[0].BuiltIn)
	assert.False(t, list[2].BuiltIn)
}

func TestSave_ExistingTitleIsNoOp(t *testing.T) {
	s := newSQLiteService(t)
	ctx := context.Background()

	inserted, err := s.Save(ctx, models.Project{Title: "Fraud Detection", Description: "first"})
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.Save(ctx, models.Project{Title: " Fraud Detection ", Description: "second"})
	require.NoError(t, err)
	assert.False(t, inserted)

	p, err := s.Get(ctx, "Fraud Detection")
	require.NoError(t, err)
	assert.Equal(t, "first", p.Description)
}

func TestSave_BuiltInTitleIsNoOp(t *testing.T) {
	s := newSQLiteService(t)

	inserted, err := s.Save(context.Background(), models.Project{Title: "Churn Prediction", Description: "override"})
	require.NoError(t, err)
	assert.False(t, inserted)

	p, err := s.Get(context.Background(), "Churn Prediction")
	require.NoError(t, err)
	assert.Equal(t, "Predicts customer churn using a simple interpretable model.", p.Description)
}

func TestSave_Validation(t *testing.T) {
	s := newSQLiteService(t)

	_, err := s.Save(context.Background(), models.Project{Title: "   "})
	assert.ErrorIs(t, err, ErrInvalidProject)

	_, err = s.Save(context.Background(), models.Project{Title: "X", DemoType: "video"})
	assert.ErrorIs(t, err, ErrInvalidProject)
}

func TestGet(t *testing.T) {
	s := newSQLiteService(t)

	p, err := s.Get(context.Background(), "Resume–JD Matcher")
	require.NoError(t, err)
	assert.Equal(t, models.DemoText, p.DemoType)
	assert.Contains(t, p.AIContext, "keyword overlap")

	_, err = s.Get(context.Background(), "Unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_ThenReinsert(t *testing.T) {
	s := newSQLiteService(t)
	ctx := context.Background()

	_, err := s.Save(ctx, models.Project{Title: "Fraud Detection", Description: "old"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "Fraud Detection"))
	assert.ErrorIs(t, s.Delete(ctx, "Fraud Detection"), ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "Churn Prediction"), ErrBuiltIn)

	inserted, err := s.Save(ctx, models.Project{Title: "Fraud Detection", Description: "new"})
	require.NoError(t, err)
	assert.True(t, inserted)
}

func TestNoStore_DegradesToCatalog(t *testing.T) {
	s := NewService(nil)
	ctx := context.Background()

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = s.Save(ctx, models.Project{Title: "X"})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, s.Delete(ctx, "X"), ErrStoreUnavailable)
}

func TestFailingStore(t *testing.T) {
	s := NewService(failingStore{})
	ctx := context.Background()

	list, err := s.List(ctx)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Len(t, list, 2, "catalog still served")

	_, err = s.Save(ctx, models.Project{Title: "X"})
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	p, err := s.Get(ctx, "Churn Prediction")
	require.NoError(t, err)
	assert.True(t, p.BuiltIn)
}

func TestBuiltIns_ReturnsCopy(t *testing.T) {
	a := BuiltIns()
	a[0].Skills[0] = "mutated"
	assert.Equal(t, "Logistic Regression", BuiltIns()[0].Skills[0])
}
