package assistant

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai-portfolio/backend/internal/cache/redis"
	"github.com/ai-portfolio/backend/internal/llm"
	"github.com/ai-portfolio/backend/internal/projects"
	"github.com/ai-portfolio/backend/internal/storage/models"
	"github.com/ai-portfolio/backend/pkg/circuitbreaker"
)

type fakeExplainer struct {
	answer   string
	err      error
	calls    int
	question string
	context  string
}

func (f *fakeExplainer) ExplainProject(_ context.Context, question, aiContext string) (string, error) {
	f.calls++
	f.question = question
	f.context = aiContext
	return f.answer, f.err
}

type fakeRecorder struct {
	records [][2]string
	err     error
}

func (f *fakeRecorder) Record(_ context.Context, project, question string) error {
	f.records = append(f.records, [2]string{project, question})
	return f.err
}

func newAssistant(exp Explainer, rec Recorder, opts Options) *Assistant {
	return New(exp, projects.NewService(nil), rec, opts)
}

func TestAsk_AnswersAndRecords(t *testing.T) {
	exp := &fakeExplainer{answer: "It is interpretable."}
	rec := &fakeRecorder{}

	resp, err := newAssistant(exp, rec, Options{}).Ask(context.Background(), AskRequest{
		Project:  "Churn Prediction",
		Question: "  Why logistic regression?  ",
	})
	require.NoError(t, err)

	assert.Equal(t, "It is interpretable.", resp.Answer)
	assert.False(t, resp.Warning)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "Why logistic regression?", exp.question)
	assert.Contains(t, exp.context, "Logistic Regression was chosen")
	assert.Equal(t, [][2]string{{"Churn Prediction", "Why logistic regression?"}}, rec.records)
}

func TestAsk_InputErrorsSkipExternalCalls(t *testing.T) {
	exp := &fakeExplainer{answer: "x"}
	rec := &fakeRecorder{}
	a := newAssistant(exp, rec, Options{})

	_, err := a.Ask(context.Background(), AskRequest{Project: "Churn Prediction", Question: " \n"})
	assert.ErrorIs(t, err, ErrEmptyQuestion)

	_, err = a.Ask(context.Background(), AskRequest{Project: "Nope", Question: "Why?"})
	assert.ErrorIs(t, err, ErrProjectNotFound)

	assert.Zero(t, exp.calls)
	assert.Empty(t, rec.records)
}

func TestAsk_ProviderFailuresBecomeWarnings(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"rate limited", fmt.Errorf("failed to explain project: %w", llm.ErrRateLimited), WarnUnavailable},
		{"circuit open", circuitbreaker.ErrOpen, WarnUnavailable},
		{"no api key", llm.ErrNotConfigured, WarnNotConfigured},
		{"other", errors.New("connection reset"), WarnFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeRecorder{}

			resp, err := newAssistant(&fakeExplainer{err: tt.err}, rec, Options{}).Ask(context.Background(), AskRequest{
				Project:  "Resume–JD Matcher",
				Question: "How does matching work?",
			})
			require.NoError(t, err)
			assert.True(t, resp.Warning)
			assert.Equal(t, tt.want, resp.Answer)
			assert.Len(t, rec.records, 1)
		})
	}
}

func TestAsk_RecorderFailureDoesNotFailAnswer(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("disk full")}

	resp, err := newAssistant(&fakeExplainer{answer: "ok"}, rec, Options{}).Ask(context.Background(), AskRequest{
		Project:  "Churn Prediction",
		Question: "Why?",
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Answer)
}

func TestAsk_CachesAnswers(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewFromAddr(mr.Addr())
	defer cache.Close()

	exp := &fakeExplainer{answer: "cached answer"}
	rec := &fakeRecorder{}
	a := newAssistant(exp, rec, Options{Cache: cache, CacheTTL: time.Hour})
	req := AskRequest{Project: "Churn Prediction", Question: "Why?"}

	first, err := a.Ask(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := a.Ask(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, "cached answer", second.Answer)

	assert.Equal(t, 1, exp.calls)
	assert.Len(t, rec.records, 2, "cached answers are still logged")
}

func TestAsk_WarningsAreNotCached(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewFromAddr(mr.Addr())
	defer cache.Close()

	exp := &fakeExplainer{err: llm.ErrRateLimited}
	a := newAssistant(exp, &fakeRecorder{}, Options{Cache: cache, CacheTTL: time.Hour})
	req := AskRequest{Project: "Churn Prediction", Question: "Why?"}

	_, err := a.Ask(context.Background(), req)
	require.NoError(t, err)
	_, err = a.Ask(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 2, exp.calls)
}

type brokenLookup struct{}

func (brokenLookup) Get(context.Context, string) (*models.Project, error) {
	return nil, projects.ErrStoreUnavailable
}

func TestAsk_LookupFailurePropagates(t *testing.T) {
	a := New(&fakeExplainer{}, brokenLookup{}, &fakeRecorder{}, Options{})

	_, err := a.Ask(context.Background(), AskRequest{Project: "X", Question: "Why?"})
	assert.ErrorIs(t, err, projects.ErrStoreUnavailable)
}
