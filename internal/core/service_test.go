package core

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	*MemoryRunStore
	err error
}

func (s failingStore) SaveRun(context.Context, *Run) error {
	return s.err
}

func workedExample(t *testing.T) *Dataset {
	t.Helper()
	ds, err := NewDataset(
		Column{Name: "age", Values: []string{"34", "28", "51"}},
		Column{Name: "city", Values: []string{"Oslo", "Lima", "Oslo"}},
		Column{Name: "signup_date", Values: []string{"2024-01-02", "2024-03-04", "2023-12-31"}},
		Column{Name: "bio", Values: []string{"likes long walks", "bakes sourdough bread", "reads old novels"}},
	)
	require.NoError(t, err)
	return ds
}

func TestService_Infer(t *testing.T) {
	withBackends(t, fixedBackend(DefaultClassifierName, 0, 1, 2, 3))
	store := NewMemoryRunStore(10)
	svc := NewService(store, ServiceConfig{}, nil)

	run, err := svc.Infer(context.Background(), InferRequest{Dataset: workedExample(t), Source: "people.csv"})
	require.NoError(t, err)

	assert.Equal(t, DefaultClassifierName, run.Classifier)
	assert.Equal(t, "people.csv", run.Source)
	assert.Equal(t, 3, run.Rows)
	assert.Equal(t, map[string]ClassifierCode{
		"age": CodeNumeric, "city": CodeCategorical, "signup_date": CodeDatetime, "bio": CodeSentence,
	}, run.Codes)
	assert.Equal(t, map[string]RawType{
		"age": RawInt, "city": RawCategory, "signup_date": RawDatetime, "bio": RawObject,
	}, run.Metadata.TypeMapRaw)
	assert.Equal(t, []string{"bio"}, run.Metadata.TypeGroupMapSpecial[SpecialText])

	got, err := svc.GetRun(context.Background(), run.ID.String())
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)

	runs, err := svc.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
}

func TestService_ClassifierSelection(t *testing.T) {
	withBackends(t,
		fixedBackend("first", 3),
		fixedBackend("second", 4),
	)
	svc := NewService(NewMemoryRunStore(10), ServiceConfig{DefaultClassifier: "first"}, nil)
	ds := mustDataset(t, "a")

	run, err := svc.Infer(context.Background(), InferRequest{Dataset: ds})
	require.NoError(t, err)
	assert.Equal(t, "first", run.Classifier)
	assert.Equal(t, CodeSentence, run.Codes["a"])

	run, err = svc.Infer(context.Background(), InferRequest{Dataset: ds, Classifier: "second"})
	require.NoError(t, err)
	assert.Equal(t, "second", run.Classifier)
	assert.Equal(t, CodeURL, run.Codes["a"])

	_, err = svc.Infer(context.Background(), InferRequest{Dataset: ds, Classifier: "third"})
	assert.ErrorIs(t, err, ErrUnknownClassifier)

	assert.Len(t, svc.Classifiers(), 2)
}

func TestService_BuildsClassifierOnce(t *testing.T) {
	builds := 0
	withBackends(t, BackendDefinition{
		Info: BackendInfo{Name: DefaultClassifierName},
		New: func(context.Context, BackendConfig) (Classifier, error) {
			builds++
			return fixedCodes(0), nil
		},
	})
	svc := NewService(NewMemoryRunStore(10), ServiceConfig{}, nil)

	for range 3 {
		_, err := svc.Infer(context.Background(), InferRequest{Dataset: mustDataset(t, "a")})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, builds)
}

func TestService_PassesLoggerToBackend(t *testing.T) {
	var got *slog.Logger
	withBackends(t, BackendDefinition{
		Info: BackendInfo{Name: DefaultClassifierName},
		New: func(_ context.Context, cfg BackendConfig) (Classifier, error) {
			got = cfg.Logger
			return fixedCodes(0), nil
		},
	})

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	svc := NewService(NewMemoryRunStore(10), ServiceConfig{}, logger)

	_, err := svc.Infer(context.Background(), InferRequest{Dataset: mustDataset(t, "a")})
	require.NoError(t, err)
	require.NotNil(t, got)

	buf.Reset()
	got.Info("backend ready")
	assert.Contains(t, buf.String(), `"classifier":"default"`)
}

func TestService_Errors(t *testing.T) {
	t.Run("code count mismatch is not recorded", func(t *testing.T) {
		withBackends(t, fixedBackend(DefaultClassifierName, 0))
		store := NewMemoryRunStore(10)
		svc := NewService(store, ServiceConfig{}, nil)

		_, err := svc.Infer(context.Background(), InferRequest{Dataset: mustDataset(t, "a", "b")})
		assert.ErrorIs(t, err, ErrCodeCountMismatch)

		runs, _ := store.ListRuns(context.Background(), 0)
		assert.Empty(t, runs)
	})

	t.Run("store failure", func(t *testing.T) {
		withBackends(t, fixedBackend(DefaultClassifierName, 0))
		boom := errors.New("disk full")
		svc := NewService(failingStore{NewMemoryRunStore(1), boom}, ServiceConfig{}, nil)

		_, err := svc.Infer(context.Background(), InferRequest{Dataset: mustDataset(t, "a")})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("timeout reaches the classifier", func(t *testing.T) {
		withBackends(t, BackendDefinition{
			Info: BackendInfo{Name: DefaultClassifierName},
			New: func(context.Context, BackendConfig) (Classifier, error) {
				return ClassifierFunc(func(ctx context.Context, _ *Dataset) ([]ClassifierCode, error) {
					<-ctx.Done()
					return nil, ctx.Err()
				}), nil
			},
		})
		svc := NewService(NewMemoryRunStore(1), ServiceConfig{Timeout: 10 * time.Millisecond}, nil)

		_, err := svc.Infer(context.Background(), InferRequest{Dataset: mustDataset(t, "a")})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("bad run id", func(t *testing.T) {
		svc := NewService(NewMemoryRunStore(1), ServiceConfig{}, nil)
		_, err := svc.GetRun(context.Background(), "not-a-uuid")
		assert.ErrorIs(t, err, ErrRunNotFound)
	})
}

func TestService_LimiterStatus(t *testing.T) {
	svc := NewService(NewMemoryRunStore(1), ServiceConfig{MaxConcurrent: 3}, nil)

	assert.Equal(t, LimiterStatus{Active: 0, Available: 3, MaxConcurrent: 3}, svc.LimiterStatus())
	assert.NoError(t, svc.WaitForInferences(context.Background()))
}
