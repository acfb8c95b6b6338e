package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultClassifierName is the backend used when a request names none.
const DefaultClassifierName = "default"

// ServiceConfig holds inference service settings.
type ServiceConfig struct {
	DefaultClassifier string
	Backend           BackendConfig
	MaxConcurrent     int
	MaxWaitTime       time.Duration
	Timeout           time.Duration
}

// Service provides inference with run history for any frontend.
type Service struct {
	store   RunStore
	limiter *InferenceLimiter
	cfg     ServiceConfig
	logger  *slog.Logger

	mu          sync.Mutex
	classifiers map[string]Classifier
}

// NewService creates a Service that records runs in store.
func NewService(store RunStore, cfg ServiceConfig, logger *slog.Logger) *Service {
	if cfg.DefaultClassifier == "" {
		cfg.DefaultClassifier = DefaultClassifierName
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:       store,
		limiter:     NewInferenceLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
		cfg:         cfg,
		logger:      logger,
		classifiers: make(map[string]Classifier),
	}
}

// InferRequest is a dataset to type together with its provenance.
type InferRequest struct {
	Dataset    *Dataset
	Source     string // e.g. file name or "sql"
	Classifier string // backend name; empty selects the configured default
}

// Infer runs type inference and records the run.
func (s *Service) Infer(ctx context.Context, req InferRequest) (*Run, error) {
	name := req.Classifier
	if name == "" {
		name = s.cfg.DefaultClassifier
	}

	classifier, err := s.classifier(ctx, name)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	logger := s.logger.With("classifier", name, "source", req.Source)
	start := time.Now()

	engine := NewEngine(classifier, WithLogger(logger))
	inf, err := engine.Infer(ctx, req.Dataset)
	if err != nil {
		logger.Warn("inference failed", "error", err)
		return nil, err
	}

	codes := make(map[string]ClassifierCode, len(inf.Codes))
	for i, f := range inf.Metadata.Features {
		codes[f] = inf.Codes[i]
	}

	run := &Run{
		ID:         uuid.New(),
		Source:     req.Source,
		Classifier: name,
		CreatedAt:  start.UTC(),
		Duration:   time.Since(start),
		Rows:       req.Dataset.NumRows(),
		Codes:      codes,
		Metadata:   inf.Metadata,
	}

	if err := s.store.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}

	logger.Info("inference complete",
		"run_id", run.ID,
		"columns", len(run.Metadata.Features),
		"rows", run.Rows,
		"duration_ms", run.Duration.Milliseconds(),
	)
	return run, nil
}

// GetRun returns a recorded run by its string ID.
func (s *Service) GetRun(ctx context.Context, id string) (*Run, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return s.store.GetRun(ctx, parsed)
}

// ListRuns returns the most recent runs first.
func (s *Service) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	return s.store.ListRuns(ctx, limit)
}

// Classifiers lists the registered backends.
func (s *Service) Classifiers() []BackendInfo {
	return Backends()
}

// LimiterStatus returns the current inference slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForInferences blocks until in-flight inferences finish or ctx ends.
func (s *Service) WaitForInferences(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// classifier returns the cached backend, building it on first use.
func (s *Service) classifier(ctx context.Context, name string) (Classifier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.classifiers[name]; ok {
		return c, nil
	}
	cfg := s.cfg.Backend
	if cfg.Logger == nil {
		cfg.Logger = s.logger.With("classifier", name)
	}
	c, err := NewClassifier(ctx, name, cfg)
	if err != nil {
		return nil, err
	}
	s.classifiers[name] = c
	return c, nil
}
