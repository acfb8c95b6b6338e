package core

import (
	"context"
	"fmt"
	"log/slog"
)

// Classifier assigns a type code to every column of a dataset.
// Codes are returned in dataset column order.
// Implementations must be safe for concurrent use.
type Classifier interface {
	Classify(ctx context.Context, ds *Dataset) ([]ClassifierCode, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, ds *Dataset) ([]ClassifierCode, error)

// Classify implements Classifier.
func (f ClassifierFunc) Classify(ctx context.Context, ds *Dataset) ([]ClassifierCode, error) {
	return f(ctx, ds)
}

// Engine infers feature metadata by reconciling a classifier with the
// default type inference. An Engine holds no per-call state.
type Engine struct {
	classifier Classifier
	defaults   DefaultInferrer
	logger     *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithDefaultInferrer replaces the StandardInferrer baseline.
func WithDefaultInferrer(d DefaultInferrer) EngineOption {
	return func(e *Engine) { e.defaults = d }
}

// WithLogger sets the logger used for inference diagnostics.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an Engine around a classifier.
func NewEngine(classifier Classifier, opts ...EngineOption) *Engine {
	e := &Engine{
		classifier: classifier,
		defaults:   StandardInferrer{},
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Inference is the full outcome of one engine call.
type Inference struct {
	Codes    []ClassifierCode
	Metadata *FeatureMetadata
}

// InferFeatureMetadata classifies the dataset and reconciles the result with
// the default inference.
func (e *Engine) InferFeatureMetadata(ctx context.Context, ds *Dataset) (*FeatureMetadata, error) {
	inf, err := e.Infer(ctx, ds)
	if err != nil {
		return nil, err
	}
	return inf.Metadata, nil
}

// Infer is InferFeatureMetadata that also returns the classifier codes.
func (e *Engine) Infer(ctx context.Context, ds *Dataset) (*Inference, error) {
	codes, err := e.classifier.Classify(ctx, ds)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	defaultRaw, err := e.defaults.RawTypes(ds)
	if err != nil {
		return nil, fmt.Errorf("default raw types: %w", err)
	}
	defaultSpecial, err := e.defaults.SpecialTypes(ds)
	if err != nil {
		return nil, fmt.Errorf("default special types: %w", err)
	}

	features := ds.Names()
	md, err := ToFeatureMetadata(features, codes, defaultRaw, defaultSpecial)
	if err != nil {
		return nil, err
	}

	if e.logger.Enabled(ctx, slog.LevelDebug) {
		for i, f := range features {
			e.logger.DebugContext(ctx, "column reconciled",
				"column", f,
				"code", codes[i].String(),
				"default_raw", defaultRaw[f],
				"raw", md.TypeMapRaw[f],
			)
		}
	}

	return &Inference{Codes: codes, Metadata: md}, nil
}
