package core

import (
	"context"
	"fmt"
)

// Model is a pretrained type model. It receives one filled profile per
// column and returns one integer code per profile, in order.
type Model interface {
	Predict(ctx context.Context, profiles []ColumnProfile) ([]int, error)
}

// ModelFunc adapts a function to the Model interface.
type ModelFunc func(ctx context.Context, profiles []ColumnProfile) ([]int, error)

// Predict implements Model.
func (f ModelFunc) Predict(ctx context.Context, profiles []ColumnProfile) ([]int, error) {
	return f(ctx, profiles)
}

// FillValue replaces undefined profile statistics before prediction.
const FillValue = 0

// ModelClassifier is the standard classification pipeline:
// feature extraction, missing-value fill with 0, model prediction.
type ModelClassifier struct {
	model Model
}

// NewModelClassifier wraps a model in the feature extraction pipeline.
func NewModelClassifier(model Model) *ModelClassifier {
	return &ModelClassifier{model: model}
}

// Classify implements Classifier. Predictions are converted to codes as-is;
// values outside the named codes are left for reconciliation to handle.
func (c *ModelClassifier) Classify(ctx context.Context, ds *Dataset) ([]ClassifierCode, error) {
	profiles := Featurize(ds)
	for i := range profiles {
		profiles[i] = profiles[i].FillMissing(FillValue)
	}

	if len(profiles) == 0 {
		return []ClassifierCode{}, nil
	}

	predictions, err := c.model.Predict(ctx, profiles)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClassifierFailed, err)
	}

	codes := make([]ClassifierCode, len(predictions))
	for i, p := range predictions {
		codes[i] = ClassifierCode(p)
	}
	return codes, nil
}
