package classifiers

import (
	"context"

	"github.com/JonMunkholm/sortinghat/internal/core"
)

func init() {
	core.Register(core.BackendDefinition{
		Info: core.BackendInfo{
			Name:        core.DefaultClassifierName,
			Description: "Labels every column numeric so the default inference decides all types",
		},
		New: func(context.Context, core.BackendConfig) (core.Classifier, error) {
			return core.NewModelClassifier(NumericModel{}), nil
		},
	})
}

// NumericModel predicts the numeric code for every column.
type NumericModel struct{}

// Predict implements core.Model.
func (NumericModel) Predict(_ context.Context, profiles []core.ColumnProfile) ([]int, error) {
	return make([]int, len(profiles)), nil
}
