// Package predictor defines the classification capability consumed by the
// classification service. Concrete predictors are built once at startup from
// a trained artifact and are stateless afterwards.
package predictor

import (
	"context"

	"github.com/go-sod/sensord/internal/reading/model"
)

type ProvideFn func() (Predictor, error)

type Predictor interface {
	// Predict reports whether r is an anomaly.
	Predict(ctx context.Context, r model.Reading) (bool, error)
}

// Func adapts an ordinary function to the Predictor interface.
type Func func(ctx context.Context, r model.Reading) (bool, error)

func (f Func) Predict(ctx context.Context, r model.Reading) (bool, error) {
	return f(ctx, r)
}
