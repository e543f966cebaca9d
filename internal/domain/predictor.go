package domain

import "context"

// Predictor scores a single feature row. Implementations must be safe for
// concurrent use; the loaded model is shared read-only across requests.
type Predictor interface {
	Predict(ctx context.Context, row FeatureRow) (float64, error)
}
