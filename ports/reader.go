package ports

import (
	"context"

	"retainsim/domain/policy"
)

// PredictionSource loads the churn-probability feed. A missing feed is a
// not-found error.
type PredictionSource interface {
	LoadPredictions(ctx context.Context) ([]policy.Prediction, error)
}

// OrderValueSource loads the optional order-value feed. An absent feed
// yields no rows and no error.
type OrderValueSource interface {
	LoadOrderValues(ctx context.Context) ([]policy.OrderValue, error)
}
