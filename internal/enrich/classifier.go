// Package enrich attaches sentiment and topic labels to normalized
// records. Classification is an injected capability: the pipeline talks
// to the Classifier interface and the default implementation calls a
// hosted inference endpoint.
package enrich

import (
	"context"
	"fmt"

	"github.com/brandpulse-labs/brandpulse/pkg/core"
)

// Classifier scores a batch of texts for sentiment. Implementations must
// return exactly one prediction per input text, in input order.
type Classifier interface {
	Classify(ctx context.Context, texts []string) ([]core.Prediction, error)
}

// ResultCountError reports a classifier that broke the one-prediction-
// per-text contract. It always aborts the enrichment stage.
type ResultCountError struct {
	Expected int
	Got      int
}

func (e *ResultCountError) Error() string {
	return fmt.Sprintf("classifier returned %d predictions for %d texts", e.Got, e.Expected)
}
