// Package classifier provides the pre-trained line classifier used to label
// heading candidates.
//
// A [Classifier] receives the feature vector built by [Features] and returns a
// [Prediction]: a label and a probability per class. Models are loaded once
// and are read-only afterwards, so a single instance may be shared by any
// number of goroutines.
//
// Two implementations are provided. [Forest] evaluates a serialized decision
// forest loaded with [LoadForest]. [Null] always answers body with no
// confidence, which leaves the decision to the style heuristics.
package classifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/tsawler/outliner/model"
)

// Classifier predicts a label for one feature vector
type Classifier interface {
	Predict(ctx context.Context, features []float64) (Prediction, error)
}

// ClassifierFunc adapts a function to the Classifier interface
type ClassifierFunc func(ctx context.Context, features []float64) (Prediction, error)

// Predict calls f
func (f ClassifierFunc) Predict(ctx context.Context, features []float64) (Prediction, error) {
	return f(ctx, features)
}

// Prediction is the result of classifying one line
type Prediction struct {
	Label         model.Level
	Probabilities map[string]float64
}

// Confidence returns the highest class probability, or 0 when there are none
func (p Prediction) Confidence() float64 {
	best := 0.0
	for _, prob := range p.Probabilities {
		if prob > best {
			best = prob
		}
	}
	return best
}

// InvocationError reports a classifier failure for a single line
type InvocationError struct {
	Err error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("classifier invocation: %v", e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// ErrNoLabel is returned when a classifier produces an empty label
var ErrNoLabel = errors.New("prediction has no label")

// Invoke runs c on features and normalizes every failure, including a panic
// inside the classifier, into an *InvocationError. Context errors are
// returned unwrapped.
func Invoke(ctx context.Context, c Classifier, features []float64) (pred Prediction, err error) {
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}

	defer func() {
		if r := recover(); r != nil {
			pred = Prediction{}
			err = &InvocationError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	pred, err = c.Predict(ctx, features)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Prediction{}, err
		}
		return Prediction{}, &InvocationError{Err: err}
	}
	if pred.Label == "" {
		return Prediction{}, &InvocationError{Err: ErrNoLabel}
	}

	return pred, nil
}

// Null is a classifier that always predicts body with zero confidence
type Null struct{}

// Predict returns a body prediction
func (Null) Predict(ctx context.Context, features []float64) (Prediction, error) {
	return Prediction{Label: model.LevelBody}, nil
}
