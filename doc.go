// Package marginaleffects estimates per-feature main effects of black-box
// models on individual examples.
//
// The estimator compares the model at perturbed inputs built from a
// background dataset: the Möbius representation keeps the explained feature
// at the example's value and draws everything else from the background, the
// co-Möbius representation does the reverse, and the average representation
// combines both on the same draws. Background rows are drawn uniformly
// (independent) or taken nearest to the example on the explained feature
// (dependent).
//
// # Installation
//
//	go get github.com/YuminosukeSato/marginal
//
// # Quick Start
//
// Main effects of f(x) = x0 + x1 at [1, -1]:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/marginal/core/model"
//	    "github.com/YuminosukeSato/marginal/marginal"
//	    "github.com/YuminosukeSato/marginal/metrics"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    sum := model.PredictorFunc(func(X mat.Matrix) (mat.Matrix, error) {
//	        return metrics.RowSums(X), nil
//	    })
//	    background := mat.NewDense(4, 2, []float64{0, 0, 1, 2, 2, 4, 3, 6})
//
//	    e, err := marginal.NewExplainer(sum, background, 4,
//	        marginal.WithRepresentation(marginal.Mobius),
//	        marginal.WithRandomState(42),
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    effects, err := e.Explain(mat.NewDense(1, 2, []float64{1, -1}))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(mat.Formatted(effects)) // [-0.5  -4]
//	}
//
// # Packages
//
//   - marginal: the estimator (Explainer, representations, sampling modes)
//   - linear: linear regression scoring model
//   - additive: additive model with main and pairwise interaction terms
//   - preprocessing: scalers and a Pipeline predictor
//   - benchmark: ablation curves for attributions
//   - metrics: regression metrics (MSE, RMSE, MAE, R²)
//   - core/model: Predictor interfaces and base types
//   - core/parallel: parallel processing utilities
//   - performance: pooled matrix buffers
//   - pkg/errors, pkg/log: error types, warnings and structured logging
//   - pkg/cli, pkg/server: command line tool and HTTP service
//   - cmd/marginal-effects: command line entry point
//
// # Performance
//
// One model call is made per batch of background draws, with the background,
// Möbius and co-Möbius rows stacked into a single matrix. (example, feature)
// pairs can be spread over workers with marginal.WithNJobs; seeded runs give
// the same result for any worker count.
package marginaleffects
