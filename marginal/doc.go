// Package marginal estimates main effects of a black-box model with a
// Monte-Carlo approximation of conditional-expectation attribution.
//
// For a target example x and a feature (or group of features) i, the Möbius
// main effect is
//
//	E_b[ f(x_i, b_{-i}) - f(b) ]
//
// and the co-Möbius main effect is
//
//	f(x) - E_b[ f(b_i, x_{-i}) ]
//
// where b ranges over rows drawn from a background dataset. The average
// representation reports the mean of the two on the same draws.
//
// Background rows are drawn either independently (uniformly without
// replacement from the first nsamples rows, fresh for each batch) or
// dependently (the nsamples rows nearest to x on the columns of i, in
// L1 distance, ties broken by row order).
//
// Example:
//
//	ex, err := marginal.NewExplainer(model, background, 100,
//	    marginal.WithRepresentation(marginal.Average),
//	    marginal.WithRandomState(42),
//	)
//	if err != nil {
//	    return err
//	}
//	effects, err := ex.Explain(X,
//	    marginal.WithFeatureIndices(marginal.Single(0), marginal.Pair(1, 2)),
//	    marginal.WithBatchSize(50),
//	)
package marginal
