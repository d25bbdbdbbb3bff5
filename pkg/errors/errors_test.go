package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "Explain",
			kind:    "scoring failed",
			err:     fmt.Errorf("test error"),
			wantMsg: "marginal: Explain: scoring failed: test error",
		},
		{
			name:    "without original error",
			op:      "Predict",
			kind:    "not fitted",
			err:     nil,
			wantMsg: "marginal: Predict: not fitted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			formatted := fmt.Sprintf("%+v", err)
			if !strings.Contains(formatted, "errors_test.go") {
				t.Error("Expected stack trace to contain test file name")
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
			if tt.err != nil && !Is(err, tt.err) {
				t.Error("ModelError should unwrap to the original error")
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Explain", 3, 2, 1)

	want := "marginal: Explain: dimension mismatch on axis 1 (features). Expected 3, got 2"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Fatal("Error should be castable to *DimensionError")
	}
	if dimErr.Expected != 3 || dimErr.Got != 2 {
		t.Errorf("unexpected fields: %+v", dimErr)
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("nsamples", "must not exceed the number of background rows (10)", 11)

	want := "marginal: validation failed for parameter 'nsamples': must not exceed the number of background rows (10) (got: 11)"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var valErr *ValidationError
	if !As(err, &valErr) {
		t.Fatal("Error should be castable to *ValidationError")
	}
	if valErr.ParamName != "nsamples" {
		t.Errorf("ParamName = %q, want nsamples", valErr.ParamName)
	}
}

func TestMarkKeepsTypeAndIdentity(t *testing.T) {
	err := Mark(NewValidationError("representation", "unrecognized value", "shapley"), ErrUnknownMode)

	if !Is(err, ErrUnknownMode) {
		t.Error("marked error should match ErrUnknownMode")
	}
	if Is(err, ErrInsufficientBackground) {
		t.Error("marked error should not match ErrInsufficientBackground")
	}

	var valErr *ValidationError
	if !As(err, &valErr) {
		t.Error("marked error should still be castable to *ValidationError")
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("LinearRegression", "Predict")

	want := "marginal: LinearRegression: this model is not fitted yet. Call Fit() before using Predict()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var notFittedErr *NotFittedError
	if !As(err, &notFittedErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestWarnUsesHandler(t *testing.T) {
	var got []error
	prev := SetWarningHandler(func(w error) {
		got = append(got, w)
	})
	defer SetWarningHandler(prev)

	w := NewPerformanceWarning("Explainer", "feature_dependence=dependent", "background is sorted per example and feature")
	Warn(w)

	if len(got) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(got))
	}
	if got[0] != w {
		t.Errorf("handler received %v, want %v", got[0], w)
	}
	want := "Explainer: feature_dependence=dependent is computationally expensive: background is sorted per example and feature"
	if w.Error() != want {
		t.Errorf("Error() = %v, want %v", w.Error(), want)
	}
}

func TestWarnPrefersZerologFunc(t *testing.T) {
	handlerCalls := 0
	prev := SetWarningHandler(func(error) { handlerCalls++ })
	defer SetWarningHandler(prev)

	zerologCalls := 0
	SetZerologWarnFunc(func(error) { zerologCalls++ })
	defer SetZerologWarnFunc(nil)

	Warn(New("something slow"))

	if zerologCalls != 1 {
		t.Errorf("zerolog func calls = %d, want 1", zerologCalls)
	}
	if handlerCalls != 0 {
		t.Errorf("fallback handler calls = %d, want 0", handlerCalls)
	}
}

func TestWrapfPreservesCause(t *testing.T) {
	cause := New("model exploded")
	err := Wrapf(cause, "scoring example %d", 3)

	if !Is(err, cause) {
		t.Error("wrapped error should match its cause")
	}
	if !strings.Contains(err.Error(), "scoring example 3") {
		t.Errorf("unexpected message: %v", err)
	}
}
