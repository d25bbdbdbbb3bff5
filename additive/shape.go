package additive

import (
	"math"
)

// Shape は1つの項の形状関数。x には項が参照する特徴量の値が順に入る
type Shape interface {
	Eval(x []float64) float64
}

// ShapeFunc adapts a function to Shape.
type ShapeFunc func(x []float64) float64

// Eval calls f(x).
func (f ShapeFunc) Eval(x []float64) float64 { return f(x) }

// Polynomial returns c0 + c1*x + c2*x^2 + ... evaluated on the first value.
func Polynomial(coeffs ...float64) ShapeFunc {
	c := append([]float64(nil), coeffs...)
	return func(x []float64) float64 {
		// Horner
		var y float64
		for i := len(c) - 1; i >= 0; i-- {
			y = y*x[0] + c[i]
		}
		return y
	}
}

// Product returns scale * x0 * x1 * ...
func Product(scale float64) ShapeFunc {
	return func(x []float64) float64 {
		y := scale
		for _, v := range x {
			y *= v
		}
		return y
	}
}

// Sine returns amplitude * sin(frequency * x0).
func Sine(amplitude, frequency float64) ShapeFunc {
	return func(x []float64) float64 {
		return amplitude * math.Sin(frequency*x[0])
	}
}

// Link maps the summed terms to the model output.
type Link string

const (
	// Identity is used for regression.
	Identity Link = "identity"
	// Sigmoid maps to (0, 1) for binary classification.
	Sigmoid Link = "sigmoid"
)

func (l Link) apply(v float64) float64 {
	if l == Sigmoid {
		return 1 / (1 + math.Exp(-v))
	}
	return v
}
