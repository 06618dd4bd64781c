// Package numeric provides the small numeric primitives shared by the
// valuation formulas: an iterative periodic-rate solver and a deterministic
// nearest-match selector.
package numeric

import (
	"errors"
	"math"
)

// ErrNoSolution is returned when the rate solver cannot produce a reliable
// result. Callers must treat this as "yield unknown" - it is never safe to
// substitute zero.
var ErrNoSolution = errors.New("rate solver did not converge")

const (
	solverGuess     = 0.1
	solverMaxIters  = 50
	solverTolerance = 1e-7
	solverStep      = 1e-6 // Step for the numeric derivative
)

// Rate solves for the periodic rate r satisfying
//
//	presentValue*(1+r)^n + payment*((1+r)^n - 1)/r + futureValue = 0
//
// using Newton-Raphson with a numeric derivative. This single primitive,
// reparameterized, underlies bond yield-to-maturity, yield-to-call, and
// preferred-stock yields.
//
// A near-zero derivative, non-convergence within the iteration bound, or a
// non-finite result all return ErrNoSolution.
func Rate(periods, payment, presentValue, futureValue float64) (float64, error) {
	if periods <= 0 {
		return 0, ErrNoSolution
	}
	// Degenerate input: f is identically zero, every rate "solves" it.
	if payment == 0 && presentValue == 0 && futureValue == 0 {
		return 0, ErrNoSolution
	}

	f := func(r float64) float64 {
		pow := math.Pow(1+r, periods)
		annuity := periods // lim r->0 of ((1+r)^n - 1)/r
		if math.Abs(r) > 1e-12 {
			annuity = (pow - 1) / r
		}
		return presentValue*pow + payment*annuity + futureValue
	}

	r := solverGuess
	for i := 0; i < solverMaxIters; i++ {
		fr := f(r)
		if math.Abs(fr) < solverTolerance {
			if !isUsable(r) {
				return 0, ErrNoSolution
			}
			return r, nil
		}

		deriv := (f(r+solverStep) - f(r-solverStep)) / (2 * solverStep)
		if math.Abs(deriv) < 1e-12 || math.IsNaN(deriv) || math.IsInf(deriv, 0) {
			return 0, ErrNoSolution
		}

		r -= fr / deriv
		if !isUsable(r) {
			return 0, ErrNoSolution
		}
	}

	return 0, ErrNoSolution
}

func isUsable(r float64) bool {
	return !math.IsNaN(r) && !math.IsInf(r, 0) && r > -1
}
