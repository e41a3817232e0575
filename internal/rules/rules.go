// Package rules builds stockflow.Rule values: arity-checked Go closures for
// models assembled in code, and Lua expressions for models loaded from files.
package rules

import (
	"errors"
	"fmt"

	"github.com/san-kum/stockflow/internal/stockflow"
)

var ErrDivideByZero = errors.New("rules: division by zero")

func arity(want, got int) error {
	if want != got {
		return fmt.Errorf("%w: want %d, got %d", stockflow.ErrArity, want, got)
	}
	return nil
}

// Func wraps f so it only accepts exactly n arguments.
func Func(n int, f func(args []float64) float64) stockflow.Rule {
	return func(args ...float64) (float64, error) {
		if err := arity(n, len(args)); err != nil {
			return 0, err
		}
		return f(args), nil
	}
}

func Unary(f func(a float64) float64) stockflow.Rule {
	return Func(1, func(args []float64) float64 { return f(args[0]) })
}

func Binary(f func(a, b float64) float64) stockflow.Rule {
	return Func(2, func(args []float64) float64 { return f(args[0], args[1]) })
}

// Constant moves v every step and takes no dependencies.
func Constant(v float64) stockflow.Rule {
	return Func(0, func([]float64) float64 { return v })
}

// Proportional moves coef times its single dependency.
func Proportional(coef float64) stockflow.Rule {
	return Unary(func(a float64) float64 { return coef * a })
}

// Product moves coef times the product of all dependencies.
func Product(coef float64) stockflow.Rule {
	return func(args ...float64) (float64, error) {
		v := coef
		for _, a := range args {
			v *= a
		}
		return v, nil
	}
}

// MassAction moves coef times the product of all dependencies but the last,
// divided by the last (typically the total population).
func MassAction(coef float64) stockflow.Rule {
	return func(args ...float64) (float64, error) {
		if len(args) < 2 {
			return 0, fmt.Errorf("%w: want at least 2, got %d", stockflow.ErrArity, len(args))
		}
		n := args[len(args)-1]
		if n == 0 {
			return 0, ErrDivideByZero
		}
		v := coef
		for _, a := range args[:len(args)-1] {
			v *= a
		}
		return v / n, nil
	}
}
