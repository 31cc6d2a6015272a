// Package expr implements the small numeric expression language used by
// custom flow fields. Expressions see only the bound variables x, y, width
// and height, a handful of constants and pure math builtins; there is no way
// to reach the host program from an expression.
package expr

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrSyntax is returned when an expression cannot be compiled.
	ErrSyntax = errors.New("expression syntax error")
	// ErrEvaluation is returned when an expression does not produce a finite number.
	ErrEvaluation = errors.New("expression evaluation error")
)

// Vars are the values bound to an expression's variables.
type Vars struct {
	X, Y          float64
	Width, Height float64
}

// Program is a compiled expression. It is immutable and safe for concurrent use.
type Program struct {
	src string
	fn  evalFn
}

// Compile parses src once into an evaluator.
func Compile(src string) (*Program, error) {
	fn, err := NewParser(src).Parse()
	if err != nil {
		return nil, err
	}
	return &Program{src: src, fn: fn}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(src string) *Program {
	p, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return p
}

// Source returns the expression text.
func (p *Program) Source() string {
	return p.src
}

// Eval evaluates the expression. NaN and infinite results are errors.
func (p *Program) Eval(v Vars) (float64, error) {
	out := p.fn(&v)
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, fmt.Errorf("%w: %q at (%g, %g) = %v", ErrEvaluation, p.src, v.X, v.Y, out)
	}
	return out, nil
}
