package flow

import (
	"fmt"

	"github.com/pthm-cable/flowtrace/expr"
)

// buildCustom compiles the expression once. The result is the push angle in
// radians; force is fixed at 1.
func buildCustom(d CustomData) (func(x, y, w, h float64) (Sample, error), error) {
	prog, err := expr.Compile(d.Expression)
	if err != nil {
		return nil, fmt.Errorf("compiling custom field: %w", err)
	}

	return func(x, y, w, h float64) (Sample, error) {
		angle, err := prog.Eval(expr.Vars{X: x, Y: y, Width: w, Height: h})
		if err != nil {
			return Sample{}, fmt.Errorf("custom field at (%g, %g): %w", x, y, err)
		}
		return Sample{Force: 1, Angle: angle}, nil
	}, nil
}
