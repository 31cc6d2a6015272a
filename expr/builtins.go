package expr

import "math"

var constants = map[string]float64{
	"pi":  math.Pi,
	"PI":  math.Pi,
	"tau": 2 * math.Pi,
	"TAU": 2 * math.Pi,
	"e":   math.E,
	"E":   math.E,
}

type builtin struct {
	arity int // -1 = variadic, at least one
	bind  func(args []evalFn) evalFn
}

func fn1(f func(float64) float64) builtin {
	return builtin{arity: 1, bind: func(args []evalFn) evalFn {
		a := args[0]
		return func(v *Vars) float64 { return f(a(v)) }
	}}
}

func fn2(f func(float64, float64) float64) builtin {
	return builtin{arity: 2, bind: func(args []evalFn) evalFn {
		a, b := args[0], args[1]
		return func(v *Vars) float64 { return f(a(v), b(v)) }
	}}
}

func fold(f func(float64, float64) float64) builtin {
	return builtin{arity: -1, bind: func(args []evalFn) evalFn {
		return func(v *Vars) float64 {
			acc := args[0](v)
			for _, a := range args[1:] {
				acc = f(acc, a(v))
			}
			return acc
		}
	}}
}

var builtins = map[string]builtin{
	"sin":   fn1(math.Sin),
	"cos":   fn1(math.Cos),
	"tan":   fn1(math.Tan),
	"asin":  fn1(math.Asin),
	"acos":  fn1(math.Acos),
	"atan":  fn1(math.Atan),
	"sinh":  fn1(math.Sinh),
	"cosh":  fn1(math.Cosh),
	"tanh":  fn1(math.Tanh),
	"sqrt":  fn1(math.Sqrt),
	"cbrt":  fn1(math.Cbrt),
	"abs":   fn1(math.Abs),
	"exp":   fn1(math.Exp),
	"log":   fn1(math.Log),
	"log2":  fn1(math.Log2),
	"log10": fn1(math.Log10),
	"floor": fn1(math.Floor),
	"ceil":  fn1(math.Ceil),
	"trunc": fn1(math.Trunc),
	"round": fn1(jsRound),
	"sign":  fn1(sign),
	"atan2": fn2(math.Atan2),
	"pow":   fn2(pow),
	"mod":   fn2(jsMod),
	"hypot": fn2(math.Hypot),
	"min":   fold(math.Min),
	"max":   fold(math.Max),
}

func pow(a, b float64) float64 {
	return math.Pow(a, b)
}

// jsMod keeps the sign of the dividend, matching the % users expect.
func jsMod(a, b float64) float64 {
	return math.Mod(a, b)
}

// jsRound rounds half up (towards +Inf), unlike math.Round.
func jsRound(a float64) float64 {
	return math.Floor(a + 0.5)
}

func sign(a float64) float64 {
	switch {
	case a > 0:
		return 1
	case a < 0:
		return -1
	}
	return a
}
