package expr

import (
	"fmt"
	"math"
	"math/big"
	"sort"

	"github.com/aretw0/tally/pkg/domain"
	"github.com/aretw0/tally/pkg/numeric"
)

const (
	degToRad = math.Pi / 180.0
	radToDeg = 180.0 / math.Pi
)

// Builtin is an entry of the closed function table.
type Builtin struct {
	Name    string
	MinArgs int
	MaxArgs int
	// AngleAware functions convert through degrees when the mode asks for it.
	AngleAware bool
	Doc        string
	call       func(ev *Evaluator, args []domain.Value) (domain.Value, error)
}

func (b *Builtin) arity() string {
	if b.MinArgs == b.MaxArgs {
		if b.MinArgs == 1 {
			return "exactly one argument"
		}
		return fmt.Sprintf("exactly %d arguments", b.MinArgs)
	}
	return fmt.Sprintf("%d to %d arguments", b.MinArgs, b.MaxArgs)
}

var constants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

var builtins = map[string]*Builtin{}

func register(b *Builtin) {
	builtins[b.Name] = b
}

func init() {
	register(&Builtin{Name: "sin", MinArgs: 1, MaxArgs: 1, AngleAware: true, Doc: "sine", call: forwardTrig(math.Sin)})
	register(&Builtin{Name: "cos", MinArgs: 1, MaxArgs: 1, AngleAware: true, Doc: "cosine", call: forwardTrig(math.Cos)})
	register(&Builtin{Name: "tan", MinArgs: 1, MaxArgs: 1, AngleAware: true, Doc: "tangent", call: forwardTrig(math.Tan)})
	register(&Builtin{Name: "asin", MinArgs: 1, MaxArgs: 1, AngleAware: true, Doc: "inverse sine", call: inverseTrig(math.Asin, true)})
	register(&Builtin{Name: "acos", MinArgs: 1, MaxArgs: 1, AngleAware: true, Doc: "inverse cosine", call: inverseTrig(math.Acos, true)})
	register(&Builtin{Name: "atan", MinArgs: 1, MaxArgs: 1, AngleAware: true, Doc: "inverse tangent", call: inverseTrig(math.Atan, false)})
	register(&Builtin{Name: "sqrt", MinArgs: 1, MaxArgs: 1, Doc: "square root", call: fnSqrt})
	register(&Builtin{Name: "log", MinArgs: 1, MaxArgs: 2, Doc: "natural logarithm, or logarithm in the given base", call: fnLog})
	register(&Builtin{Name: "ln", MinArgs: 1, MaxArgs: 2, Doc: "natural logarithm", call: fnLog})
	register(&Builtin{Name: "log10", MinArgs: 1, MaxArgs: 1, Doc: "base 10 logarithm", call: fnLog10})
	register(&Builtin{Name: "exp", MinArgs: 1, MaxArgs: 1, Doc: "e raised to the power", call: fnExp})
	register(&Builtin{Name: "floor", MinArgs: 1, MaxArgs: 1, Doc: "largest integer not above", call: rounding(math.Floor)})
	register(&Builtin{Name: "ceil", MinArgs: 1, MaxArgs: 1, Doc: "smallest integer not below", call: rounding(math.Ceil)})
	register(&Builtin{Name: "factorial", MinArgs: 1, MaxArgs: 1, Doc: "n! for a non-negative integer", call: fnFactorial})
	register(&Builtin{Name: "cbrt", MinArgs: 1, MaxArgs: 1, Doc: "real cube root", call: fnCbrt})
	register(&Builtin{Name: "abs", MinArgs: 1, MaxArgs: 1, Doc: "absolute value", call: fnAbs})
}

// FunctionInfo describes a callable name for help listings.
type FunctionInfo struct {
	Name       string `json:"name"`
	Arity      string `json:"arity"`
	AngleAware bool   `json:"angle_aware,omitempty"`
	Doc        string `json:"doc"`
}

// Functions lists the function table sorted by name.
func Functions() []FunctionInfo {
	out := make([]FunctionInfo, 0, len(builtins))
	for _, b := range builtins {
		out = append(out, FunctionInfo{Name: b.Name, Arity: b.arity(), AngleAware: b.AngleAware, Doc: b.Doc})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Constants lists the named constants sorted by name.
func Constants() []string {
	names := make([]string, 0, len(constants))
	for name := range constants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func mathDomainErr(format string, args ...any) error {
	return domain.NewError(domain.KindArithmetic, format, args...)
}

func realResult(v float64) (domain.Value, error) {
	if math.IsNaN(v) {
		return domain.Value{}, mathDomainErr("math domain error")
	}
	return domain.RealValue(v), nil
}

func forwardTrig(fn func(float64) float64) func(*Evaluator, []domain.Value) (domain.Value, error) {
	return func(ev *Evaluator, args []domain.Value) (domain.Value, error) {
		x, err := toFloat(args[0])
		if err != nil {
			return domain.Value{}, err
		}
		if math.IsInf(x, 0) {
			return domain.Value{}, mathDomainErr("math domain error")
		}
		if ev.degrees() {
			x *= degToRad
		}
		return realResult(fn(x))
	}
}

func inverseTrig(fn func(float64) float64, bounded bool) func(*Evaluator, []domain.Value) (domain.Value, error) {
	return func(ev *Evaluator, args []domain.Value) (domain.Value, error) {
		x, err := toFloat(args[0])
		if err != nil {
			return domain.Value{}, err
		}
		if bounded && (x < -1 || x > 1) {
			return domain.Value{}, mathDomainErr("math domain error")
		}
		r := fn(x)
		if ev.degrees() {
			r *= radToDeg
		}
		return realResult(r)
	}
}

func fnSqrt(_ *Evaluator, args []domain.Value) (domain.Value, error) {
	x, err := toFloat(args[0])
	if err != nil {
		return domain.Value{}, err
	}
	if x < 0 {
		return domain.Value{}, mathDomainErr("math domain error")
	}
	return realResult(math.Sqrt(x))
}

// naturalLog accepts integers beyond float range by splitting off powers of two.
func naturalLog(v domain.Value) (float64, error) {
	if v.IsInteger() {
		if v.Int.Sign() <= 0 {
			return 0, mathDomainErr("math domain error")
		}
		if shift := v.Int.BitLen() - 1000; shift > 0 {
			top, _ := new(big.Float).SetInt(new(big.Int).Rsh(v.Int, uint(shift))).Float64()
			return math.Log(top) + float64(shift)*math.Ln2, nil
		}
	}
	x := v.Float64()
	if x <= 0 || math.IsNaN(x) {
		return 0, mathDomainErr("math domain error")
	}
	return math.Log(x), nil
}

func fnLog(_ *Evaluator, args []domain.Value) (domain.Value, error) {
	num, err := naturalLog(args[0])
	if err != nil {
		return domain.Value{}, err
	}
	if len(args) == 1 {
		return realResult(num)
	}
	den, err := naturalLog(args[1])
	if err != nil {
		return domain.Value{}, err
	}
	if den == 0 {
		return domain.Value{}, arithErr("float division by zero")
	}
	return realResult(num / den)
}

func fnLog10(_ *Evaluator, args []domain.Value) (domain.Value, error) {
	v := args[0]
	if v.IsInteger() && v.Int.BitLen() > 1000 {
		ln, err := naturalLog(v)
		if err != nil {
			return domain.Value{}, err
		}
		return realResult(ln / math.Ln10)
	}
	x := v.Float64()
	if x <= 0 || math.IsNaN(x) {
		return domain.Value{}, mathDomainErr("math domain error")
	}
	return realResult(math.Log10(x))
}

func fnExp(_ *Evaluator, args []domain.Value) (domain.Value, error) {
	x, err := toFloat(args[0])
	if err != nil {
		return domain.Value{}, err
	}
	r := math.Exp(x)
	if math.IsInf(r, 1) && !math.IsInf(x, 1) {
		return domain.Value{}, arithErr("math range error")
	}
	return realResult(r)
}

func rounding(fn func(float64) float64) func(*Evaluator, []domain.Value) (domain.Value, error) {
	return func(_ *Evaluator, args []domain.Value) (domain.Value, error) {
		if args[0].IsInteger() {
			return args[0], nil
		}
		return FloatToInt(fn(args[0].Real))
	}
}

// FloatToInt converts an integral float to an exact integer value.
func FloatToInt(f float64) (domain.Value, error) {
	if math.IsInf(f, 0) {
		return domain.Value{}, arithErr("cannot convert float infinity to integer")
	}
	if math.IsNaN(f) {
		return domain.Value{}, arithErr("cannot convert float NaN to integer")
	}
	i, _ := new(big.Float).SetFloat64(f).Int(nil)
	return domain.IntValue(i), nil
}

func fnFactorial(ev *Evaluator, args []domain.Value) (domain.Value, error) {
	v := args[0]
	if !v.IsInteger() {
		return domain.Value{}, domain.NewError(domain.KindDomain, "factorial() only accepts integral values")
	}
	if v.Int.Sign() < 0 {
		return domain.Value{}, domain.NewError(domain.KindDomain, "factorial() not defined for negative values")
	}
	limit := ev.Limits.WithDefaults().Factorial
	if !v.Int.IsInt64() || v.Int.Int64() > limit {
		return domain.Value{}, domain.NewError(domain.KindLimit, "factorial() argument exceeds %d", limit)
	}
	n := v.Int.Int64()
	if n < 2 {
		return domain.Int64Value(1), nil
	}
	return domain.IntValue(new(big.Int).MulRange(1, n)), nil
}

func fnCbrt(_ *Evaluator, args []domain.Value) (domain.Value, error) {
	x, err := toFloat(args[0])
	if err != nil {
		return domain.Value{}, err
	}
	return realResult(numeric.CubicRoot(x))
}

func fnAbs(_ *Evaluator, args []domain.Value) (domain.Value, error) {
	v := args[0]
	if v.IsInteger() {
		return domain.IntValue(new(big.Int).Abs(v.Int)), nil
	}
	return domain.RealValue(math.Abs(v.Real)), nil
}
