package runtime

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/tally/pkg/domain"
	"github.com/aretw0/tally/pkg/expr"
	"github.com/aretw0/tally/pkg/format"
	"github.com/aretw0/tally/pkg/numeric"
)

// Op names a plain-number transform.
type Op string

const (
	OpTotient    Op = "totient"
	OpPrimeCount Op = "prime_count"
	OpSquare     Op = "square"
	OpReciprocal Op = "reciprocal"
	OpFactorize  Op = "factorize"
	OpFloor      Op = "floor"
	OpCeil       Op = "ceil"
	OpDegToRad   Op = "deg_to_rad"
	OpRadToDeg   Op = "rad_to_deg"
	OpScientific Op = "scientific"
)

// Transform describes one operation applied to a single number typed as plain text.
type Transform struct {
	Op      Op       `json:"op"`
	Aliases []string `json:"aliases,omitempty"`
	Input   string   `json:"input"`
	Doc     string   `json:"doc"`
	apply   func(c *Calculator, text string, mode domain.Mode) (string, error)
}

var transforms = map[Op]*Transform{
	OpTotient: {
		Op: OpTotient, Aliases: []string{"totientOf", "phi"}, Input: "integer",
		Doc: "Euler's totient φ(n); 0 for n <= 0", apply: applyTotient,
	},
	OpPrimeCount: {
		Op: OpPrimeCount, Aliases: []string{"primeCountOf", "primes", "pi_count"}, Input: "integer",
		Doc: "number of primes <= n", apply: applyPrimeCount,
	},
	OpSquare: {
		Op: OpSquare, Aliases: []string{"squareOf", "sq"}, Input: "real",
		Doc: "x squared", apply: realTransform(func(x float64) (float64, error) { return x * x, nil }),
	},
	OpReciprocal: {
		Op: OpReciprocal, Aliases: []string{"reciprocalOf", "inv"}, Input: "real",
		Doc: "1/x", apply: realTransform(reciprocal),
	},
	OpFactorize: {
		Op: OpFactorize, Aliases: []string{"factorizationOf", "factor"}, Input: "integer",
		Doc: "prime factorization of |n|, e.g. 2^3 x 3^2 x 5", apply: applyFactorize,
	},
	OpFloor: {
		Op: OpFloor, Aliases: []string{"floorOf"}, Input: "real",
		Doc: "largest integer <= x", apply: roundTransform(math.Floor),
	},
	OpCeil: {
		Op: OpCeil, Aliases: []string{"ceilOf"}, Input: "real",
		Doc: "smallest integer >= x", apply: roundTransform(math.Ceil),
	},
	OpDegToRad: {
		Op: OpDegToRad, Aliases: []string{"degToRad", "d2r", "radians"}, Input: "real",
		Doc: "degrees to radians, shown as a multiple of π in π mode", apply: angleTransform(math.Pi / 180),
	},
	OpRadToDeg: {
		Op: OpRadToDeg, Aliases: []string{"radToDeg", "r2d", "degrees"}, Input: "real",
		Doc: "radians to degrees, shown as a multiple of π in π mode", apply: angleTransform(180 / math.Pi),
	},
	OpScientific: {
		Op: OpScientific, Aliases: []string{"toScientific", "sci"}, Input: "real",
		Doc: "scientific notation m.mmmmmm x 10^e", apply: applyScientific,
	},
}

// ParseOp resolves an op name or alias, ignoring case and '-' versus '_'.
func ParseOp(name string) (Op, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "-", "_"))
	for op, t := range transforms {
		if string(op) == key {
			return op, nil
		}
		for _, a := range t.Aliases {
			if strings.ToLower(a) == key {
				return op, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownTransform, name)
}

// Transforms lists the available transforms sorted by op name.
func Transforms() []Transform {
	out := make([]Transform, 0, len(transforms))
	for _, t := range transforms {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Op < out[j].Op })
	return out
}

// Transform applies op to the plain number in text and returns the display string.
func (c *Calculator) Transform(op Op, text string, mode domain.Mode) (string, error) {
	t, ok := transforms[op]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownTransform, op)
	}
	return t.apply(c, text, mode.Normalize())
}

// parseInteger reads a base-10 integer with optional sign and surrounding spaces.
func parseInteger(text string) (int64, error) {
	s := strings.TrimSpace(text)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return 0, domain.NewError(domain.KindLimit, "integer %s is out of range", s)
		}
		return 0, domain.NewError(domain.KindInputType, "invalid literal for int(): %q", text)
	}
	return n, nil
}

func applyTotient(c *Calculator, text string, _ domain.Mode) (string, error) {
	n, err := parseInteger(text)
	if err != nil {
		return "", err
	}
	if n > c.limits.Factorize {
		return "", domain.NewError(domain.KindLimit, "totient input %d exceeds %d", n, c.limits.Factorize)
	}
	return strconv.FormatInt(numeric.Totient(n), 10), nil
}

func applyPrimeCount(c *Calculator, text string, _ domain.Mode) (string, error) {
	n, err := parseInteger(text)
	if err != nil {
		return "", err
	}
	if n > c.limits.Sieve {
		return "", domain.NewError(domain.KindLimit, "prime count input %d exceeds %d", n, c.limits.Sieve)
	}
	return strconv.FormatInt(numeric.PrimeCount(n), 10), nil
}

func applyFactorize(c *Calculator, text string, _ domain.Mode) (string, error) {
	n, err := parseInteger(text)
	if err != nil {
		return "", err
	}
	if n > c.limits.Factorize || n < -c.limits.Factorize {
		return "", domain.NewError(domain.KindLimit, "factorization input %d exceeds %d", n, c.limits.Factorize)
	}
	return numeric.PrimeFactorization(n), nil
}

func reciprocal(x float64) (float64, error) {
	if x == 0 {
		return 0, domain.NewError(domain.KindArithmetic, "division by zero")
	}
	return 1 / x, nil
}

// finite rejects overflow: a non-finite result from a finite input.
func finite(in, out float64) error {
	if math.IsInf(out, 0) && !math.IsInf(in, 0) && !math.IsNaN(in) {
		return domain.NewError(domain.KindArithmetic, "numerical result out of range")
	}
	return nil
}

func realTransform(fn func(float64) (float64, error)) func(*Calculator, string, domain.Mode) (string, error) {
	return func(_ *Calculator, text string, _ domain.Mode) (string, error) {
		x, err := format.ParseNumber(text)
		if err != nil {
			return "", err
		}
		y, err := fn(x)
		if err != nil {
			return "", err
		}
		if err := finite(x, y); err != nil {
			return "", err
		}
		return format.Repr(y), nil
	}
}

func roundTransform(fn func(float64) float64) func(*Calculator, string, domain.Mode) (string, error) {
	return func(_ *Calculator, text string, _ domain.Mode) (string, error) {
		x, err := format.ParseNumber(text)
		if err != nil {
			return "", err
		}
		v, err := expr.FloatToInt(fn(x))
		if err != nil {
			return "", err
		}
		return format.Render(v), nil
	}
}

func angleTransform(factor float64) func(*Calculator, string, domain.Mode) (string, error) {
	return func(_ *Calculator, text string, mode domain.Mode) (string, error) {
		x, err := format.ParseNumber(text)
		if err != nil {
			return "", err
		}
		y := x * factor
		if err := finite(x, y); err != nil {
			return "", err
		}
		if !mode.Pi {
			return format.Repr(y), nil
		}
		if math.IsInf(y, 0) || math.IsNaN(y) {
			return "", domain.NewError(domain.KindArithmetic, "cannot express %s as a multiple of π", format.Repr(y))
		}
		if s, ok := format.PiMultiple(y); ok {
			return s, nil
		}
		return format.Repr(y), nil
	}
}

func applyScientific(_ *Calculator, text string, _ domain.Mode) (string, error) {
	x, err := format.ParseNumber(text)
	if err != nil {
		return "", err
	}
	return format.Scientific(x), nil
}
