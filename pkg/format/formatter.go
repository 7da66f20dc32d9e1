package format

import (
	"math"

	"github.com/aretw0/tally/pkg/domain"
)

// Display renders an evaluation result under the given mode.
// Rational display takes priority over π display; π display only applies to reals.
func Display(v domain.Value, m domain.Mode) (string, error) {
	if v.Kind == domain.KindReal {
		v = domain.RealValue(Round(v.Real, Precision))
	}

	if m.Rational {
		r, ok := v.Rational()
		if !ok {
			return "", domain.NewError(domain.KindArithmetic, "cannot convert %s to a fraction", Repr(v.Real))
		}
		return Fraction(r), nil
	}

	if m.Pi && v.Kind == domain.KindReal {
		if math.IsInf(v.Real, 0) || math.IsNaN(v.Real) {
			return "", domain.NewError(domain.KindArithmetic, "cannot express %s as a multiple of π", Repr(v.Real))
		}
		if s, ok := PiMultiple(v.Real); ok {
			return s, nil
		}
	}
	return Render(v), nil
}

// Redisplay re-renders an already displayed number after the rational flag changed.
// It reports false, leaving the text alone, when text is not a plain number.
func Redisplay(text string, m domain.Mode) (string, bool) {
	f, err := ParseNumber(text)
	if err != nil {
		return text, false
	}
	if !m.Rational {
		return Repr(f), true
	}
	r, ok := domain.RealValue(f).Rational()
	if !ok {
		return text, false
	}
	return Fraction(r), true
}
