package format

import (
	"math"
	"strconv"
	"strings"

	"github.com/aretw0/tally/pkg/domain"
)

// Repr renders a float in its shortest round-trip decimal form. Integral values
// keep a trailing ".0"; exponents below -4 or from 16 up switch to e-notation.
func Repr(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	case f == 0:
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}

	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return sci
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Render formats a value in the default decimal form without rounding.
func Render(v domain.Value) string {
	switch v.Kind {
	case domain.KindInteger:
		return v.Int.String()
	case domain.KindRational:
		return v.Rat.RatString()
	}
	return Repr(v.Real)
}

// ParseNumber reads a plain decimal number the way a display value is typed:
// surrounding spaces, a sign, a fraction, an exponent, and inf/nan are accepted.
// Out of range magnitudes become ±Inf.
func ParseNumber(text string) (float64, error) {
	s := strings.TrimSpace(text)
	unsigned := strings.TrimLeft(s, "+-")
	if s == "" || strings.HasPrefix(unsigned, "0x") || strings.HasPrefix(unsigned, "0X") || strings.Contains(s, "_") {
		return 0, domain.NewError(domain.KindInputType, "could not convert string to float: %q", text)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f, nil
		}
		return 0, domain.NewError(domain.KindInputType, "could not convert string to float: %q", text)
	}
	return f, nil
}
