package format

import (
	"math"
	"strconv"
	"strings"
)

// Scientific renders f as "m.mmmmmm x 10^e" with six digits after the point.
// Non-finite values fall back to Repr.
func Scientific(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return Repr(f)
	}
	s := strconv.FormatFloat(f, 'e', 6, 64)
	i := strings.IndexByte(s, 'e')
	exp, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return Repr(f)
	}
	return s[:i] + " x 10^" + strconv.Itoa(exp)
}
