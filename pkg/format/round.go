package format

import (
	"math"
	"strconv"
)

// Precision is the number of decimal places kept for real results.
const Precision = 10

// Round rounds f to the given number of decimal places, half to even on the
// exact decimal expansion of f.
func Round(f float64, places int) float64 {
	if math.IsInf(f, 0) || math.IsNaN(f) || f == 0 {
		return f
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(f, 'f', places, 64), 64)
	if err != nil {
		return f
	}
	return r
}
