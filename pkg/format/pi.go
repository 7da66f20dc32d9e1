package format

import (
	"math"
	"strconv"
)

// PiTolerance is the absolute distance from kπ accepted as an exact multiple.
const PiTolerance = 1e-10

// PiMultiple renders f as "π", "-π", "kπ" or "0" when it lies within PiTolerance
// of an integer multiple of π. The boolean reports whether it matched.
func PiMultiple(f float64) (string, bool) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return "", false
	}
	k := math.RoundToEven(f / math.Pi)
	if math.Abs(f-k*math.Pi) >= PiTolerance {
		return "", false
	}
	switch k {
	case 0:
		return "0", true
	case 1:
		return "π", true
	case -1:
		return "-π", true
	}
	return strconv.FormatFloat(k, 'f', 0, 64) + "π", true
}
