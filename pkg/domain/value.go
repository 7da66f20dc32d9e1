package domain

import (
	"math"
	"math/big"
	"strconv"
)

// Kind tags the live representation of a Value.
type Kind int

const (
	KindInteger Kind = iota
	KindReal
	KindRational
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindRational:
		return "rational"
	}
	return "unknown"
}

// Value is a numeric result. Exactly one of Int, Real or Rat is live, selected by Kind.
type Value struct {
	Kind Kind
	Int  *big.Int
	Real float64
	Rat  *big.Rat
}

// IntValue wraps an arbitrary precision integer.
func IntValue(i *big.Int) Value {
	return Value{Kind: KindInteger, Int: i}
}

// Int64Value wraps a machine integer.
func Int64Value(i int64) Value {
	return IntValue(big.NewInt(i))
}

// RealValue wraps a float.
func RealValue(f float64) Value {
	return Value{Kind: KindReal, Real: f}
}

// RatValue wraps a fraction.
func RatValue(r *big.Rat) Value {
	return Value{Kind: KindRational, Rat: r}
}

// IsInteger reports whether the value is integer-typed.
func (v Value) IsInteger() bool {
	return v.Kind == KindInteger
}

// Float64 converts the value to the nearest float64.
// Integers too large for a float convert to ±Inf.
func (v Value) Float64() float64 {
	switch v.Kind {
	case KindInteger:
		f, _ := new(big.Float).SetInt(v.Int).Float64()
		return f
	case KindRational:
		f, _ := v.Rat.Float64()
		return f
	}
	return v.Real
}

// Rational returns the exact fraction for the value.
// The boolean is false for non-finite reals.
func (v Value) Rational() (*big.Rat, bool) {
	switch v.Kind {
	case KindInteger:
		return new(big.Rat).SetInt(v.Int), true
	case KindRational:
		return new(big.Rat).Set(v.Rat), true
	}
	if math.IsInf(v.Real, 0) || math.IsNaN(v.Real) {
		return nil, false
	}
	return new(big.Rat).SetFloat64(v.Real), true
}

// String is a debugging representation; display formatting lives in package format.
func (v Value) String() string {
	switch v.Kind {
	case KindInteger:
		return v.Int.String()
	case KindRational:
		return v.Rat.RatString()
	}
	return strconv.FormatFloat(v.Real, 'g', -1, 64)
}
