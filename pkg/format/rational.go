package format

import "math/big"

// MaxDenominator bounds the denominators produced by rational display.
const MaxDenominator = 1000

// LimitDenominator finds the closest fraction to x with a denominator of at most max,
// walking the continued fraction expansion of x and comparing the last convergent
// with the best semiconvergent.
func LimitDenominator(x *big.Rat, max int64) *big.Rat {
	limit := big.NewInt(max)
	if x.Denom().Cmp(limit) <= 0 {
		return new(big.Rat).Set(x)
	}

	p0, q0, p1, q1 := big.NewInt(0), big.NewInt(1), big.NewInt(1), big.NewInt(0)
	n := new(big.Int).Set(x.Num())
	d := new(big.Int).Set(x.Denom())
	for {
		// d stays positive, so Euclidean division is floor division here.
		a := new(big.Int).Div(n, d)
		q2 := new(big.Int).Add(q0, new(big.Int).Mul(a, q1))
		if q2.Cmp(limit) > 0 {
			break
		}
		p0, q0, p1, q1 = p1, q1, new(big.Int).Add(p0, new(big.Int).Mul(a, p1)), q2
		n, d = d, new(big.Int).Sub(n, new(big.Int).Mul(a, d))
	}

	k := new(big.Int).Div(new(big.Int).Sub(limit, q0), q1)
	bound1 := new(big.Rat).SetFrac(
		new(big.Int).Add(p0, new(big.Int).Mul(k, p1)),
		new(big.Int).Add(q0, new(big.Int).Mul(k, q1)),
	)
	bound2 := new(big.Rat).SetFrac(p1, q1)

	d1 := new(big.Rat).Sub(bound1, x)
	d2 := new(big.Rat).Sub(bound2, x)
	if d2.Abs(d2).Cmp(d1.Abs(d1)) <= 0 {
		return bound2
	}
	return bound1
}

// Fraction renders x limited to MaxDenominator as "n/d", or "n" for whole numbers.
func Fraction(x *big.Rat) string {
	return LimitDenominator(x, MaxDenominator).RatString()
}
