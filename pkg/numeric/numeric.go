// Package numeric provides integer number theory helpers used by the calculator's
// transform buttons. Callers validate and bound their inputs first.
package numeric

import (
	"math"
	"strconv"
	"strings"
)

// Totient computes Euler's φ(n) by trial division up to √n.
// It returns 0 for n <= 0.
func Totient(n int64) int64 {
	if n <= 0 {
		return 0
	}
	result := n
	temp := n
	for p := int64(2); p*p <= temp; p++ {
		if temp%p == 0 {
			for temp%p == 0 {
				temp /= p
			}
			result -= result / p
		}
	}
	if temp > 1 {
		result -= result / temp
	}
	return result
}

// PrimeCount counts the primes <= n with a sieve of Eratosthenes.
// It uses O(n) memory; see MaxSieve.
func PrimeCount(n int64) int64 {
	if n < 2 {
		return 0
	}
	composite := make([]bool, n+1)
	for i := int64(2); i*i <= n; i++ {
		if composite[i] {
			continue
		}
		for j := i * i; j <= n; j += i {
			composite[j] = true
		}
	}
	var count int64
	for i := int64(2); i <= n; i++ {
		if !composite[i] {
			count++
		}
	}
	return count
}

// CubicRoot returns the real cube root of x, negative for negative x.
func CubicRoot(x float64) float64 {
	if x < 0 {
		return -math.Cbrt(-x)
	}
	return math.Cbrt(x)
}

// Factor is a prime and its multiplicity.
type Factor struct {
	Prime    int64 `json:"prime"`
	Exponent int   `json:"exponent"`
}

func (f Factor) String() string {
	if f.Exponent == 1 {
		return strconv.FormatInt(f.Prime, 10)
	}
	return strconv.FormatInt(f.Prime, 10) + "^" + strconv.Itoa(f.Exponent)
}

// Factorize returns the prime factors of |n| in ascending order.
// It returns nil when |n| < 2.
func Factorize(n int64) []Factor {
	if n < 0 {
		n = -n
	}
	if n < 2 {
		return nil
	}
	var factors []Factor
	temp := n
	for p := int64(2); p*p <= temp; p++ {
		exp := 0
		for temp%p == 0 {
			temp /= p
			exp++
		}
		if exp > 0 {
			factors = append(factors, Factor{Prime: p, Exponent: exp})
		}
	}
	if temp > 1 {
		factors = append(factors, Factor{Prime: temp, Exponent: 1})
	}
	return factors
}

// FactorSeparator joins rendered factors.
const FactorSeparator = " x "

// PrimeFactorization renders the factorization of |n| as "2^3 x 3^2 x 5".
// For |n| < 2 it renders |n| itself.
func PrimeFactorization(n int64) string {
	if n < 0 {
		n = -n
	}
	factors := Factorize(n)
	if len(factors) == 0 {
		return strconv.FormatInt(n, 10)
	}
	parts := make([]string, len(factors))
	for i, f := range factors {
		parts[i] = f.String()
	}
	return strings.Join(parts, FactorSeparator)
}
