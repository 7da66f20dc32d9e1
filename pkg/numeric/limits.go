package numeric

// Default input bounds. Sieve memory grows linearly with n and trial division
// time with √n, so user-typed values are capped before reaching this package.
const (
	DefaultMaxSieve     int64 = 10_000_000
	DefaultMaxFactorize int64 = 1_000_000_000_000_000
	DefaultMaxFactorial int64 = 5000
)

// Limits bounds the integer inputs accepted by the transforms and the evaluator.
type Limits struct {
	Sieve     int64 `yaml:"sieve" mapstructure:"sieve"`
	Factorize int64 `yaml:"factorize" mapstructure:"factorize"`
	Factorial int64 `yaml:"factorial" mapstructure:"factorial"`
}

// DefaultLimits returns the package defaults.
func DefaultLimits() Limits {
	return Limits{
		Sieve:     DefaultMaxSieve,
		Factorize: DefaultMaxFactorize,
		Factorial: DefaultMaxFactorial,
	}
}

// WithDefaults replaces non-positive fields with the defaults.
func (l Limits) WithDefaults() Limits {
	d := DefaultLimits()
	if l.Sieve <= 0 {
		l.Sieve = d.Sieve
	}
	if l.Factorize <= 0 {
		l.Factorize = d.Factorize
	}
	if l.Factorial <= 0 {
		l.Factorial = d.Factorial
	}
	return l
}
