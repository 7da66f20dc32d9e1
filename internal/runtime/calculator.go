package runtime

import (
	"strings"

	"github.com/aretw0/tally/pkg/domain"
	"github.com/aretw0/tally/pkg/expr"
	"github.com/aretw0/tally/pkg/format"
	"github.com/aretw0/tally/pkg/notation"
	"github.com/aretw0/tally/pkg/numeric"
)

// Calculator runs expressions and transforms under a fixed set of limits.
type Calculator struct {
	passes notation.Pipeline
	limits numeric.Limits
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithLimits overrides the numeric input bounds. Zero fields keep their defaults.
func WithLimits(l numeric.Limits) Option {
	return func(c *Calculator) {
		c.limits = l.WithDefaults()
	}
}

// WithPasses replaces the notation rewriting pipeline.
func WithPasses(p notation.Pipeline) Option {
	return func(c *Calculator) {
		c.passes = p
	}
}

// NewCalculator creates a calculator with the default passes and limits.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		passes: notation.Pipeline(notation.DefaultPasses),
		limits: numeric.DefaultLimits(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Limits returns the active input bounds.
func (c *Calculator) Limits() numeric.Limits {
	return c.limits
}

// Evaluate rewrites, parses and evaluates an expression, then formats the result.
func (c *Calculator) Evaluate(expression string, mode domain.Mode) (domain.Result, error) {
	mode = mode.Normalize()
	res := domain.Result{Expression: expression, Mode: mode}
	if strings.TrimSpace(expression) == "" {
		return res, domain.NewError(domain.KindParse, "empty expression")
	}

	res.Canonical = c.passes.Apply(expression)
	tree, err := expr.Parse(res.Canonical)
	if err != nil {
		return res, err
	}

	ev := &expr.Evaluator{Mode: mode, Limits: c.limits}
	res.Value, err = ev.Eval(tree)
	if err != nil {
		return res, err
	}

	res.Display, err = format.Display(res.Value, mode)
	if err != nil {
		return res, err
	}
	return res, nil
}
