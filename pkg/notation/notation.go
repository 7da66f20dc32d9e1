// Package notation rewrites calculator notation into the canonical form read by
// package expr.
//
// Rewrites are independent passes applied in order; each later pass sees the
// output of the earlier ones. Two known limitations are covered by tests: the
// times pass replaces every "x" (so "exp" becomes "e*p"), and the abs pass does
// not support nested pipes.
package notation

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Pass is one named rewrite step.
type Pass struct {
	Name    string
	Rewrite func(string) string
}

// PiLiteral is the decimal text substituted for π.
var PiLiteral = strconv.FormatFloat(math.Pi, 'g', -1, 64)

var (
	absPattern = regexp.MustCompile(`\|([^|]+)\|`)
	// A numeric literal followed by "!". A minus belongs to the literal only at the
	// start of the input or of a group; elsewhere it stays unary, so 2*-3! is -12.
	factorialPattern = regexp.MustCompile(`(^\s*|\(\s*)(-?\d+(?:\.\d*)?)!|(\d+(?:\.\d*)?)!`)
)

// Power rewrites "^" to "**".
var Power = Pass{Name: "power", Rewrite: func(s string) string {
	return strings.ReplaceAll(s, "^", "**")
}}

// Times rewrites every "x" to "*".
var Times = Pass{Name: "times", Rewrite: func(s string) string {
	return strings.ReplaceAll(s, "x", "*")
}}

// Pi inlines the π literal as a decimal constant.
var Pi = Pass{Name: "pi", Rewrite: func(s string) string {
	return strings.ReplaceAll(s, "π", PiLiteral)
}}

// Abs rewrites "|E|" to "abs(E)" pairing pipes left to right.
var Abs = Pass{Name: "abs", Rewrite: func(s string) string {
	return absPattern.ReplaceAllString(s, "abs($1)")
}}

// Factorial rewrites "N!" to "factorial(N)".
var Factorial = Pass{Name: "factorial", Rewrite: rewriteFactorial}

func rewriteFactorial(s string) string {
	matches := factorialPattern.FindAllStringSubmatchIndex(s, -1)
	if matches == nil {
		return s
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(s[last:m[0]])
		if m[4] >= 0 {
			b.WriteString(s[m[2]:m[3]])
			b.WriteString("factorial(" + s[m[4]:m[5]] + ")")
		} else {
			b.WriteString("factorial(" + s[m[6]:m[7]] + ")")
		}
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

// DefaultPasses is the canonical rewrite order.
var DefaultPasses = []Pass{Power, Times, Pi, Abs, Factorial}

// Pipeline applies passes in order.
type Pipeline []Pass

// Apply runs every pass over s.
func (p Pipeline) Apply(s string) string {
	for _, pass := range p {
		s = pass.Rewrite(s)
	}
	return s
}

// Trace runs every pass and returns the intermediate result after each one.
func (p Pipeline) Trace(s string) []string {
	steps := make([]string, 0, len(p))
	for _, pass := range p {
		s = pass.Rewrite(s)
		steps = append(steps, s)
	}
	return steps
}

// Preprocess rewrites raw input with DefaultPasses.
func Preprocess(s string) string {
	return Pipeline(DefaultPasses).Apply(s)
}
