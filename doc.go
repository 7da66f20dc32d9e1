/*
Package tally is a scientific calculator engine: it evaluates typed expressions
safely and renders the results the way a desk calculator would.

Expressions use calculator notation (^ for powers, x for multiplication, π, |x|
for absolute values and n! for factorials). They are rewritten into a canonical
form, parsed by a closed grammar that admits only numbers, arithmetic operators,
the constants pi and e, and a fixed table of math functions, and evaluated with
exact integers where possible.

# Modes

Each session carries three display flags:

  - Angle unit: Degrees (default) or Radians, used by the trigonometric functions.
  - Rational display: results shown as the closest fraction with a denominator up to 1000.
  - π display (default on): results close to kπ are shown as "π", "2π", "-π".

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/tally"
	)

	func main() {
		eng := tally.New()
		ctx := context.Background()

		res, err := eng.Evaluate(ctx, "demo", "2^10 + sin(90)")
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(res.Display) // 1025.0

		out, err := eng.Transform(ctx, "demo", "factorize", "360")
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(out) // 2^3 x 3^2 x 5
	}

Calculation failures are *domain.Error values carrying a kind (ParseError,
DomainError, ArithmeticError, InputTypeError, LimitError, InputError); compare
them with errors.Is against the domain.Err* sentinels.
*/
package tally
