// Package runtime wires the calculation pipeline together:
// notation rewriting, parsing, evaluation and display formatting for expressions,
// and the plain-number transforms behind the calculator's one-shot buttons.
//
// Everything here is synchronous and free of shared state; sessions, locking and
// persistence live in the layers above.
package runtime
