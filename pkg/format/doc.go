// Package format turns evaluation results into display strings.
//
// Reals are first rounded to 10 decimal places to hide binary noise
// (2.9999999999999996 becomes 3.0). The result is then rendered as a fraction
// (rational display), as a multiple of π (π display, only for reals within
// 1e-10 of kπ) or in the default decimal form, which follows the shortest
// round-trip spelling of the value ("1.0", "0.1", "1e-05", "1e+16").
package format
