/*
Package expr parses and evaluates canonical calculator expressions.

Parsing is a hand-written recursive descent over a small token set and produces
an explicit tree of Literal, UnaryOp, BinaryOp and Call nodes. Only the names
in the closed function table (sin, cos, tan, asin, acos, atan, sqrt, log, ln,
log10, exp, floor, ceil, factorial, cbrt, abs) and the constants pi and e are
reachable; anything else fails at parse time with a ParseError.

Integers stay exact through +, -, *, % and non-negative **; / and the math
functions produce reals.
*/
package expr
