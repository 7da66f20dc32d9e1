/*
Package domain contains the core models of the tally calculator.

It defines the values produced by the evaluator, the display modes that
parameterize evaluation and formatting, the per-session state that
presentation layers persist, and the typed errors surfaced to callers.
This package is kept pure and free of I/O or persistence concerns.

# Key Entities

  - Value: a tagged numeric result (Integer, Real or Rational).
  - Mode: the three independent toggles (angle unit, rational display, π display).
  - Session: the Mode and calculation History owned by one caller.
  - Error: a calculation failure carrying an ErrorKind.
*/
package domain
