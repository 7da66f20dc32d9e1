/*
Package runner implements the interactive read-evaluate-print loop for tally.

Each line is sanitized, then either evaluated as an expression in the configured
session or dispatched as a ':' command. Commands toggle the display modes, apply
plain-number transforms to the last result, and browse or edit the history.

# Key Components

  - Runner: the loop itself, driven by any ports.Calculator.
  - LineReader: the input source; NewReadline for terminals, NewLineScanner for pipes.
  - SignalManager: separates Ctrl+C from genuine input errors.
  - SanitizeInput: size, encoding and control-character checks on raw input.

# Usage

	rl, err := runner.NewReadline(runner.ReadlineConfig{HistoryFile: ".tally/history"})
	if err != nil {
		log.Fatal(err)
	}
	r := runner.NewRunner(engine,
		runner.WithSessionID("user-1"),
		runner.WithLineReader(rl),
	)
	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
