package domain

// Result is the outcome of one expression evaluation.
type Result struct {
	// Expression is the text as typed.
	Expression string `json:"expression"`
	// Canonical is the expression after notation rewriting.
	Canonical string `json:"canonical"`
	// Value is the raw evaluated number.
	Value Value `json:"-"`
	// Display is Value formatted under the active mode.
	Display string `json:"display"`
	// Mode is the mode the expression was evaluated under.
	Mode Mode `json:"mode"`
}
