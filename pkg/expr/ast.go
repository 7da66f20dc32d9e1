package expr

import (
	"strings"

	"github.com/aretw0/tally/pkg/domain"
)

// Op is an arithmetic operator.
type Op string

const (
	OpAdd Op = "+"
	OpSub Op = "-"
	OpMul Op = "*"
	OpDiv Op = "/"
	OpMod Op = "%"
	OpPow Op = "**"
)

// Node is an expression tree node: one of Literal, UnaryOp, BinaryOp or Call.
type Node interface {
	node()
	String() string
}

// Literal is a number or a named constant resolved at parse time.
type Literal struct {
	Value domain.Value
	// Text is the source spelling ("2.5", "pi").
	Text string
}

// UnaryOp is a prefix sign applied to an operand. Op is OpAdd or OpSub.
type UnaryOp struct {
	Op      Op
	Operand Node
}

// BinaryOp applies an arithmetic operator to two operands.
type BinaryOp struct {
	Op          Op
	Left, Right Node
}

// Call invokes a function from the closed function table.
type Call struct {
	Name string
	Args []Node
}

func (*Literal) node()  {}
func (*UnaryOp) node()  {}
func (*BinaryOp) node() {}
func (*Call) node()     {}

func (l *Literal) String() string { return l.Text }

func (u *UnaryOp) String() string {
	return "(" + string(u.Op) + u.Operand.String() + ")"
}

func (b *BinaryOp) String() string {
	return "(" + b.Left.String() + " " + string(b.Op) + " " + b.Right.String() + ")"
}

func (c *Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return c.Name + "(" + strings.Join(args, ", ") + ")"
}

// Walk visits n and its children depth-first. Returning false stops descent into children.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch v := n.(type) {
	case *UnaryOp:
		Walk(v.Operand, fn)
	case *BinaryOp:
		Walk(v.Left, fn)
		Walk(v.Right, fn)
	case *Call:
		for _, a := range v.Args {
			Walk(a, fn)
		}
	}
}
