package expr

import (
	"github.com/aretw0/tally/pkg/domain"
	"github.com/aretw0/tally/pkg/numeric"
)

// Evaluator walks a parsed tree. Mode selects the angle unit for trigonometric
// functions; Limits bounds factorial arguments.
type Evaluator struct {
	Mode   domain.Mode
	Limits numeric.Limits
}

// NewEvaluator creates an evaluator with default limits.
func NewEvaluator(mode domain.Mode) *Evaluator {
	return &Evaluator{Mode: mode.Normalize(), Limits: numeric.DefaultLimits()}
}

// Eval computes the value of n.
func (ev *Evaluator) Eval(n Node) (v domain.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = domain.Value{}, domain.NewError(domain.KindArithmetic, "evaluation failed: %v", r)
		}
	}()
	return ev.eval(n)
}

func (ev *Evaluator) eval(n Node) (domain.Value, error) {
	switch node := n.(type) {
	case *Literal:
		return node.Value, nil
	case *UnaryOp:
		v, err := ev.eval(node.Operand)
		if err != nil {
			return domain.Value{}, err
		}
		if node.Op == OpSub {
			return negate(v), nil
		}
		return v, nil
	case *BinaryOp:
		left, err := ev.eval(node.Left)
		if err != nil {
			return domain.Value{}, err
		}
		right, err := ev.eval(node.Right)
		if err != nil {
			return domain.Value{}, err
		}
		return binary(node.Op, left, right)
	case *Call:
		fn, ok := builtins[node.Name]
		if !ok {
			return domain.Value{}, domain.NewError(domain.KindParse, "name %q is not defined", node.Name)
		}
		args := make([]domain.Value, len(node.Args))
		for i, a := range node.Args {
			v, err := ev.eval(a)
			if err != nil {
				return domain.Value{}, err
			}
			args[i] = v
		}
		return fn.call(ev, args)
	}
	return domain.Value{}, domain.NewError(domain.KindParse, "unsupported node %T", n)
}

// Evaluate parses and evaluates a canonical expression in one step.
func Evaluate(src string, mode domain.Mode) (domain.Value, error) {
	n, err := Parse(src)
	if err != nil {
		return domain.Value{}, err
	}
	return NewEvaluator(mode).Eval(n)
}

func (ev *Evaluator) degrees() bool {
	return ev.Mode.Angle != domain.Radians
}
