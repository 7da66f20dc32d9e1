package expr

import (
	"math/big"
	"strconv"

	"github.com/aretw0/tally/pkg/domain"
)

// MaxDepth bounds expression nesting.
const MaxDepth = 200

// Parse reads a canonical expression into a tree.
// Names are resolved against the closed function and constant tables, so an
// unknown identifier or a wrong argument count is a ParseError.
//
//	expr    := term (('+'|'-') term)*
//	term    := unary (('*'|'/'|'%') unary)*
//	unary   := ('-'|'+') unary | power
//	power   := primary ('**' unary)?
//	primary := NUMBER | CONST | FUNC '(' args ')' | '(' expr ')'
func Parse(src string) (Node, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	if p.peek().kind == tokEOF {
		return nil, domain.NewError(domain.KindParse, "empty expression")
	}
	n, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.unexpected(t)
	}
	return n, nil
}

type parser struct {
	toks  []token
	pos   int
	depth int
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(ops ...string) bool {
	t := p.peek()
	if t.kind != tokOp {
		return false
	}
	for _, op := range ops {
		if t.text == op {
			return true
		}
	}
	return false
}

func (p *parser) unexpected(t token) error {
	return domain.NewError(domain.KindParse, "unexpected %s at position %d", t.describe(), t.pos)
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > MaxDepth {
		return domain.NewError(domain.KindParse, "expression nested too deeply")
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

func (p *parser) parseExpr() (Node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.isOp("+", "-") {
		op := Op(p.next().text)
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseTerm() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isOp("*", "/", "%") {
		op := Op(p.next().text)
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	if p.isOp("+", "-") {
		op := Op(p.next().text)
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: op, Operand: operand}, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (Node, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.isOp("**") {
		p.next()
		// Right associative, and binds tighter than a unary sign on its left: -2**2 == -4.
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &BinaryOp{Op: OpPow, Left: base, Right: exp}, nil
	}
	return base, nil
}

func (p *parser) parsePrimary() (Node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return numberLiteral(t)
	case tokIdent:
		if p.peek().kind == tokLParen {
			return p.parseCall(t)
		}
		if v, ok := constants[t.text]; ok {
			return &Literal{Value: domain.RealValue(v), Text: t.text}, nil
		}
		if _, ok := builtins[t.text]; ok {
			return nil, domain.NewError(domain.KindParse, "function %s must be called", t.text)
		}
		return nil, domain.NewError(domain.KindParse, "name %q is not defined", t.text)
	case tokLParen:
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, p.unexpected(closing)
		}
		return inner, nil
	}
	return nil, p.unexpected(t)
}

func (p *parser) parseCall(name token) (Node, error) {
	fn, ok := builtins[name.text]
	if !ok {
		if _, isConst := constants[name.text]; isConst {
			return nil, domain.NewError(domain.KindParse, "%s is not callable", name.text)
		}
		return nil, domain.NewError(domain.KindParse, "name %q is not defined", name.text)
	}
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	p.next() // (
	var args []Node
	if p.peek().kind != tokRParen {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
	}
	if closing := p.next(); closing.kind != tokRParen {
		return nil, p.unexpected(closing)
	}
	if len(args) < fn.MinArgs || len(args) > fn.MaxArgs {
		return nil, domain.NewError(domain.KindParse, "%s() takes %s, got %d", fn.Name, fn.arity(), len(args))
	}
	return &Call{Name: fn.Name, Args: args}, nil
}

func numberLiteral(t token) (Node, error) {
	if !t.isFloat {
		i, ok := new(big.Int).SetString(t.text, 10)
		if !ok {
			return nil, domain.NewError(domain.KindParse, "invalid number %q", t.text)
		}
		return &Literal{Value: domain.IntValue(i), Text: t.text}, nil
	}
	f, err := strconv.ParseFloat(t.text, 64)
	if err != nil {
		// Out-of-range literals evaluate to ±Inf.
		if ne, ok := err.(*strconv.NumError); !ok || ne.Err != strconv.ErrRange {
			return nil, domain.NewError(domain.KindParse, "invalid number %q", t.text)
		}
	}
	return &Literal{Value: domain.RealValue(f), Text: t.text}, nil
}
