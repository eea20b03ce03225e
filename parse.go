package calc

import (
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
)

// Expr = num | name | Call | Neg | Plus | Add | Sub | Mul | Div | Mod | FloorDiv | Pow | '(' Expr ')' | '[' Expr ']' | '{' Expr '}'
// Call = name ArgList
// ArgList = '(' [ Expr { (',' | ';') Expr } ] ')' | '[' ... ']' | '{' ... '}'
// Neg = '-' Expr
// Plus = '+' Expr
// Add = Expr '+' Expr
// Sub = Expr '-' Expr
// Mul = Expr '*' Expr | Expr '×' Expr
// Div = Expr '/' Expr | Expr '÷' Expr
// Mod = Expr '%' Expr
// FloorDiv = Expr '//' Expr
// Pow = Expr '^' Expr | Expr '**' Expr

// Expr is a parsed expression. An Expr is never modified after parsing, so it
// is safe to evaluate concurrently.
type Expr struct {
	// n is the root node of the expression.
	n *node
}

// Parse parses a single expression from src. The given options are applied in
// order. Every error resulting from invalid input wraps ErrSyntax and
// implements InputError; errors reading src are returned as they are.
func Parse(src io.RuneScanner, opts ...ParseOption) (*Expr, error) {
	p := parser{scan: lex(src)}
	for _, opt := range opts {
		p.parsectx = opt.parseOption(p.parsectx)
	}
	n, err := p.term(exprprec)
	if err != nil {
		return nil, err
	}
	end := p.scan.must()
	switch {
	case n == nil && end.kind == tokenClose:
		return nil, badend(end, -1)
	case n == nil:
		return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
	case !p.stops(end):
		return nil, badend(end, -1)
	}
	return &Expr{n: n}, nil
}

// ParseString is a shortcut to parse an expression from a string.
func ParseString(src string, opts ...ParseOption) (*Expr, error) {
	return Parse(strings.NewReader(src), opts...)
}

// String creates a string representation of the parsed expression, with
// alternating round and square brackets grouping each term.
func (e *Expr) String() string {
	var b strings.Builder
	e.n.fmt(&b, false, true)
	return b.String()
}

type parser struct {
	scan *lexer
	parsectx
	// depth counts open brackets. Stop whitespace is ordinary whitespace
	// inside brackets.
	depth int
}

// stopws returns the whitespace runes that currently end the expression.
func (p *parser) stopws() string {
	if p.depth > 0 {
		return ""
	}
	return p.wseof
}

// stops reports whether tok can end a complete expression.
func (p *parser) stops(tok lexToken) bool {
	switch tok.kind {
	case tokenEOF:
		return true
	case tokenSep:
		return (p.ceof && tok.text == ",") || (p.seof && tok.text == ";")
	default:
		return false
	}
}

// term parses operands joined by operators that bind tighter than until. If
// there is no error, then term pushes the last token it scans, including EOF.
// An empty subexpression gives a nil node with no error; callers decide
// whether that is legal.
func (p *parser) term(until operator) (*node, error) {
	n, err := p.lhs(until)
	if err != nil || n == nil {
		return nil, err
	}
	for {
		tok, err := p.scan.next(p.stopws())
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokenOp:
		case tokenNum, tokenIdent, tokenOpen:
			// Terms must be joined by an operator.
			return nil, &TokenError{Col: tok.pos, Text: tok.text}
		case tokenClose, tokenSep, tokenEOF:
			p.scan.push(tok)
			return n, nil
		default:
			panic("calc: unknown token: " + tok.String())
		}
		op := binop(tok.text)
		if op.op == nodeNone {
			return nil, &OperatorError{Col: tok.pos, Operator: tok.text}
		}
		if !op.moreBinding(until) {
			p.scan.push(tok)
			return n, nil
		}
		rhs, err := p.operand(op)
		if err != nil {
			return nil, err
		}
		n = &node{kind: op.op, name: tok.text, pos: tok.pos, left: n, right: rhs}
	}
}

// operand parses the operand to the right of an operator.
func (p *parser) operand(op operator) (*node, error) {
	n, err := p.term(op)
	if err != nil {
		return nil, err
	}
	if n == nil {
		end := p.scan.must()
		return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
	}
	return n, nil
}

// lhs parses the first operand of a term, where operators are unary.
func (p *parser) lhs(until operator) (*node, error) {
	// Stop whitespace can't end an expression before its first operand.
	tok, err := p.scan.next("")
	if err != nil {
		return nil, err
	}
	switch tok.kind {
	case tokenNum:
		return &node{kind: nodeNum, name: tok.text, num: parsenum(tok.text), pos: tok.pos}, nil
	case tokenIdent:
		return p.nameOrCall(tok)
	case tokenOp:
		return p.unary(tok, until)
	case tokenOpen:
		return p.group(tok)
	case tokenClose:
		p.scan.push(tok)
		return nil, nil
	case tokenSep:
		if p.stops(tok) {
			p.scan.push(tok)
			return nil, nil
		}
		return nil, &SeparatorError{Col: tok.pos, Sep: tok.text}
	case tokenEOF:
		return nil, &EmptyExpressionError{Col: tok.pos}
	default:
		panic("calc: unknown token: " + tok.String())
	}
}

func (p *parser) nameOrCall(name lexToken) (*node, error) {
	// Stop whitespace counts here, so x\n(y) is two expressions.
	open, err := p.scan.next(p.stopws())
	if err != nil {
		return nil, err
	}
	if open.kind != tokenOpen {
		p.scan.push(open)
		return &node{kind: nodeName, name: name.text, pos: name.pos}, nil
	}
	args, err := p.args(open.text)
	if err != nil {
		return nil, err
	}
	end := p.scan.must()
	if end.text != closebrackets[rightbracket(open.text)] {
		return nil, &BracketError{Col: end.pos, Left: open.text, Right: end.text}
	}
	return &node{kind: nodeCall, name: name.text, pos: name.pos, right: args}, nil
}

func (p *parser) unary(tok lexToken, until operator) (*node, error) {
	op := unop(tok.text)
	if op.op == nodeNone {
		return nil, &OperatorError{Col: tok.pos, Operator: tok.text, Unary: true}
	}
	if !op.moreBinding(until) {
		// x^-y is x^(-y): take the enclosing operator's binding instead.
		op.prec, op.right = until.prec, until.right
	}
	rhs, err := p.operand(op)
	if err != nil {
		return nil, err
	}
	return &node{kind: op.op, pos: tok.pos, left: rhs}, nil
}

func (p *parser) group(open lexToken) (*node, error) {
	match := rightbracket(open.text)
	p.depth++
	n, err := p.term(exprprec)
	p.depth--
	if err != nil {
		return nil, err
	}
	end := p.scan.must()
	if end.kind != tokenClose || end.text != closebrackets[match] {
		return nil, badend(end, match)
	}
	if n == nil {
		return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
	}
	return n, nil
}

// args parses a bracketed list of zero or more arguments as a chain of
// nodeArg. The close bracket is pushed for the caller to check.
func (p *parser) args(open string) (*node, error) {
	var head node
	tail := &head
	sep := ""
	// Separators never end an expression inside an argument list.
	ceof, seof := p.ceof, p.seof
	p.ceof, p.seof = false, false
	p.depth++
	defer func() {
		p.ceof, p.seof = ceof, seof
		p.depth--
	}()
	for {
		arg, err := p.term(exprprec)
		if err != nil {
			// A missing close bracket says more than an empty expression.
			var ee *EmptyExpressionError
			if errors.As(err, &ee) && ee.End == "" {
				err = &BracketError{Col: ee.Col, Left: open}
			}
			return nil, err
		}
		end := p.scan.must()
		switch end.kind {
		case tokenClose:
			p.scan.push(end)
			if arg == nil {
				// f() is allowed, but f(a,) isn't.
				if head.right != nil {
					return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
				}
				return nil, nil
			}
			tail.right = &node{kind: nodeArg, name: sep, pos: arg.pos, left: arg}
			return head.right, nil
		case tokenSep:
			if arg == nil {
				return nil, &SeparatorError{Col: end.pos, Sep: end.text}
			}
			tail.right = &node{kind: nodeArg, name: sep, pos: arg.pos, left: arg}
			tail = tail.right
			sep = end.text
		case tokenEOF:
			return nil, &BracketError{Col: end.pos, Left: open}
		default:
			panic("calc: argument list ended on " + end.String())
		}
	}
}

// parsenum converts the text of a number token to its value. Literals too
// large to represent are infinite.
func parsenum(s string) float64 {
	if s == "∞" {
		return math.Inf(1)
	}
	r, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		// The lexer only produces well-formed numbers.
		panic("calc: invalid number: " + s + " (" + err.Error() + ")")
	}
	return r
}

// rightbracket gets the closing bracket index for an opening bracket.
func rightbracket(left string) int {
	for i, b := range openbrackets {
		if b == left {
			return i
		}
	}
	panic("calc: invalid bracket " + strconv.Quote(left))
}

// badend returns an error for a token that ended a subexpression where it
// can't. match is the index of the bracket the subexpression opened with, or
// -1 if none.
func badend(tok lexToken, match int) error {
	left := ""
	if match >= 0 {
		left = openbrackets[match]
	}
	switch tok.kind {
	case tokenEOF:
		// An open bracket was never closed.
		return &BracketError{Col: tok.pos, Left: left}
	case tokenClose:
		// Either the wrong bracket or a close with no open.
		return &BracketError{Col: tok.pos, Left: left, Right: tok.text}
	case tokenSep:
		// Separator outside a function call.
		return &SeparatorError{Col: tok.pos, Sep: tok.text}
	default:
		panic("calc: subexpression ended on " + tok.String())
	}
}

type operator struct {
	// prec is the precedence value. Higher is more binding.
	prec int8
	// right indicates right-associativity.
	right bool
	// op is the node kind to use when this operator is selected.
	op nodeKind
}

func (p operator) moreBinding(than operator) bool {
	if p.prec != than.prec {
		return p.prec > than.prec
	}
	return p.right
}

var binops = map[string]operator{
	"+":  {1, false, nodeAdd},
	"-":  {1, false, nodeSub},
	"*":  {5, false, nodeMul},
	"×":  {5, false, nodeMul},
	"/":  {5, false, nodeDiv},
	"÷":  {5, false, nodeDiv},
	"%":  {5, false, nodeMod},
	"//": {5, false, nodeFloorDiv},
	"^":  {15, true, nodePow},
	"**": {15, true, nodePow},
}

var unops = map[string]operator{
	"+": {10, true, nodeNop},
	"-": {10, true, nodeNeg},
}

// binop gets a binary operator for a token string. If there is no such binary
// operator, then the result has an op of nodeNone.
func binop(text string) operator {
	return binops[text]
}

// unop gets a unary operator for a token string. If there is no such unary
// operator, then the result has an op of nodeNone.
func unop(text string) operator {
	return unops[text]
}

// exprprec is the precedence required to parse an entire subexpression.
var exprprec = operator{-128, true, nodeNone}
