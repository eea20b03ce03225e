package calc

import (
	"errors"
	"io"
	"strings"
)

// SupportedOperators contains the operators that expressions can evaluate.
// × and ÷ are accepted as spellings of * and /.
const SupportedOperators = "+-*/"

// ErrUnsupported is the error that every UnsupportedError wraps.
var ErrUnsupported = errors.New("unsupported expression")

// Eval evaluates the expression. Division follows floating-point semantics,
// so dividing by zero gives an infinity or NaN rather than an error. If the
// expression uses anything other than numbers and SupportedOperators, the
// error is an *UnsupportedError.
func (e *Expr) Eval() (float64, error) {
	return e.n.eval()
}

// eval computes the value of the tree rooted at n.
func (n *node) eval() (float64, error) {
	switch n.kind {
	case nodeNum:
		return n.num, nil
	case nodeAdd, nodeSub, nodeMul, nodeDiv, nodeMod, nodeFloorDiv, nodePow:
		l, err := n.left.eval()
		if err != nil {
			return 0, err
		}
		r, err := n.right.eval()
		if err != nil {
			return 0, err
		}
		switch n.kind {
		case nodeAdd:
			return l + r, nil
		case nodeSub:
			return l - r, nil
		case nodeMul:
			return l * r, nil
		case nodeDiv:
			return l / r, nil
		}
		return 0, &UnsupportedError{Col: n.pos, Construct: n.construct()}
	case nodeName, nodeCall, nodeNeg, nodeNop:
		return 0, &UnsupportedError{Col: n.pos, Construct: n.construct()}
	case nodeArg:
		panic("calc: eval on nodeArg")
	default:
		panic("calc: invalid AST node " + n.kind.String())
	}
}

// Eval is a shortcut to parse an expression and return its result.
func Eval(src io.RuneScanner, opts ...ParseOption) (float64, error) {
	a, err := Parse(src, opts...)
	if err != nil {
		return 0, err
	}
	return a.Eval()
}

// Calculate parses and evaluates a string containing an expression. The
// error, if any, wraps either ErrSyntax or ErrUnsupported.
func Calculate(src string) (float64, error) {
	return Eval(strings.NewReader(src))
}

// UnsupportedError is an error from evaluating an expression that parses but
// uses a construct outside numbers and SupportedOperators, e.g. "2 ^ 3" or
// "-1". It implements InputError.
type UnsupportedError struct {
	// Col is the position of the token that introduced the construct.
	Col int
	// Construct describes what could not be evaluated.
	Construct string
}

func (err *UnsupportedError) Error() string {
	return errpos(err.Col, "unsupported "+err.Construct)
}

func (err *UnsupportedError) Pos() int {
	return err.Col
}

func (err *UnsupportedError) Unwrap() error {
	return ErrUnsupported
}

// Supported reports whether op is one of SupportedOperators or an alternate
// spelling of one.
func Supported(op string) bool {
	switch op {
	case "×", "÷":
		return true
	}
	r := []rune(op)
	return len(r) == 1 && strings.ContainsRune(SupportedOperators, r[0])
}
