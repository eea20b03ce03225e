package calc

import (
	"strings"
)

// node is a node in the abstract syntax tree of an expression.
type node struct {
	kind nodeKind

	// name is the source text of a number or binary operator, the name of a
	// variable or function, or the separator preceding an argument.
	name string
	// num is the value of a nodeNum.
	num float64
	// pos is the column of the token that produced the node.
	pos int

	left  *node
	right *node
}

type nodeKind int8

const (
	nodeNone nodeKind = iota

	nodeNum  // literal num
	nodeName // variable lookup

	nodeCall // name is the function, right is link to nodeArg unless niladic
	nodeArg  // name is "" or "," or ";", left is the argument, right is link to next arg

	nodeNeg // negate left
	nodeNop // +left

	nodeAdd      // left + right
	nodeSub      // left - right
	nodeMul      // left * right
	nodeDiv      // left / right
	nodeMod      // left % right
	nodeFloorDiv // left // right
	nodePow      // left ^ right
)

//go:generate stringer -type=nodeKind -trimprefix=node

func (n *node) String() string {
	var b strings.Builder
	n.fmt(&b, false, false)
	return b.String()
}

// brackets returns the grouping runes for one nesting level.
func brackets(square bool) (l, r byte) {
	if square {
		return '[', ']'
	}
	return '(', ')'
}

// fmt writes n fully bracketed, alternating round and square brackets by
// depth. If alt is true, multiplication and division use × and ÷.
func (n *node) fmt(b *strings.Builder, square, alt bool) {
	l, r := brackets(square)
	b.WriteByte(l)
	defer b.WriteByte(r)
	inner := !square
	switch n.kind {
	case nodeNum, nodeName:
		b.WriteString(n.name)
	case nodeCall:
		b.WriteString(n.name)
		n.right.fmtargs(b, inner, alt)
	case nodeNeg, nodeNop:
		b.WriteString(n.kind.symbol(alt))
		n.left.fmt(b, inner, alt)
	case nodeAdd, nodeSub, nodeMul, nodeDiv, nodeMod, nodeFloorDiv, nodePow:
		n.left.fmt(b, inner, alt)
		b.WriteString(" " + n.kind.symbol(alt) + " ")
		n.right.fmt(b, inner, alt)
	case nodeArg:
		// Args are normally written by fmtargs.
		b.WriteByte(':')
		n.left.fmt(b, inner, alt)
		if n.right != nil {
			n.right.fmt(b, inner, alt)
		}
	case nodeNone:
		// Invalid nodes use invalid characters.
		b.WriteByte('$')
		if n.left != nil {
			n.left.fmt(b, square, alt)
		}
		b.WriteByte('#')
		if n.right != nil {
			n.right.fmt(b, square, alt)
		}
		b.WriteByte('$')
	default:
		panic("calc: invalid node kind " + n.kind.String() + " after writing " + b.String())
	}
}

// fmtargs writes the argument chain starting at n as a bracketed,
// comma-separated list. A nil n is an empty list.
func (n *node) fmtargs(b *strings.Builder, square, alt bool) {
	l, r := brackets(square)
	b.WriteByte(l)
	defer b.WriteByte(r)
	for arg := n; arg != nil; arg = arg.right {
		if arg.kind != nodeArg {
			b.WriteString("***")
			arg.fmt(b, !square, alt)
			return
		}
		if arg != n {
			b.WriteString(", ")
		}
		arg.left.fmt(b, !square, alt)
	}
}

// symbol returns the operator text for an operator node kind. If alt is true,
// multiplication and division use × and ÷.
func (k nodeKind) symbol(alt bool) string {
	switch k {
	case nodeAdd, nodeNop:
		return "+"
	case nodeSub, nodeNeg:
		return "-"
	case nodeMul:
		if alt {
			return "×"
		}
		return "*"
	case nodeDiv:
		if alt {
			return "÷"
		}
		return "/"
	case nodeMod:
		return "%"
	case nodeFloorDiv:
		return "//"
	case nodePow:
		return "^"
	default:
		return ""
	}
}

// construct describes the node for error messages.
func (n *node) construct() string {
	switch n.kind {
	case nodeName:
		return "variable " + n.name
	case nodeCall:
		return "call to " + n.name
	case nodeNeg:
		return "unary -"
	case nodeNop:
		return "unary +"
	case nodeMod, nodeFloorDiv, nodePow:
		// Binary nodes keep the operator as written, e.g. ** rather than ^.
		if n.name != "" {
			return "operator " + n.name
		}
		return "operator " + n.kind.symbol(false)
	default:
		return n.kind.String()
	}
}
