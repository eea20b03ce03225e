package calc

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseOption is an option for parsing.
type ParseOption interface {
	parseOption(parsectx) parsectx
}

// parsectx holds general data for parsing.
type parsectx struct {
	// wseof holds the whitespace runes that the lexer scans as EOF.
	wseof string
	// ceof and seof allow a comma or semicolon, respectively, to end the
	// expression.
	ceof, seof bool
}

type stopopt struct {
	comma, semi bool
	space       string
}

// StopOn makes the parser end the expression at any of the given runes, which
// must be commas, semicolons, or whitespace; any other rune panics. This lets
// one source hold several expressions, e.g. one per line with StopOn('\n').
//
// A stop rune in whitespace position is skipped where a term is still
// expected, such as after an operator, so an expression may continue across
// lines after a trailing operator. Inside brackets, stop whitespace is
// ordinary whitespace, and commas and semicolons inside call arguments
// separate arguments as usual.
//
// The last StopOn in a list of options wins. StopOn() restores the default of
// parsing to the end of the input.
func StopOn(chars ...rune) ParseOption {
	var o stopopt
	var ws strings.Builder
	for _, r := range chars {
		switch {
		case r == ',':
			o.comma = true
		case r == ';':
			o.semi = true
		case unicode.IsSpace(r):
			if !strings.ContainsRune(ws.String(), r) {
				ws.WriteRune(r)
			}
		default:
			panic("calc: cannot stop on " + strconv.QuoteRune(r))
		}
	}
	o.space = ws.String()
	return o
}

func (o stopopt) parseOption(p parsectx) parsectx {
	p.ceof, p.seof, p.wseof = o.comma, o.semi, o.space
	return p
}
