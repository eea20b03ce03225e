package calc

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode"
)

type lexToken struct {
	text string
	kind tokenKind
	pos  int
}

func (t lexToken) String() string {
	return t.kind.String() + ":" + t.text + "@" + strconv.Itoa(t.pos)
}

type tokenKind int

const (
	tokenNone tokenKind = iota
	// tokenEOF indicates the end of the input.
	tokenEOF
	// tokenNum is a numeric literal, including inf.
	tokenNum
	// tokenIdent is a variable or function name.
	tokenIdent
	// tokenOp is an operator.
	tokenOp
	// tokenOpen is an open bracket, e.g. (.
	tokenOpen
	// tokenClose is a close bracket, e.g. ).
	tokenClose
	// tokenSep is a function arguments separator, either , or ;.
	tokenSep
)

//go:generate stringer -type=tokenKind -trimprefix=token

// Operators contains the runes which the lexer scans as operators. Not all of
// them can be evaluated; see SupportedOperators.
const Operators = "+-*/^×÷%"

// OpenBrackets and CloseBrackets contain the runes which group expressions.
// The parser checks that a bracket in rune position k in OpenBrackets is
// matched with the bracket in rune position k in CloseBrackets.
const (
	OpenBrackets  = "([{"
	CloseBrackets = ")]}"
)

// separators end arguments in a call.
const separators = ",;"

var (
	openbrackets  = runestrs(OpenBrackets)
	closebrackets = runestrs(CloseBrackets)
)

// singles maps each rune that is a complete token by itself to that token.
var singles = func() map[rune]lexToken {
	m := map[rune]lexToken{'∞': {text: "∞", kind: tokenNum}}
	add := func(s string, kind tokenKind) {
		for _, r := range s {
			m[r] = lexToken{text: string(r), kind: kind}
		}
	}
	add(Operators, tokenOp)
	add(OpenBrackets, tokenOpen)
	add(CloseBrackets, tokenClose)
	add(separators, tokenSep)
	return m
}()

func runestrs(s string) []string {
	v := make([]string, 0, len(s))
	for _, r := range s {
		v = append(v, string(r))
	}
	return v
}

func isdigit(r rune) bool {
	return '0' <= r && r <= '9'
}

// endsnum reports whether r ends a number without being part of it.
func endsnum(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(Operators+OpenBrackets+CloseBrackets+separators, r)
}

type lexer struct {
	src  io.RuneScanner
	buf  strings.Builder
	rune int
	p    lexToken
	eof  bool
}

func lex(src io.RuneScanner) *lexer {
	return &lexer{
		src:  src,
		rune: 1,
	}
}

// push unreads a token so that it is the next token returned from next. Panics
// if there is already a pushed token.
func (l *lexer) push(tok lexToken) {
	if l.p.kind != tokenNone {
		panic("calc: double push")
	}
	l.p = tok
}

// must scans the pushed token. Panics if there is no pushed token.
func (l *lexer) must() lexToken {
	tok := l.p
	if tok.kind == tokenNone {
		panic("calc: no pushed token")
	}
	l.p = lexToken{}
	return tok
}

// readRune reads a rune and advances the column if there was one.
func (l *lexer) readRune() (r rune, err error) {
	r, sz, err := l.src.ReadRune()
	if sz > 0 {
		l.rune++
	}
	return r, err
}

// unreadRune unreads the last rune read. Panics if the source refuses.
func (l *lexer) unreadRune() {
	if err := l.src.UnreadRune(); err != nil {
		panic(err)
	}
	l.rune--
}

// next scans the next token from the input. The first time EOF is encountered
// before any non-whitespace characters, the result is an EOF token with a nil
// error. Subsequent times, if the EOF token is not pushed, the result is an
// empty token with io.EOF. Whitespace runes in wseof are scanned as EOF.
func (l *lexer) next(wseof string) (lexToken, error) {
	if l.p.kind != tokenNone {
		return l.must(), nil
	}
	if l.eof {
		return lexToken{}, io.EOF
	}
	defer l.buf.Reset()

	r, err := l.readRune()
	for err == nil && unicode.IsSpace(r) && !strings.ContainsRune(wseof, r) {
		r, err = l.readRune()
	}
	if err != nil {
		if errors.Is(err, io.EOF) {
			l.eof = true
			return lexToken{kind: tokenEOF, pos: l.rune}, nil
		}
		return lexToken{pos: l.rune}, err
	}
	tok := lexToken{pos: l.rune - 1}
	if unicode.IsSpace(r) {
		// Only stop runes get here.
		l.eof = true
		tok.kind = tokenEOF
		return tok, nil
	}

	if s, ok := singles[r]; ok {
		tok.text, tok.kind = s.text, s.kind
		if r == '*' || r == '/' {
			// ** and // are single operators.
			dbl, err := l.doubled(r)
			if err != nil {
				return lexToken{pos: tok.pos}, err
			}
			if dbl {
				tok.text += tok.text
			}
		}
		return tok, nil
	}

	switch {
	case isdigit(r), r == '.':
		l.unreadRune()
		err = l.scanNum()
		tok.kind = tokenNum
	case r == '_', unicode.IsLetter(r):
		l.unreadRune()
		err = l.scanIdent()
		tok.kind = tokenIdent
		// inf looks like an identifier.
		if s := l.buf.String(); s == "inf" || s == "Inf" {
			tok.kind = tokenNum
		}
	default:
		// Write the rune so that it shows up in the error message.
		l.buf.WriteRune(r)
		return lexToken{pos: tok.pos}, l.error("")
	}
	if err != nil {
		return lexToken{pos: tok.pos}, err
	}
	tok.text = l.buf.String()
	return tok, nil
}

// doubled consumes the next rune if it is r. EOF is left for the next scan.
func (l *lexer) doubled(r rune) (bool, error) {
	s, err := l.readRune()
	switch {
	case errors.Is(err, io.EOF):
		return false, nil
	case err != nil:
		return false, err
	case s != r:
		l.unreadRune()
		return false, nil
	}
	return true, nil
}

// scanNum scans a decimal literal with optional fraction and exponent. The
// mantissa needs at least one digit, and so does an exponent if present.
func (l *lexer) scanNum() error {
	var (
		mant, point, exp, expdig bool
		// sign is set immediately after the exponent marker, where + and -
		// belong to the number instead of ending it.
		sign bool
	)
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		if sign && (r == '+' || r == '-') {
			sign = false
			l.buf.WriteRune(r)
			continue
		}
		if endsnum(r) {
			l.unreadRune()
			break
		}
		l.buf.WriteRune(r)
		sign = false
		switch {
		case isdigit(r):
			if exp {
				expdig = true
			} else {
				mant = true
			}
		case r == '.' && !point && !exp:
			point = true
		case (r == 'e' || r == 'E') && mant && !exp:
			exp, sign = true, true
		default:
			return l.error("number")
		}
	}
	if !mant || (exp && !expdig) {
		return l.error("number")
	}
	return nil
}

func (l *lexer) scanIdent() error {
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				// next unreads the first rune before calling scanIdent, so
				// the identifier is not empty.
				return nil
			}
			return err
		}
		if r != '_' && r != '.' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			l.unreadRune()
			return nil
		}
		l.buf.WriteRune(r)
	}
}

func (l *lexer) error(kind string) error {
	return &LexError{
		Text: l.buf.String(),
		Kind: kind,
		Col:  l.rune,
	}
}
