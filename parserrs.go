package calc

import (
	"errors"
	"strconv"
)

// ErrSyntax is the error that every error from invalid input text wraps.
var ErrSyntax = errors.New("syntax error")

// OperatorError is an error indicating an operator token that is not
// understood by the parser. It implements InputError.
type OperatorError struct {
	// Col is the position of the operator.
	Col int
	// Operator is the token that was not understood.
	Operator string
	// Unary is whether the parser expected a unary operator at the time.
	Unary bool
}

func (err *OperatorError) Error() string {
	s := "binary"
	if err.Unary {
		s = "unary"
	}
	return errpos(err.Col, "unknown "+s+" operator "+strconv.Quote(err.Operator))
}

func (err *OperatorError) Pos() int {
	return err.Col
}

func (err *OperatorError) Unwrap() error {
	return ErrSyntax
}

// BracketError is an error indicating mismatched brackets in the
// input. It implements InputError.
type BracketError struct {
	// Col is the position of the bracket or end of input.
	Col int
	// Left is the opening bracket.
	Left string
	// Right is the mismatched closing bracket.
	Right string
}

func (err *BracketError) Error() string {
	if err.Left == "" {
		return errpos(err.Col, "close bracket "+err.Right+" with no open bracket")
	}
	if err.Right == "" {
		return errpos(err.Col, "open bracket "+err.Left+" with no close bracket")
	}
	return errpos(err.Col, "mismatched bracket: "+err.Left+"expr"+err.Right)
}

func (err *BracketError) Pos() int {
	return err.Col
}

func (err *BracketError) Unwrap() error {
	return ErrSyntax
}

// SeparatorError is an error indicating an illegal use of a comma or semicolon
// separator. It implements InputError.
type SeparatorError struct {
	// Col is the position of the separator.
	Col int
	// Sep is the separator.
	Sep string
}

func (err *SeparatorError) Error() string {
	return errpos(err.Col, "invalid occurrence of separator "+strconv.Quote(err.Sep))
}

func (err *SeparatorError) Pos() int {
	return err.Col
}

func (err *SeparatorError) Unwrap() error {
	return ErrSyntax
}

// TokenError is an error indicating a term that follows another term with no
// operator between them, as in "2 3" or "2 (3)". It implements InputError.
type TokenError struct {
	// Col is the position of the unexpected token.
	Col int
	// Text is the unexpected token.
	Text string
}

func (err *TokenError) Error() string {
	return errpos(err.Col, "unexpected "+strconv.Quote(err.Text)+" with no operator before it")
}

func (err *TokenError) Pos() int {
	return err.Col
}

func (err *TokenError) Unwrap() error {
	return ErrSyntax
}

// EmptyExpressionError is an error indicating an empty subexpression. It
// implements InputError.
type EmptyExpressionError struct {
	// Col is the position of the token that ended the subexpression.
	Col int
	// End is the token that ended the subexpression.
	End string
}

func (err *EmptyExpressionError) Error() string {
	if err.End == "" {
		if err.Col <= 1 {
			return errpos(err.Col, "no expression")
		}
		return errpos(err.Col, "no expression at end")
	}
	return errpos(err.Col, "no expression up to "+strconv.Quote(err.End))
}

func (err *EmptyExpressionError) Pos() int {
	return err.Col
}

func (err *EmptyExpressionError) Unwrap() error {
	return ErrSyntax
}

// LexError indicates an invalid token. It implements InputError.
type LexError struct {
	// Text is the token the lexer was scanning when the invalid rune was
	// encountered, including that rune.
	Text string
	// Kind is "number" if the lexer was scanning a number or empty if the
	// invalid rune could not begin any token.
	Kind string
	// Col is the column just past the invalid rune.
	Col int
}

func (err *LexError) Error() string {
	if err.Kind == "" {
		return errpos(err.Col, "invalid character "+strconv.Quote(err.Text))
	}
	return errpos(err.Col, "invalid "+err.Kind+" "+strconv.Quote(err.Text))
}

func (err *LexError) Pos() int {
	return err.Col
}

func (err *LexError) Unwrap() error {
	return ErrSyntax
}

// errpos is a shortcut to create an error message with a position.
func errpos(pos int, msg string) string {
	return strconv.Itoa(pos) + ": " + msg
}

// InputError is an error with position information. Every error resulting from
// invalid input implements InputError.
type InputError interface {
	error
	// Pos returns the position of the error as the number of runes up to and
	// including the start of the token that caused the error.
	Pos() int
}

var (
	_ InputError = (*OperatorError)(nil)
	_ InputError = (*BracketError)(nil)
	_ InputError = (*SeparatorError)(nil)
	_ InputError = (*TokenError)(nil)
	_ InputError = (*EmptyExpressionError)(nil)
	_ InputError = (*LexError)(nil)
	_ InputError = (*UnsupportedError)(nil)
)
