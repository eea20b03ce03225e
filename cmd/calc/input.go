package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/zephyrtronium/calc"
)

// recorder is a RuneScanner that keeps the text read since the last reset, so
// that a failed expression can be reported with its source.
type recorder struct {
	r    *bufio.Reader
	text []byte
	// last is the size of the last rune read, or 0 if it can't be unread.
	last int
}

func record(r io.Reader) *recorder {
	return &recorder{r: bufio.NewReader(r)}
}

func (r *recorder) ReadRune() (rune, int, error) {
	c, sz, err := r.r.ReadRune()
	if err != nil {
		r.last = 0
		return c, sz, err
	}
	// Invalid UTF-8 reads as one byte but encodes as three.
	r.text = utf8.AppendRune(r.text, c)
	r.last = utf8.RuneLen(c)
	return c, sz, nil
}

func (r *recorder) UnreadRune() error {
	if err := r.r.UnreadRune(); err != nil {
		return err
	}
	r.text = r.text[:len(r.text)-r.last]
	r.last = 0
	return nil
}

// reset discards the recorded text.
func (r *recorder) reset() {
	r.text = r.text[:0]
	r.last = 0
}

// src returns the recorded text without surrounding whitespace.
func (r *recorder) src() string {
	return strings.TrimSpace(string(r.text))
}

// ended reports whether the last rune read was c.
func (r *recorder) ended(c rune) bool {
	l, _ := utf8.DecodeLastRune(r.text)
	return r.last > 0 && l == c
}

// skipSpace consumes whitespace. It returns io.EOF at the end of the input.
func (r *recorder) skipSpace() error {
	for {
		c, _, err := r.ReadRune()
		if err != nil {
			return err
		}
		if !unicode.IsSpace(c) {
			return r.UnreadRune()
		}
	}
}

// skipTo consumes runes through the next c, or to the end of the input if c
// is 0.
func (r *recorder) skipTo(c rune) error {
	for {
		d, _, err := r.ReadRune()
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		case c != 0 && d == c:
			return nil
		}
	}
}

// readExprs parses every expression in r. In line mode, a newline ends each
// expression unless it follows an operator or falls inside brackets;
// otherwise the whole input is one expression. An invalid expression is
// returned as an item with its error, and parsing resumes on the next line.
func readExprs(r io.Reader, lines bool) ([]item, error) {
	var (
		opts []calc.ParseOption
		stop rune
	)
	if lines {
		opts = append(opts, calc.StopOn('\n'))
		stop = '\n'
	}
	in := record(r)
	var items []item
	for {
		if err := in.skipSpace(); err != nil {
			if errors.Is(err, io.EOF) {
				return items, nil
			}
			return nil, err
		}
		in.reset()
		a, err := calc.Parse(in, opts...)
		if err != nil {
			if !errors.Is(err, calc.ErrSyntax) {
				return nil, err
			}
			if stop == 0 || !in.ended(stop) {
				if err := in.skipTo(stop); err != nil {
					return nil, fmt.Errorf("skipping invalid expression: %w", err)
				}
			}
		}
		items = append(items, item{src: in.src(), a: a, err: err})
	}
}
