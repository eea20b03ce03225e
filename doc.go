// Package calc implements the evaluation core of a four-function calculator.
//
// Parsing accepts the usual arithmetic notation, somewhat more than can be
// evaluated: "2 + 3 * 4", "(1 - 2) / 3", and "1.5e3 × 2" all evaluate, while
// "2 ^ 3", "-1", "7 % 2", "x + 1", and "sqrt(2)" parse but fail to evaluate
// with an error wrapping ErrUnsupported. Text that doesn't parse at all gives
// an error wrapping ErrSyntax.
//
// Multiplication and division bind tighter than addition and subtraction, and
// all four are left-associative. Arithmetic is float64, so "1/0" is +Inf.
//
package calc
