// Package errs declares error types used as exception causes.
package errs

import "fmt"

// OutOfRange encodes an error where a value is out of range.
type OutOfRange struct {
	What      string
	ValidLow  int64
	ValidHigh int64
	Actual    string
}

// Error implements the error interface.
func (e OutOfRange) Error() string {
	if e.ValidHigh < e.ValidLow {
		return fmt.Sprintf(
			"out of range: %s has no valid value, but is %s", e.What, e.Actual)
	}
	return fmt.Sprintf(
		"out of range: %s must be from %d to %d, but is %s",
		e.What, e.ValidLow, e.ValidHigh, e.Actual)
}

// ArityMismatch encodes an error where the expected number of values is out of
// the valid range.
type ArityMismatch struct {
	What      string
	ValidLow  int
	ValidHigh int
	Actual    int
}

func (e ArityMismatch) Error() string {
	switch {
	case e.ValidHigh == e.ValidLow:
		return fmt.Sprintf("arity mismatch: %s must be %s, but is %s",
			e.What, nValues(e.ValidLow), nValues(e.Actual))
	case e.ValidHigh == -1:
		return fmt.Sprintf("arity mismatch: %s must be %d or more values, but is %s",
			e.What, e.ValidLow, nValues(e.Actual))
	default:
		return fmt.Sprintf("arity mismatch: %s must be %d to %d values, but is %s",
			e.What, e.ValidLow, e.ValidHigh, nValues(e.Actual))
	}
}

func nValues(n int) string {
	if n == 1 {
		return "1 value"
	}
	return fmt.Sprintf("%d values", n)
}

// BadValue encodes an error where the value does not meet a general requirement.
type BadValue struct {
	What   string
	Valid  string
	Actual string
}

func (e BadValue) Error() string {
	return fmt.Sprintf(
		"bad value: %v must be %v, but is %v", e.What, e.Valid, e.Actual)
}

// TypeMismatch encodes an error where a value has the wrong kind for an
// operation.
type TypeMismatch struct {
	What   string
	Valid  string
	Actual string
}

func (e TypeMismatch) Error() string {
	return fmt.Sprintf(
		"type mismatch: %v must be %v, but is %v", e.What, e.Valid, e.Actual)
}

// DivisionByZero encodes an error in integer division or modulo where the
// divisor is zero.
type DivisionByZero struct{}

func (DivisionByZero) Error() string { return "division by zero" }

// Overflow encodes an error where the result of integer arithmetic does not
// fit in 64 bits.
type Overflow struct {
	What string
}

func (e Overflow) Error() string {
	return fmt.Sprintf("overflow: %s", e.What)
}

// ReaderGone is raised by the writer in a pipeline when the reader has
// terminated. It is usually caught internally and turned into a silent stop of
// the producing stage.
type ReaderGone struct{}

func (ReaderGone) Error() string { return "reader gone" }
