package asm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedLiteral is returned for a numeric literal that does not
	// parse in its radix or does not fit its operand.
	ErrMalformedLiteral = errors.New("malformed literal")

	// ErrUnknownInstruction is returned when a line's text matches no
	// instruction.
	ErrUnknownInstruction = errors.New("unknown instruction")
)

// LineError ties an error to the source line it came from. Line is 1-based.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %s: %v", e.Line, e.Text, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// Errors collects every failed line of one assembly pass.
type Errors []*LineError

func (e Errors) Error() string {
	switch len(e) {
	case 0:
		return "no errors"
	case 1:
		return e[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d errors:", len(e))
	for _, le := range e {
		b.WriteString("\n\t")
		b.WriteString(le.Error())
	}
	return b.String()
}

// Unwrap exposes the line errors to errors.Is and errors.As.
func (e Errors) Unwrap() []error {
	out := make([]error, len(e))
	for i, le := range e {
		out[i] = le
	}
	return out
}
