package inst

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOpcode is returned when an opcode lands on an invalid table slot.
	ErrInvalidOpcode = errors.New("invalid opcode")

	// ErrShortInput is returned by Decode when the byte slice ends mid-opcode.
	ErrShortInput = errors.New("short input")
)

// InvalidOpcodeError records where an invalid opcode was fetched.
type InvalidOpcodeError struct {
	Bank    uint8
	Address uint16
	Bytes   []byte
}

func (e *InvalidOpcodeError) Error() string {
	return fmt.Sprintf("invalid opcode % x at %02x:%04x", e.Bytes, e.Bank, e.Address)
}

// Is makes errors.Is(err, ErrInvalidOpcode) match.
func (e *InvalidOpcodeError) Is(target error) bool {
	return target == ErrInvalidOpcode
}
