//go:build !windows

// Package term reads single key presses from the controlling terminal for the
// interactive stepper. It wraps github.com/pkg/term, switching the terminal
// to cbreak mode so keys arrive without waiting for return.
package term

import (
	"fmt"

	"github.com/pkg/term"
)

// Device is the terminal Open uses.
const Device = "/dev/tty"

// Keyboard is a terminal in cbreak mode.
type Keyboard struct {
	t *term.Term
}

// Open puts the controlling terminal into cbreak mode. Close restores it.
func Open() (*Keyboard, error) {
	t, err := term.Open(Device)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", Device, err)
	}
	if err := t.SetCbreak(); err != nil {
		t.Close()
		return nil, fmt.Errorf("cbreak mode: %w", err)
	}
	return &Keyboard{t: t}, nil
}

// ReadKey blocks until one byte is available.
func (k *Keyboard) ReadKey() (byte, error) {
	var b [1]byte
	if _, err := k.t.Read(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// Close restores the previous terminal mode.
func (k *Keyboard) Close() error {
	if err := k.t.Restore(); err != nil {
		k.t.Close()
		return err
	}
	return k.t.Close()
}
