package term

import "errors"

// ErrUnsupported is returned by Open where cbreak mode is not available.
var ErrUnsupported = errors.New("cbreak terminal not supported on windows")

// Keyboard is not available on this platform.
type Keyboard struct{}

// Open always fails on this platform.
func Open() (*Keyboard, error) { return nil, ErrUnsupported }

// ReadKey always fails on this platform.
func (k *Keyboard) ReadKey() (byte, error) { return 0, ErrUnsupported }

// Close does nothing.
func (k *Keyboard) Close() error { return nil }
