package evaluator

import (
	"errors"
	"fmt"
)

// ExitStatus is the status an exit form halts with
const ExitStatus = 0x0100

// Halt is returned by Eval when the program asks to stop. It travels as an
// error so that every caller unwinds, but it is not a failure.
type Halt struct {
	Status int
}

func (h *Halt) Error() string {
	return fmt.Sprintf("halt (status %d)", h.Status)
}

// ExitCode is the status as a process would see it after POSIX masking
func (h *Halt) ExitCode() int {
	return h.Status & 0xff
}

// IsHalt reports whether err is, or wraps, a Halt
func IsHalt(err error) bool {
	var h *Halt
	return errors.As(err, &h)
}

// AsHalt returns the Halt inside err, if any
func AsHalt(err error) (*Halt, bool) {
	var h *Halt
	if errors.As(err, &h) {
		return h, true
	}
	return nil, false
}
