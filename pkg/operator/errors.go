// SPDX-License-Identifier: MPL-2.0

package operator

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrProtocol marks a malformed or unencodable record.
	ErrProtocol = errors.New("protocol error")
	// ErrResolution marks a template without a registered counterpart.
	ErrResolution = errors.New("resolution error")
	// ErrSubstitution marks a template placeholder without an argument.
	ErrSubstitution = errors.New("substitution error")
	// ErrExecution marks a command that could not be run or piped.
	ErrExecution = errors.New("execution error")
)

// SubstitutionError lists the placeholders of Template that had no argument.
// It wraps ErrSubstitution for errors.Is() compatibility.
type SubstitutionError struct {
	Template string
	Missing  []string
}

// Error implements the error interface.
func (e *SubstitutionError) Error() string {
	return fmt.Sprintf("%s: template %q references missing argument(s): %s",
		ErrSubstitution, e.Template, strings.Join(e.Missing, ", "))
}

// Unwrap returns ErrSubstitution.
func (e *SubstitutionError) Unwrap() error { return ErrSubstitution }

func protocolErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrProtocol, fmt.Sprintf(format, args...))
}
