// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrUnknownCommand is returned when a template has no registered counterpart.
	ErrUnknownCommand = errors.New("unknown command template")
	// ErrDuplicateCommand is returned when a template is registered in more than one pair.
	ErrDuplicateCommand = errors.New("duplicate command template")
	// ErrEmptyCommand is returned when a pair has an empty or whitespace-only template.
	ErrEmptyCommand = errors.New("empty command template")
)

type (
	// Pair associates a forward command template with its inverse.
	// Forward and Inverse may be equal for self-inverse commands.
	Pair struct {
		Forward string
		Inverse string
	}

	// Registry is an immutable bidirectional template index.
	Registry struct {
		forward map[string]string
		inverse map[string]string
		strip   map[string]struct{}
		pairs   []Pair
	}

	// UnknownCommandError names the template that failed to resolve.
	// It wraps ErrUnknownCommand for errors.Is() compatibility.
	UnknownCommandError struct {
		Template string
	}
)

// Error implements the error interface.
func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownCommand, e.Template)
}

// Unwrap returns ErrUnknownCommand.
func (e *UnknownCommandError) Unwrap() error { return ErrUnknownCommand }

// New builds a registry from pairs and the templates whose output has a
// trailing newline stripped. Every template may appear in at most one pair.
func New(pairs []Pair, strip []string) (*Registry, error) {
	r := &Registry{
		forward: make(map[string]string, len(pairs)),
		inverse: make(map[string]string, len(pairs)),
		strip:   make(map[string]struct{}, len(strip)),
		pairs:   make([]Pair, 0, len(pairs)),
	}

	seen := make(map[string]int, 2*len(pairs))
	for i, p := range pairs {
		if strings.TrimSpace(p.Forward) == "" || strings.TrimSpace(p.Inverse) == "" {
			return nil, fmt.Errorf("pair %d (%q, %q): %w", i, p.Forward, p.Inverse, ErrEmptyCommand)
		}
		for _, tmpl := range uniq(p.Forward, p.Inverse) {
			if first, dup := seen[tmpl]; dup {
				return nil, fmt.Errorf("%q in pairs %d and %d: %w", tmpl, first, i, ErrDuplicateCommand)
			}
			seen[tmpl] = i
		}
		r.forward[p.Forward] = p.Inverse
		r.inverse[p.Inverse] = p.Forward
		r.pairs = append(r.pairs, p)
	}

	for _, tmpl := range strip {
		r.strip[tmpl] = struct{}{}
	}

	return r, nil
}

// MustNew is New for statically known tables; it panics on error.
func MustNew(pairs []Pair, strip []string) *Registry {
	r, err := New(pairs, strip)
	if err != nil {
		panic(err)
	}
	return r
}

// Counterpart returns the template paired with tmpl, whichever side of
// the pair tmpl is on. Templates are matched verbatim, placeholders included.
func (r *Registry) Counterpart(tmpl string) (string, error) {
	if inv, ok := r.forward[tmpl]; ok {
		return inv, nil
	}
	if fwd, ok := r.inverse[tmpl]; ok {
		return fwd, nil
	}
	return "", &UnknownCommandError{Template: tmpl}
}

// StripsNewline reports whether output of tmpl loses one trailing newline.
func (r *Registry) StripsNewline(tmpl string) bool {
	_, ok := r.strip[tmpl]
	return ok
}

// Pairs returns the registered pairs in registration order.
func (r *Registry) Pairs() []Pair {
	return slices.Clone(r.pairs)
}

// StripTemplates returns the newline-stripping templates, sorted.
func (r *Registry) StripTemplates() []string {
	out := make([]string, 0, len(r.strip))
	for tmpl := range r.strip {
		out = append(out, tmpl)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of registered pairs.
func (r *Registry) Len() int {
	return len(r.pairs)
}

func uniq(a, b string) []string {
	if a == b {
		return []string{a}
	}
	return []string{a, b}
}
