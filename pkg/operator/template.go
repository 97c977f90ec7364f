// SPDX-License-Identifier: MPL-2.0

package operator

import (
	"slices"
	"strings"
)

// Substitute fills the placeholders of tmpl from args.
//
// Recognized forms are %{name} and %<name>s; %% produces a literal
// percent sign. Any other percent sequence is copied unchanged. Every
// referenced name must be present in args, otherwise a
// *SubstitutionError listing all missing names is returned.
func Substitute(tmpl string, args Args) (string, error) {
	var (
		b       strings.Builder
		missing []string
	)
	b.Grow(len(tmpl))

	scan(tmpl, func(lit string) {
		b.WriteString(lit)
	}, func(name string) {
		v, ok := args[name]
		if !ok {
			if !slices.Contains(missing, name) {
				missing = append(missing, name)
			}
			return
		}
		b.WriteString(v)
	})

	if len(missing) > 0 {
		return "", &SubstitutionError{Template: tmpl, Missing: missing}
	}
	return b.String(), nil
}

// Placeholders returns the distinct placeholder names of tmpl in order
// of first appearance.
func Placeholders(tmpl string) []string {
	var names []string
	scan(tmpl, func(string) {}, func(name string) {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	})
	return names
}

// scan walks tmpl, reporting literal runs and placeholder names.
func scan(tmpl string, literal func(string), placeholder func(string)) {
	for {
		i := strings.IndexByte(tmpl, '%')
		if i < 0 || i == len(tmpl)-1 {
			literal(tmpl)
			return
		}
		literal(tmpl[:i])
		rest := tmpl[i+1:]

		switch rest[0] {
		case '%':
			literal("%")
			tmpl = rest[1:]
			continue
		case '{':
			if end := strings.IndexByte(rest, '}'); end > 1 {
				placeholder(rest[1:end])
				tmpl = rest[end+1:]
				continue
			}
		case '<':
			if end := strings.IndexByte(rest, '>'); end > 1 && end+1 < len(rest) && rest[end+1] == 's' {
				placeholder(rest[1:end])
				tmpl = rest[end+2:]
				continue
			}
		}

		literal("%")
		tmpl = rest
	}
}
