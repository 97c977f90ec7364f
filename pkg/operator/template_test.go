// SPDX-License-Identifier: MPL-2.0

package operator

import (
	"errors"
	"reflect"
	"testing"
)

func TestSubstitute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tmpl string
		args Args
		want string
	}{
		{"no placeholders", "gzip -c", nil, "gzip -c"},
		{"brace form", "test_cmd_with_param %{param1}", Args{"param1": "123"}, "test_cmd_with_param 123"},
		{"angle form", "cat /store/%<sha256sum>s", Args{"sha256sum": "abc"}, "cat /store/abc"},
		{"repeated", "%{a}-%{a}", Args{"a": "x"}, "x-x"},
		{"adjacent", "dd if=%{dir}%{file}", Args{"dir": "/d/", "file": "f"}, "dd if=/d/f"},
		{"escaped percent", "printf 100%%", nil, "printf 100%"},
		{"unknown sequence kept", "date +%Y", nil, "date +%Y"},
		{"trailing percent", "echo 5%", nil, "echo 5%"},
		{"empty braces kept", "echo %{}", nil, "echo %{}"},
		{"angle without s kept", "echo %<a>d", Args{"a": "1"}, "echo %<a>d"},
		{"empty value", "cmd %{a}", Args{"a": ""}, "cmd "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Substitute(tt.tmpl, tt.args)
			if err != nil {
				t.Fatalf("Substitute() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Substitute() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSubstitute_Missing(t *testing.T) {
	t.Parallel()

	_, err := Substitute("dd if=%{dir}%{file} of=%{dir}x", Args{"file": "f"})
	if !errors.Is(err, ErrSubstitution) {
		t.Fatalf("Substitute() error = %v, want ErrSubstitution", err)
	}
	var se *SubstitutionError
	if !errors.As(err, &se) {
		t.Fatalf("error is not *SubstitutionError: %T", err)
	}
	if !reflect.DeepEqual(se.Missing, []string{"dir"}) {
		t.Errorf("Missing = %v, want [dir]", se.Missing)
	}
}

func TestPlaceholders(t *testing.T) {
	t.Parallel()

	got := Placeholders("dd status=none if=%{dir}%<file>s %{dir} 100%%")
	want := []string{"dir", "file"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Placeholders() = %v, want %v", got, want)
	}
	if got := Placeholders("gzip -c"); len(got) != 0 {
		t.Errorf("Placeholders(gzip -c) = %v, want none", got)
	}
}
