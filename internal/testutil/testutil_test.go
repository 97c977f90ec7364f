// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMustSetenv_Restores(t *testing.T) {
	const key = "OT_TESTUTIL_PROBE"
	cleanupUnset := MustUnsetenv(t, key)
	defer cleanupUnset()

	cleanup := MustSetenv(t, key, "value")
	if got := os.Getenv(key); got != "value" {
		t.Fatalf("Getenv() = %q, want value", got)
	}
	cleanup()
	if _, ok := os.LookupEnv(key); ok {
		t.Error("variable still set after cleanup")
	}
}

func TestIsolateEnv(t *testing.T) {
	const key = "OT_TESTUTIL_LEAK"
	outer := MustSetenv(t, key, "x")
	defer outer()

	t.Run("isolated", func(t *testing.T) {
		home := IsolateEnv(t)
		if _, ok := os.LookupEnv(key); ok {
			t.Error("OT_ variable survived isolation")
		}
		if got := os.Getenv("XDG_CONFIG_HOME"); got != filepath.Join(home, ".config") {
			t.Errorf("XDG_CONFIG_HOME = %q", got)
		}
	})

	if got := os.Getenv(key); got != "x" {
		t.Errorf("variable not restored, got %q", got)
	}
}

func TestMustWriteFile(t *testing.T) {
	t.Parallel()

	path := MustWriteFile(t, t.TempDir(), "a/b/c.txt", "hello")
	if got := string(MustReadFile(t, path)); got != "hello" {
		t.Errorf("MustReadFile() = %q", got)
	}
}
