// SPDX-License-Identifier: MPL-2.0

package store

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/revops/ot/internal/runtime"
	"github.com/revops/ot/internal/testutil"
	"github.com/revops/ot/pkg/operator"
)

const testContent = "test content"

func digestOf(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func requireTools(t *testing.T) {
	t.Helper()
	testutil.RequireCommands(t, "sh", "tee", "sha256sum", "awk", "cat")
}

func runners() []runtime.Runner {
	return []runtime.Runner{
		runtime.NewNativeRuntime(runtime.WithShell("sh")),
		runtime.NewVirtualRuntime(),
	}
}

// fakeRunner answers every command with a fixed output and runs nothing.
type fakeRunner struct{ output string }

func (f fakeRunner) Name() string { return "fake" }

func (f fakeRunner) Run(context.Context, runtime.Request) (*runtime.Result, error) {
	return &runtime.Result{Output: []byte(f.output)}, nil
}

// runnerFunc runs nothing; it hands each request to a function.
type runnerFunc func(req runtime.Request) (*runtime.Result, error)

func (f runnerFunc) Name() string { return "func" }

func (f runnerFunc) Run(_ context.Context, req runtime.Request) (*runtime.Result, error) {
	return f(req)
}

// fileSizeLimitRunner runs every command under a 512-byte file size limit.
type fileSizeLimitRunner struct{ runtime.Runner }

func (r fileSizeLimitRunner) Run(ctx context.Context, req runtime.Request) (*runtime.Result, error) {
	req.Command = "ulimit -f 1; " + req.Command
	return r.Runner.Run(ctx, req)
}

// fixedTemp pins the temporary file name of s and returns its path.
func fixedTemp(s *Store) string {
	s.newID = func() string { return "fixed" }
	return filepath.Join(s.root, "temp-"+strconv.Itoa(s.pid)+"-fixed")
}

// newScriptedStore returns a store whose pipeline is replaced by fn, which
// receives the pinned temporary file path.
func newScriptedStore(root string, fn func(temp string, req runtime.Request) (*runtime.Result, error)) *Store {
	s := New(root, fakeRunner{})
	temp := fixedTemp(s)
	s.composer.Runner = runnerFunc(func(req runtime.Request) (*runtime.Result, error) {
		return fn(temp, req)
	})
	return s
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestStore_PutThenApplyRecord(t *testing.T) {
	requireTools(t)

	for _, r := range runners() {
		t.Run(r.Name(), func(t *testing.T) {
			t.Parallel()

			root := filepath.Join(t.TempDir(), ".ot")
			s := New(root, r)

			var rec bytes.Buffer
			if err := s.Put(context.Background(), strings.NewReader(testContent), &rec); err != nil {
				t.Fatalf("Put() error = %v", err)
			}

			op, err := operator.Deserialize(&rec)
			if err != nil {
				t.Fatalf("Deserialize() error = %v", err)
			}
			if op.Command != s.FetchTemplate() {
				t.Errorf("Command = %q, want %q", op.Command, s.FetchTemplate())
			}
			if op.Args[DigestArg] != digestOf(testContent) {
				t.Errorf("Args[%s] = %q, want %q", DigestArg, op.Args[DigestArg], digestOf(testContent))
			}
			if op.ContentLen != 0 {
				t.Errorf("ContentLen = %d, want 0", op.ContentLen)
			}

			got, err := op.Exec(context.Background(), operator.Env{Runner: r})
			if err != nil {
				t.Fatalf("Exec() error = %v", err)
			}
			if string(got) != testContent {
				t.Errorf("fetched %q, want %q", got, testContent)
			}

			var fetched bytes.Buffer
			if err := s.Fetch(context.Background(), digestOf(testContent), &fetched); err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if fetched.String() != testContent {
				t.Errorf("Fetch() = %q, want %q", fetched.String(), testContent)
			}
		})
	}
}

func TestStore_Deduplicates(t *testing.T) {
	requireTools(t)

	root := t.TempDir()
	s := New(root, runtime.NewNativeRuntime(runtime.WithShell("sh")))

	var first, second bytes.Buffer
	if err := s.Put(context.Background(), strings.NewReader(testContent), &first); err != nil {
		t.Fatalf("first Put() error = %v", err)
	}
	if err := s.Put(context.Background(), strings.NewReader(testContent), &second); err != nil {
		t.Fatalf("second Put() error = %v", err)
	}

	if first.String() != second.String() {
		t.Errorf("records differ:\n%q\n%q", first.String(), second.String())
	}
	names := listDir(t, root)
	if len(names) != 1 || names[0] != digestOf(testContent) {
		t.Errorf("storage dir = %v, want only %s", names, digestOf(testContent))
	}
}

func TestStore_PathWithSpaces(t *testing.T) {
	requireTools(t)

	root := filepath.Join(t.TempDir(), "my store 100%")
	s := New(root, runtime.NewVirtualRuntime())

	var rec bytes.Buffer
	if err := s.Put(context.Background(), strings.NewReader("spaced"), &rec); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	op, err := operator.Deserialize(&rec)
	if err != nil {
		t.Fatal(err)
	}
	got, err := op.Exec(context.Background(), operator.Env{Runner: runtime.NewVirtualRuntime()})
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if string(got) != "spaced" {
		t.Errorf("fetched %q, want %q", got, "spaced")
	}
}

func TestFinalizer_DedupRemovesTemp(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	s := New(root, fakeRunner{})
	digest := digestOf("x")
	dest := filepath.Join(root, digest)
	temp := filepath.Join(root, "temp-1-a")
	for _, p := range []string{dest, temp} {
		if err := os.WriteFile(p, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	out, args, err := (&finalizer{store: s, temp: temp, want: digest}).Finalize(context.Background(), []byte(digest), operator.Args{})
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if len(out) != 0 {
		t.Errorf("output = %q, want empty", out)
	}
	if args[DigestArg] != digest {
		t.Errorf("args = %v", args)
	}
	if _, err := os.Stat(temp); !os.IsNotExist(err) {
		t.Error("temporary file was not removed")
	}
}

func TestStore_InvalidDigest(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	s := New(root, fakeRunner{output: "not-a-digest"})
	s.newID = func() string { return "fixed" }
	temp := filepath.Join(root, "temp-"+strconv.Itoa(s.pid)+"-fixed")
	if err := os.WriteFile(temp, []byte("partial"), 0o600); err != nil {
		t.Fatal(err)
	}

	var rec bytes.Buffer
	err := s.Put(context.Background(), strings.NewReader("x"), &rec)
	if !errors.Is(err, ErrPersistence) || !errors.Is(err, ErrInvalidDigest) {
		t.Fatalf("Put() error = %v, want ErrPersistence wrapping ErrInvalidDigest", err)
	}
	if rec.Len() != 0 {
		t.Errorf("Put() wrote %q on failure", rec.String())
	}
	if names := listDir(t, root); len(names) != 0 {
		t.Errorf("storage dir = %v, want empty", names)
	}
}

func TestStore_MoveFailureLeavesNoDestination(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	digest := digestOf("never written")
	// The fake runner never runs tee, so there is no temporary file to verify or move.
	s := New(root, fakeRunner{output: digest})

	err := s.Put(context.Background(), strings.NewReader("never written"), &bytes.Buffer{})
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("Put() error = %v, want ErrPersistence", err)
	}
	if _, err := os.Stat(filepath.Join(root, digest)); !os.IsNotExist(err) {
		t.Error("destination exists after failed move")
	}
}

func TestStore_ShortTempFileIsRejected(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	content := strings.Repeat("0123456789abcdef", 64)
	s := newScriptedStore(root, func(temp string, req runtime.Request) (*runtime.Result, error) {
		// tee lost the tail of the input but sha256sum saw all of it.
		if err := os.WriteFile(temp, req.Stdin[:512], 0o600); err != nil {
			return nil, err
		}
		return &runtime.Result{Output: []byte(digestOf(string(req.Stdin)))}, nil
	})

	var rec bytes.Buffer
	err := s.Put(context.Background(), strings.NewReader(content), &rec)
	if !errors.Is(err, ErrPersistence) || !errors.Is(err, ErrDigestMismatch) {
		t.Fatalf("Put() error = %v, want ErrPersistence wrapping ErrDigestMismatch", err)
	}
	if rec.Len() != 0 {
		t.Errorf("Put() wrote %q on failure", rec.String())
	}
	if _, err := os.Stat(filepath.Join(root, digestOf(content))); !os.IsNotExist(err) {
		t.Error("truncated content was stored under the digest of the full input")
	}
	if names := listDir(t, root); len(names) != 0 {
		t.Errorf("storage dir = %v, want empty", names)
	}
}

func TestStore_PipelineDigestMustMatchInput(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	other := digestOf("something else")
	s := newScriptedStore(root, func(temp string, req runtime.Request) (*runtime.Result, error) {
		if err := os.WriteFile(temp, req.Stdin, 0o600); err != nil {
			return nil, err
		}
		return &runtime.Result{Output: []byte(other)}, nil
	})

	err := s.Put(context.Background(), strings.NewReader(testContent), &bytes.Buffer{})
	if !errors.Is(err, ErrDigestMismatch) {
		t.Fatalf("Put() error = %v, want ErrDigestMismatch", err)
	}
	if names := listDir(t, root); len(names) != 0 {
		t.Errorf("storage dir = %v, want empty", names)
	}
}

func TestStore_FileSizeLimitFailsPut(t *testing.T) {
	requireTools(t)
	t.Parallel()

	root := t.TempDir()
	content := strings.Repeat("x", 64<<10)
	s := New(root, fileSizeLimitRunner{runtime.NewNativeRuntime(runtime.WithShell("sh"))})

	var rec bytes.Buffer
	err := s.Put(context.Background(), strings.NewReader(content), &rec)
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("Put() error = %v, want ErrPersistence", err)
	}
	if rec.Len() != 0 {
		t.Errorf("Put() wrote %q on failure", rec.String())
	}
	if names := listDir(t, root); len(names) != 0 {
		t.Errorf("storage dir = %v, want empty", names)
	}
}

func TestStore_RepairsDamagedContent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dest := filepath.Join(root, digestOf(testContent))
	if err := os.WriteFile(dest, []byte("test"), 0o600); err != nil {
		t.Fatal(err)
	}
	s := newScriptedStore(root, func(temp string, req runtime.Request) (*runtime.Result, error) {
		if err := os.WriteFile(temp, req.Stdin, 0o600); err != nil {
			return nil, err
		}
		return &runtime.Result{Output: []byte(digestOf(string(req.Stdin)))}, nil
	})

	if err := s.Put(context.Background(), strings.NewReader(testContent), &bytes.Buffer{}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if got := string(testutil.MustReadFile(t, dest)); got != testContent {
		t.Errorf("stored content = %q, want %q", got, testContent)
	}
	if names := listDir(t, root); len(names) != 1 {
		t.Errorf("storage dir = %v, want only %s", names, digestOf(testContent))
	}
}

func TestStore_UnencodableRootFailsBeforeRunning(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "a:b")
	ran := false
	s := New(root, runnerFunc(func(runtime.Request) (*runtime.Result, error) {
		ran = true
		return &runtime.Result{}, nil
	}))

	err := s.Put(context.Background(), strings.NewReader(testContent), &bytes.Buffer{})
	if !errors.Is(err, operator.ErrProtocol) {
		t.Fatalf("Put() error = %v, want ErrProtocol", err)
	}
	if ran {
		t.Error("pipeline ran for an unusable storage dir")
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Error("storage dir was created")
	}
}

func TestStore_Fetch(t *testing.T) {
	t.Parallel()

	s := New(t.TempDir(), fakeRunner{})
	if err := s.Fetch(context.Background(), "../etc/passwd", &bytes.Buffer{}); !errors.Is(err, ErrInvalidDigest) {
		t.Errorf("Fetch(bad) error = %v, want ErrInvalidDigest", err)
	}
	if err := s.Fetch(context.Background(), digestOf("missing"), &bytes.Buffer{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Fetch(missing) error = %v, want ErrNotFound", err)
	}
}

func TestStore_Plan(t *testing.T) {
	t.Parallel()

	s := New("/var/lib/ot", fakeRunner{})
	s.pid = 42
	s.newID = func() string { return "id" }

	plan := s.plan(s.tempPath(), []byte(testContent))
	if got := plan.Command(); !strings.HasPrefix(got, "tee ") || !strings.Contains(got, "/var/lib/ot/temp-42-id") ||
		!strings.Contains(got, " | sha256sum -b | ") {
		t.Errorf("Command() = %q", got)
	}
	if !strings.HasPrefix(plan.Inverse, "cat ") || !strings.HasSuffix(plan.Inverse, "%{sha256sum}") {
		t.Errorf("Inverse = %q", plan.Inverse)
	}
	if plan.Inverse != s.FetchTemplate() {
		t.Errorf("Inverse = %q, want FetchTemplate() %q", plan.Inverse, s.FetchTemplate())
	}
}

func TestValidateDigest(t *testing.T) {
	t.Parallel()

	if err := ValidateDigest(digestOf("a")); err != nil {
		t.Errorf("ValidateDigest(valid) error = %v", err)
	}
	for _, bad := range []string{"", "abc", strings.ToUpper(digestOf("a")), digestOf("a") + "\n"} {
		if err := ValidateDigest(bad); !errors.Is(err, ErrInvalidDigest) {
			t.Errorf("ValidateDigest(%q) error = %v", bad, err)
		}
	}
}
