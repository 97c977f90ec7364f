// SPDX-License-Identifier: MPL-2.0

package store

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"mvdan.cc/sh/v3/syntax"

	"github.com/revops/ot/internal/compose"
	"github.com/revops/ot/internal/runtime"
	"github.com/revops/ot/pkg/operator"
)

const (
	// DigestArg is the inverse argument carrying the content digest.
	DigestArg = "sha256sum"

	tempPrefix = "temp-"
	dirPerm    = 0o700
)

var (
	// ErrPersistence marks a failure to write, move or remove stored content.
	ErrPersistence = errors.New("persistence error")
	// ErrInvalidDigest is returned for anything that is not a lowercase hex SHA-256.
	ErrInvalidDigest = errors.New("invalid digest")
	// ErrNotFound is returned by Fetch when no content is stored under a digest.
	ErrNotFound = errors.New("content not found")
	// ErrDigestMismatch marks a temporary file or pipeline digest that does
	// not match the content being stored.
	ErrDigestMismatch = errors.New("digest mismatch")

	digestPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)
)

type (
	// Store is a content-addressable directory of blobs.
	Store struct {
		root     string
		composer *compose.Composer
		logger   *slog.Logger
		pid      int
		newID    func() string
	}

	// Option configures a Store.
	Option func(*Store)

	finalizer struct {
		store *Store
		temp  string
		// want is the digest of the content handed to the pipeline.
		want string
	}
)

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithStderr forwards the pipeline commands' standard error to w.
func WithStderr(w io.Writer) Option {
	return func(s *Store) { s.composer.Stderr = w }
}

// New returns a store rooted at root, running its pipelines with runner.
func New(root string, runner runtime.Runner, opts ...Option) *Store {
	s := &Store{
		root:     filepath.Clean(root),
		composer: &compose.Composer{Runner: runner},
		logger:   slog.Default(),
		pid:      os.Getpid(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.composer.Logger = s.logger
	return s
}

// Root returns the storage directory.
func (s *Store) Root() string {
	return s.root
}

// Path returns the content-addressed location of digest.
func (s *Store) Path(digest string) (string, error) {
	if err := ValidateDigest(digest); err != nil {
		return "", err
	}
	return filepath.Join(s.root, digest), nil
}

// FetchTemplate is the inverse command template emitted by Put.
func (s *Store) FetchTemplate() string {
	return "cat " + quote(s.root+string(filepath.Separator)) + "%{" + DigestArg + "}"
}

// tempPath names a temporary file unique to this process and invocation.
func (s *Store) tempPath() string {
	return filepath.Join(s.root, fmt.Sprintf("%s%d-%s", tempPrefix, s.pid, s.newID()))
}

func (s *Store) plan(temp string, content []byte) compose.Plan {
	return compose.Plan{
		Name: "store",
		Stages: []string{
			"tee " + quote(temp),
			"sha256sum -b",
			"awk '{printf $1}'",
		},
		Inverse:   s.FetchTemplate(),
		Finalizer: &finalizer{store: s, temp: temp, want: hexSum(content)},
	}
}

// Put stores the content of in and writes the fetch record to out. Content
// is only moved to its address once the temporary copy hashes to the
// digest of the input.
func (s *Store) Put(ctx context.Context, in io.Reader, out io.Writer) error {
	if err := operator.CheckTemplate(s.FetchTemplate()); err != nil {
		return fmt.Errorf("storage dir %s: %w", s.root, err)
	}
	content, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("%w: read input: %w", operator.ErrExecution, err)
	}
	if err := os.MkdirAll(s.root, dirPerm); err != nil {
		return fmt.Errorf("%w: create storage dir: %w", ErrPersistence, err)
	}

	temp := s.tempPath()
	rec, err := s.composer.Record(ctx, s.plan(temp, content), bytes.NewReader(content))
	if err != nil {
		removeQuietly(temp, s.logger)
		return err
	}
	if _, err := out.Write(rec); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// Fetch writes the content stored under digest to out by running the
// fetch command.
func (s *Store) Fetch(ctx context.Context, digest string, out io.Writer) error {
	path, err := s.Path(digest)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, digest)
		}
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	op := operator.New(s.FetchTemplate(), operator.Args{DigestArg: digest}, nil)
	content, err := op.Exec(ctx, operator.Env{Runner: s.composer.Runner, Stderr: s.composer.Stderr, Logger: s.logger})
	if err != nil {
		return err
	}
	_, err = out.Write(content)
	return err
}

// Finalize moves the verified temporary file to its content address, or
// drops it if intact content is already stored there. A stored copy that
// no longer matches its address is replaced.
func (f *finalizer) Finalize(_ context.Context, fwdOutput []byte, invArgs operator.Args) ([]byte, operator.Args, error) {
	digest := string(fwdOutput)
	dest, err := f.store.Path(digest)
	if err != nil {
		removeQuietly(f.temp, f.store.logger)
		return nil, nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if err := f.verify(digest); err != nil {
		removeQuietly(f.temp, f.store.logger)
		return nil, nil, err
	}

	if existing, err := fileSum(dest); err == nil && existing == digest {
		f.store.logger.Debug("content already stored", "digest", digest)
		if err := os.Remove(f.temp); err != nil {
			return nil, nil, fmt.Errorf("%w: remove temporary file: %w", ErrPersistence, err)
		}
	} else {
		if err := os.Rename(f.temp, dest); err != nil {
			removeQuietly(f.temp, f.store.logger)
			return nil, nil, fmt.Errorf("%w: move to %s: %w", ErrPersistence, dest, err)
		}
		f.store.logger.Debug("content stored", "digest", digest, "path", dest)
	}

	return nil, invArgs.With(DigestArg, digest), nil
}

// verify checks that the pipeline digest is the digest of the input and
// that the temporary file holds exactly that content.
func (f *finalizer) verify(digest string) error {
	if digest != f.want {
		return fmt.Errorf("%w: %w: pipeline reported %s, input is %s", ErrPersistence, ErrDigestMismatch, digest, f.want)
	}
	got, err := fileSum(f.temp)
	if err != nil {
		return fmt.Errorf("%w: read temporary file: %w", ErrPersistence, err)
	}
	if got != digest {
		return fmt.Errorf("%w: %w: temporary file hashes to %s, want %s", ErrPersistence, ErrDigestMismatch, got, digest)
	}
	return nil
}

func hexSum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func fileSum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ValidateDigest checks that digest is 64 lowercase hex characters.
func ValidateDigest(digest string) error {
	if !digestPattern.MatchString(digest) {
		return fmt.Errorf("%w: %q", ErrInvalidDigest, digest)
	}
	return nil
}

// quote shell-quotes a path for use inside a command template, doubling
// '%' so the template substitution leaves it intact.
func quote(s string) string {
	q, err := syntax.Quote(s, syntax.LangPOSIX)
	if err != nil {
		// Only strings with NUL bytes fail to quote; paths cannot hold them.
		q = s
	}
	return strings.ReplaceAll(q, "%", "%%")
}

func removeQuietly(path string, logger *slog.Logger) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("failed to remove temporary file", "path", path, "error", err)
	}
}
