package source

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/spf13/afero"

	"github.com/goliatone/go-diecut/pkg/errs"
	"github.com/goliatone/go-diecut/pkg/logging"
)

// Checkout is a template available on disk.
type Checkout struct {
	Dir string
	// Commit is the resolved commit of a git checkout, empty for local
	// sources.
	Commit  string
	cleanup func() error
}

// Close removes an ephemeral checkout. It is a no-op for local sources.
func (c Checkout) Close() error {
	if c.cleanup == nil {
		return nil
	}
	return c.cleanup()
}

// Fetcher materializes a Source.
type Fetcher interface {
	Fetch(ctx context.Context, src Source) (Checkout, error)
}

// LocalFetcher returns local directories unchanged.
type LocalFetcher struct{}

func (LocalFetcher) Fetch(_ context.Context, src Source) (Checkout, error) {
	if src.Kind != Local {
		return Checkout{}, fmt.Errorf("source: local fetcher cannot fetch %s source %s", src.Kind, src.Location())
	}
	return Checkout{Dir: src.Path}, nil
}

// Runner executes git with args inside dir and returns stdout.
type Runner func(ctx context.Context, dir string, args ...string) (string, error)

// ExecGit runs the git binary.
func ExecGit(ctx context.Context, dir string, args ...string) (string, error) {
	fullArgs := append([]string{"-C", dir}, args...)
	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, "git", fullArgs...)
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return "", fmt.Errorf("git %s in %s: %w (stderr: %s)",
			strings.Join(args, " "), dir, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// GitOption configures a GitFetcher.
type GitOption func(*GitFetcher)

// WithRunner replaces the git runner.
func WithRunner(run Runner) GitOption {
	return func(g *GitFetcher) {
		if run != nil {
			g.run = run
		}
	}
}

// WithGitFs sets the file system ephemeral checkouts are created on.
func WithGitFs(fsys afero.Fs) GitOption {
	return func(g *GitFetcher) {
		if fsys != nil {
			g.fs = fsys
		}
	}
}

// WithTempRoot places checkouts under dir instead of the system temp dir.
func WithTempRoot(dir string) GitOption {
	return func(g *GitFetcher) {
		g.tempRoot = dir
	}
}

// GitFetcher shallow-fetches a single ref into an ephemeral directory.
type GitFetcher struct {
	run      Runner
	fs       afero.Fs
	tempRoot string
}

// NewGitFetcher returns a GitFetcher using the git binary.
func NewGitFetcher(options ...GitOption) *GitFetcher {
	g := &GitFetcher{run: ExecGit, fs: afero.NewOsFs()}
	for _, opt := range options {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Fetch checks out src.Ref (or the remote HEAD) at depth one. Fetching by
// ref rather than cloning a branch lets tags and commit ids work alike.
func (g *GitFetcher) Fetch(ctx context.Context, src Source) (Checkout, error) {
	logger := logging.GetLogger("source")

	if src.Kind != Git {
		return Checkout{}, fmt.Errorf("source: git fetcher cannot fetch %s source %s", src.Kind, src.Location())
	}
	if strings.HasPrefix(src.URL, "http://") {
		return Checkout{}, &errs.UnsafeURLError{URL: src.URL, Reason: "plain http is not allowed; use https://"}
	}

	if g.tempRoot != "" {
		if err := g.fs.MkdirAll(g.tempRoot, 0o755); err != nil {
			return Checkout{}, errs.IO(err, "creating %s", g.tempRoot)
		}
	}
	dir, err := afero.TempDir(g.fs, g.tempRoot, "diecut-template-")
	if err != nil {
		return Checkout{}, errs.IO(err, "creating checkout directory")
	}
	checkout := Checkout{Dir: dir, cleanup: func() error { return g.fs.RemoveAll(dir) }}

	ref := src.Ref
	if ref == "" {
		ref = "HEAD"
	}
	steps := [][]string{
		{"init", "--quiet"},
		{"remote", "add", "origin", src.URL},
		{"fetch", "--quiet", "--depth", "1", "origin", ref},
		{"checkout", "--quiet", "FETCH_HEAD"},
	}
	for _, args := range steps {
		if _, err := g.run(ctx, dir, args...); err != nil {
			_ = checkout.Close()
			return Checkout{}, fmt.Errorf("source: fetching %s at %s: %w", src.URL, ref, err)
		}
	}

	out, err := g.run(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		_ = checkout.Close()
		return Checkout{}, fmt.Errorf("source: resolving commit of %s: %w", src.URL, err)
	}
	checkout.Commit = strings.TrimSpace(out)

	logger.Debug().Str("url", src.URL).Str("ref", ref).Str("commit", checkout.Commit).Msg("template fetched")
	return checkout, nil
}

// Dispatcher picks the local or git fetcher by source kind.
type Dispatcher struct {
	Local Fetcher
	Git   Fetcher
}

// NewFetcher returns a Dispatcher with the default local and git fetchers.
func NewFetcher(options ...GitOption) *Dispatcher {
	return &Dispatcher{Local: LocalFetcher{}, Git: NewGitFetcher(options...)}
}

func (d *Dispatcher) Fetch(ctx context.Context, src Source) (Checkout, error) {
	if src.Kind == Git {
		return d.Git.Fetch(ctx, src)
	}
	return d.Local.Fetch(ctx, src)
}
