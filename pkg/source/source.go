// Package source turns a template argument (local path, git URL or
// abbreviation) into a fetchable source and materializes it on disk.
package source

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/goliatone/go-diecut/pkg/errs"
)

// Kind distinguishes local from versioned sources.
type Kind int

const (
	Local Kind = iota
	Git
)

func (k Kind) String() string {
	if k == Git {
		return "git"
	}
	return "local"
}

// Source is a resolved template location.
type Source struct {
	Kind Kind
	// Path is the absolute directory of a Local source.
	Path string
	// URL is the clone URL of a Git source.
	URL string
	// Ref is the branch, tag or commit to check out. Empty means the
	// remote default branch.
	Ref string
	// Original is the argument the source was resolved from. It is what the
	// answers file records so abbreviations survive.
	Original string
}

// Versioned reports whether old and new template revisions can differ.
func (s Source) Versioned() bool { return s.Kind == Git }

// Location returns the directory or URL of the source.
func (s Source) Location() string {
	if s.Kind == Git {
		return s.URL
	}
	return s.Path
}

type abbreviation struct {
	prefix string
	base   string
	suffix string
}

var builtinAbbreviations = []abbreviation{
	{"gh:", "https://github.com/", ".git"},
	{"gl:", "https://gitlab.com/", ".git"},
	{"bb:", "https://bitbucket.org/", ".git"},
	{"sr:", "https://git.sr.ht/", ""},
}

var gitSchemes = []string{"https://", "ssh://", "git://", "git@", "file://"}

// Resolve classifies arg. An existing directory on fsys wins; otherwise user
// abbreviations, built-in abbreviations (gh:, gl:, bb:, sr:) and git URLs are
// tried in that order. Plain http URLs are rejected.
func Resolve(fsys afero.Fs, arg string, abbreviations map[string]string) (Source, error) {
	if arg == "" {
		return Source{}, &errs.TemplateNotFoundError{Source: arg}
	}

	if ok, _ := afero.DirExists(fsys, arg); ok {
		path := arg
		if _, isOs := fsys.(*afero.OsFs); isOs {
			if abs, err := filepath.Abs(arg); err == nil {
				path = abs
			}
		}
		return Source{Kind: Local, Path: filepath.Clean(path), Original: arg}, nil
	}

	if strings.HasPrefix(arg, "http://") {
		return Source{}, &errs.UnsafeURLError{URL: arg, Reason: "plain http is not allowed; use https://"}
	}

	if url, ok, err := expandUser(arg, abbreviations); ok {
		if err != nil {
			return Source{}, err
		}
		return Source{Kind: Git, URL: url, Original: arg}, nil
	}

	for _, a := range builtinAbbreviations {
		if rest, ok := strings.CutPrefix(arg, a.prefix); ok {
			if rest == "" {
				return Source{}, &errs.InvalidAbbreviationError{Input: arg}
			}
			return Source{Kind: Git, URL: a.base + rest + a.suffix, Original: arg}, nil
		}
	}

	if isGitURL(arg) {
		return Source{Kind: Git, URL: arg, Original: arg}, nil
	}

	return Source{}, &errs.TemplateNotFoundError{Source: arg}
}

func expandUser(arg string, abbreviations map[string]string) (string, bool, error) {
	if len(abbreviations) == 0 {
		return "", false, nil
	}
	prefix, rest, found := strings.Cut(arg, ":")
	if !found {
		return "", false, nil
	}
	pattern, ok := abbreviations[prefix]
	if !ok {
		return "", false, nil
	}
	if rest == "" {
		return "", true, &errs.InvalidAbbreviationError{Input: arg}
	}
	return strings.ReplaceAll(pattern, "{}", rest), true, nil
}

func isGitURL(arg string) bool {
	for _, scheme := range gitSchemes {
		if strings.HasPrefix(arg, scheme) {
			return true
		}
	}
	return strings.HasSuffix(arg, ".git")
}
