// Package errs defines the error values shared by the resolution, rendering,
// merge and update layers. Every type supports errors.As so callers (usually
// the CLI) can map failures onto messages and exit codes.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPromptCancelled signals the user aborted an interactive prompt.
var ErrPromptCancelled = errors.New("prompt cancelled by user")

// EvalKind identifies which evaluation step produced an EvalError.
type EvalKind string

const (
	EvalWhen      EvalKind = "when"
	EvalComputed  EvalKind = "computed"
	EvalPath      EvalKind = "path"
	EvalContent   EvalKind = "content"
	EvalCondition EvalKind = "condition"
)

// EvalError wraps an evaluator syntax or execution failure with the variable
// name or relative path that triggered it.
type EvalError struct {
	Kind EvalKind
	Name string
	Err  error
}

func (e *EvalError) Error() string {
	switch e.Kind {
	case EvalWhen:
		return fmt.Sprintf("invalid 'when' expression for variable %q: %v", e.Name, e.Err)
	case EvalComputed:
		return fmt.Sprintf("invalid computed expression for variable %q: %v", e.Name, e.Err)
	case EvalPath:
		return fmt.Sprintf("failed to render path %q: %v", e.Name, e.Err)
	case EvalCondition:
		return fmt.Sprintf("invalid conditional file rule %q: %v", e.Name, e.Err)
	default:
		return fmt.Sprintf("failed to render %q: %v", e.Name, e.Err)
	}
}

func (e *EvalError) Unwrap() error { return e.Err }

// Eval builds an EvalError, returning nil when err is nil.
func Eval(kind EvalKind, name string, err error) error {
	if err == nil {
		return nil
	}
	return &EvalError{Kind: kind, Name: name, Err: err}
}

// IOError tags a filesystem failure with a human readable context.
type IOError struct {
	Context string
	Err     error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error: %s: %v", e.Context, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// IO wraps err with context, returning nil when err is nil.
func IO(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &IOError{Context: fmt.Sprintf(format, args...), Err: err}
}

// ContentDirMissingError reports a template without its content directory.
type ContentDirMissingError struct {
	Path string
}

func (e *ContentDirMissingError) Error() string {
	return fmt.Sprintf("template directory not found: %s", e.Path)
}

// NoAnswersError reports a project without a saved answers file.
type NoAnswersError struct {
	Path string
}

func (e *NoAnswersError) Error() string {
	return fmt.Sprintf("no answers file found in %s; was this project generated by diecut?", e.Path)
}

// ConfigNotFoundError reports a template directory without diecut.toml.
type ConfigNotFoundError struct {
	Path string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("template config not found at %s", e.Path)
}

// OutputExistsError reports a non-empty output directory when overwriting
// was not requested.
type OutputExistsError struct {
	Path string
}

func (e *OutputExistsError) Error() string {
	return fmt.Sprintf("output directory already exists: %s (use --overwrite to replace it)", e.Path)
}

// InvalidVariableError reports an inconsistent variable declaration.
type InvalidVariableError struct {
	Name   string
	Reason string
}

func (e *InvalidVariableError) Error() string {
	return fmt.Sprintf("invalid variable definition for %q: %s", e.Name, e.Reason)
}

// GlobPatternError reports a malformed glob.
type GlobPatternError struct {
	Pattern string
	Err     error
}

func (e *GlobPatternError) Error() string {
	return fmt.Sprintf("glob pattern error: %s: %v", e.Pattern, e.Err)
}

func (e *GlobPatternError) Unwrap() error { return e.Err }

// ComputedCycleError reports computed variables that reference each other
// and therefore can never resolve.
type ComputedCycleError struct {
	Names []string
}

func (e *ComputedCycleError) Error() string {
	return fmt.Sprintf("computed variables reference each other in a cycle: %s", strings.Join(e.Names, " -> "))
}

// InvalidAbbreviationError reports a source abbreviation without a path,
// e.g. "gh:".
type InvalidAbbreviationError struct {
	Input string
}

func (e *InvalidAbbreviationError) Error() string {
	return fmt.Sprintf("invalid template abbreviation %q: expected <prefix>:<path>", e.Input)
}

// UnsafeURLError reports a template URL diecut refuses to fetch.
type UnsafeURLError struct {
	URL    string
	Reason string
}

func (e *UnsafeURLError) Error() string {
	return fmt.Sprintf("unsafe template url %s: %s", e.URL, e.Reason)
}

// TemplateNotFoundError reports a source argument that is neither a known
// URL form nor an existing directory.
type TemplateNotFoundError struct {
	Source string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("template not found: %s", e.Source)
}
