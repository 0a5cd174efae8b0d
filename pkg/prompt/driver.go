// Package prompt abstracts interactive terminal prompting so variable
// resolution can be driven by survey in a terminal and by scripted drivers in
// tests.
package prompt

import (
	"context"
	"errors"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/mattn/go-isatty"

	"github.com/goliatone/go-diecut/pkg/errs"
)

// ErrNotInteractive is returned by the fallback driver when a value would need
// to be prompted but no terminal is attached.
var ErrNotInteractive = errors.New("prompt: no terminal attached; pass --defaults or provide the value with --data")

// InputConfig configures a basic text input prompt.
type InputConfig struct {
	Message string
	Default string
	Help    string

	// Validator rejects an answer with a message shown to the user. Drivers
	// keep asking until it returns nil.
	Validator func(string) error
}

// ConfirmConfig configures a yes/no style prompt.
type ConfirmConfig struct {
	Message string
	Default bool
}

// SelectConfig configures a single or multi-select prompt.
type SelectConfig struct {
	Message      string
	Options      []string
	DefaultIndex int
	Defaults     []int // used for multi-select; indices into Options
}

// Driver abstracts the terminal implementation so resolution logic can be
// tested without a real terminal.
type Driver interface {
	Input(ctx context.Context, cfg InputConfig) (string, error)
	Password(ctx context.Context, cfg InputConfig) (string, error)
	Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error)
	Select(ctx context.Context, cfg SelectConfig) (int, error)
	MultiSelect(ctx context.Context, cfg SelectConfig) ([]int, error)
}

// IsInteractive reports whether stdin and stdout are both terminals.
func IsInteractive() bool {
	return isTerminal(os.Stdin.Fd()) && isTerminal(os.Stdout.Fd())
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Default returns a survey driver when a terminal is attached and a
// NonInteractive driver otherwise.
func Default() Driver {
	if IsInteractive() {
		return NewSurvey()
	}
	return NonInteractive{}
}

type surveyDriver struct{}

// NewSurvey returns a driver backed by AlecAivazis/survey.
func NewSurvey() Driver {
	return &surveyDriver{}
}

func (d *surveyDriver) Input(ctx context.Context, cfg InputConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Input{
		Message: cfg.Message,
		Help:    cfg.Help,
		Default: cfg.Default,
	}
	if err := survey.AskOne(prompt, &out, validatorOpts(cfg.Validator)...); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (d *surveyDriver) Password(ctx context.Context, cfg InputConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Password{
		Message: cfg.Message,
		Help:    cfg.Help,
	}
	if err := survey.AskOne(prompt, &out, validatorOpts(cfg.Validator)...); err != nil {
		return "", translateSurveyErr(err)
	}
	if out == "" {
		out = cfg.Default
	}
	return out, nil
}

func (d *surveyDriver) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var out bool
	prompt := &survey.Confirm{
		Message: cfg.Message,
		Default: cfg.Default,
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return false, translateSurveyErr(err)
	}
	return out, nil
}

func (d *surveyDriver) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var out string
	prompt := &survey.Select{
		Message: cfg.Message,
		Options: cfg.Options,
	}
	if cfg.DefaultIndex >= 0 && cfg.DefaultIndex < len(cfg.Options) {
		prompt.Default = cfg.Options[cfg.DefaultIndex]
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return 0, translateSurveyErr(err)
	}
	return indexOf(cfg.Options, out), nil
}

func (d *surveyDriver) MultiSelect(ctx context.Context, cfg SelectConfig) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []string
	prompt := &survey.MultiSelect{
		Message: cfg.Message,
		Options: cfg.Options,
	}
	if len(cfg.Defaults) > 0 {
		prompt.Default = defaultsFromIndices(cfg.Options, cfg.Defaults)
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return nil, translateSurveyErr(err)
	}
	return indicesOf(cfg.Options, out), nil
}

// NonInteractive fails every prompt with ErrNotInteractive.
type NonInteractive struct{}

func (NonInteractive) Input(context.Context, InputConfig) (string, error) {
	return "", ErrNotInteractive
}

func (NonInteractive) Password(context.Context, InputConfig) (string, error) {
	return "", ErrNotInteractive
}

func (NonInteractive) Confirm(context.Context, ConfirmConfig) (bool, error) {
	return false, ErrNotInteractive
}

func (NonInteractive) Select(context.Context, SelectConfig) (int, error) {
	return -1, ErrNotInteractive
}

func (NonInteractive) MultiSelect(context.Context, SelectConfig) ([]int, error) {
	return nil, ErrNotInteractive
}

func validatorOpts(fn func(string) error) []survey.AskOpt {
	if fn == nil {
		return nil
	}
	return []survey.AskOpt{survey.WithValidator(func(ans interface{}) error {
		s, _ := ans.(string)
		return fn(s)
	})}
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return errs.ErrPromptCancelled
	}
	return err
}

func indexOf(options []string, value string) int {
	for i, option := range options {
		if option == value {
			return i
		}
	}
	return -1
}

func indicesOf(options, values []string) []int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	var out []int
	for i, option := range options {
		if _, ok := seen[option]; ok {
			out = append(out, i)
		}
	}
	return out
}

func defaultsFromIndices(options []string, indices []int) []string {
	var out []string
	for _, idx := range indices {
		if idx >= 0 && idx < len(options) {
			out = append(out, options[idx])
		}
	}
	return out
}
