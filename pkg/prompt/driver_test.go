package prompt

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-diecut/pkg/errs"
)

func TestTranslateSurveyErr(t *testing.T) {
	if err := translateSurveyErr(terminal.InterruptErr); !errors.Is(err, errs.ErrPromptCancelled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	wrapped := fmt.Errorf("ask: %w", terminal.InterruptErr)
	if err := translateSurveyErr(wrapped); !errors.Is(err, errs.ErrPromptCancelled) {
		t.Fatalf("expected cancellation for wrapped interrupt, got %v", err)
	}
	other := errors.New("eof")
	if err := translateSurveyErr(other); err != other {
		t.Fatalf("expected passthrough, got %v", err)
	}
}

func TestSelectionHelpers(t *testing.T) {
	options := []string{"MIT", "Apache-2.0", "BSD-3"}

	if got := indexOf(options, "BSD-3"); got != 2 {
		t.Fatalf("indexOf = %d", got)
	}
	if got := indexOf(options, "GPL"); got != -1 {
		t.Fatalf("indexOf missing = %d", got)
	}
	if diff := cmp.Diff([]int{0, 2}, indicesOf(options, []string{"BSD-3", "MIT"})); diff != "" {
		t.Fatalf("indicesOf mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Apache-2.0"}, defaultsFromIndices(options, []int{1, 7, -1})); diff != "" {
		t.Fatalf("defaultsFromIndices mismatch (-want +got):\n%s", diff)
	}
}

func TestNonInteractiveRefusesPrompts(t *testing.T) {
	var d Driver = NonInteractive{}
	ctx := context.Background()

	if _, err := d.Input(ctx, InputConfig{Message: "name"}); !errors.Is(err, ErrNotInteractive) {
		t.Fatalf("Input: %v", err)
	}
	if _, err := d.Confirm(ctx, ConfirmConfig{}); !errors.Is(err, ErrNotInteractive) {
		t.Fatalf("Confirm: %v", err)
	}
	if _, err := d.Select(ctx, SelectConfig{}); !errors.Is(err, ErrNotInteractive) {
		t.Fatalf("Select: %v", err)
	}
	if _, err := d.MultiSelect(ctx, SelectConfig{}); !errors.Is(err, ErrNotInteractive) {
		t.Fatalf("MultiSelect: %v", err)
	}
	if _, err := d.Password(ctx, InputConfig{}); !errors.Is(err, ErrNotInteractive) {
		t.Fatalf("Password: %v", err)
	}
}

func TestValidatorOpts(t *testing.T) {
	if opts := validatorOpts(nil); len(opts) != 0 {
		t.Fatalf("expected no options for nil validator")
	}
	if opts := validatorOpts(func(string) error { return nil }); len(opts) != 1 {
		t.Fatalf("expected one option, got %d", len(opts))
	}
}
