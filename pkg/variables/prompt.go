package variables

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-diecut/pkg/model"
	"github.com/goliatone/go-diecut/pkg/prompt"
)

// ask prompts for one variable. Answer checks run as prompt validators, so
// the driver re-asks until the answer is acceptable.
func (r *Resolver) ask(ctx context.Context, spec model.VariableSpec) (model.Value, error) {
	switch spec.Kind {
	case model.VariableBool:
		return r.askBool(ctx, spec)
	case model.VariableInt:
		return r.askInt(ctx, spec)
	case model.VariableFloat:
		return r.askFloat(ctx, spec)
	case model.VariableSelect:
		return r.askSelect(ctx, spec)
	case model.VariableMultiselect:
		return r.askMultiselect(ctx, spec)
	default:
		return r.askString(ctx, spec)
	}
}

func (r *Resolver) askString(ctx context.Context, spec model.VariableSpec) (model.Value, error) {
	validate, help, err := patternValidator(spec)
	if err != nil {
		return model.Value{}, err
	}
	cfg := prompt.InputConfig{
		Message:   spec.PromptText(),
		Default:   defaultString(spec),
		Help:      help,
		Validator: validate,
	}

	var answer string
	if spec.Secret {
		answer, err = r.driver.Password(ctx, cfg)
	} else {
		answer, err = r.driver.Input(ctx, cfg)
	}
	if err != nil {
		return model.Value{}, err
	}
	if validate != nil {
		if err := validate(answer); err != nil {
			return model.Value{}, fmt.Errorf("variables: %s: %w", spec.Name, err)
		}
	}
	return model.String(answer), nil
}

// patternValidator checks answers against the declared validation pattern.
// It returns a nil validator when the variable declares none.
func patternValidator(spec model.VariableSpec) (func(string) error, string, error) {
	if spec.Validation == "" {
		return nil, "", nil
	}
	re, err := regexp.Compile(spec.Validation)
	if err != nil {
		return nil, "", fmt.Errorf("variables: %s: invalid validation pattern: %w", spec.Name, err)
	}
	message := spec.ValidationMessage
	if message == "" {
		message = "Must match pattern: " + spec.Validation
	}
	return func(answer string) error {
		if !re.MatchString(answer) {
			return errors.New(message)
		}
		return nil
	}, message, nil
}

func (r *Resolver) askBool(ctx context.Context, spec model.VariableSpec) (model.Value, error) {
	def := false
	if spec.Default != nil {
		def, _ = spec.Default.AsBool()
	}
	answer, err := r.driver.Confirm(ctx, prompt.ConfirmConfig{
		Message: spec.PromptText(),
		Default: def,
	})
	if err != nil {
		return model.Value{}, err
	}
	return model.Bool(answer), nil
}

func parseIntAnswer(input string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(input), 10, 64)
	if err != nil {
		return 0, errors.New("Must be a valid integer")
	}
	return n, nil
}

func parseFloatAnswer(input string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("Must be a valid number")
	}
	return f, nil
}

func (r *Resolver) askInt(ctx context.Context, spec model.VariableSpec) (model.Value, error) {
	input, err := r.driver.Input(ctx, prompt.InputConfig{
		Message: spec.PromptText(),
		Default: defaultString(spec),
		Validator: func(s string) error {
			_, err := parseIntAnswer(s)
			return err
		},
	})
	if err != nil {
		return model.Value{}, err
	}
	n, err := parseIntAnswer(input)
	if err != nil {
		return model.Value{}, fmt.Errorf("variables: %s: %w", spec.Name, err)
	}
	return model.Int(n), nil
}

func (r *Resolver) askFloat(ctx context.Context, spec model.VariableSpec) (model.Value, error) {
	input, err := r.driver.Input(ctx, prompt.InputConfig{
		Message: spec.PromptText(),
		Default: defaultString(spec),
		Validator: func(s string) error {
			_, err := parseFloatAnswer(s)
			return err
		},
	})
	if err != nil {
		return model.Value{}, err
	}
	f, err := parseFloatAnswer(input)
	if err != nil {
		return model.Value{}, fmt.Errorf("variables: %s: %w", spec.Name, err)
	}
	return model.Float(f), nil
}

func (r *Resolver) askSelect(ctx context.Context, spec model.VariableSpec) (model.Value, error) {
	defaultIdx := -1
	if spec.Default != nil {
		if s, ok := spec.Default.AsString(); ok {
			defaultIdx = indexOf(spec.Choices, s)
		}
	}
	idx, err := r.driver.Select(ctx, prompt.SelectConfig{
		Message:      spec.PromptText(),
		Options:      spec.Choices,
		DefaultIndex: defaultIdx,
	})
	if err != nil {
		return model.Value{}, err
	}
	if idx < 0 || idx >= len(spec.Choices) {
		return model.Value{}, fmt.Errorf("variables: invalid %s selection %d", spec.Name, idx)
	}
	return model.String(spec.Choices[idx]), nil
}

func (r *Resolver) askMultiselect(ctx context.Context, spec model.VariableSpec) (model.Value, error) {
	var defaults []int
	if spec.Default != nil {
		if items, ok := spec.Default.AsList(); ok {
			for _, item := range items {
				if s, ok := item.AsString(); ok {
					if idx := indexOf(spec.Choices, s); idx >= 0 {
						defaults = append(defaults, idx)
					}
				}
			}
		}
	}
	indices, err := r.driver.MultiSelect(ctx, prompt.SelectConfig{
		Message:  spec.PromptText(),
		Options:  spec.Choices,
		Defaults: defaults,
	})
	if err != nil {
		return model.Value{}, err
	}
	picked := make([]string, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(spec.Choices) {
			return model.Value{}, fmt.Errorf("variables: invalid %s selection %d", spec.Name, idx)
		}
		picked = append(picked, spec.Choices[idx])
	}
	return model.Strings(picked), nil
}

func defaultString(spec model.VariableSpec) string {
	if spec.Default == nil {
		return ""
	}
	return spec.Default.String()
}

func indexOf(options []string, value string) int {
	for i, option := range options {
		if option == value {
			return i
		}
	}
	return -1
}
