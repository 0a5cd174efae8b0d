package model

import (
	"regexp"

	"github.com/goliatone/go-diecut/pkg/errs"
)

// VariableKind is the declared type of a template variable.
type VariableKind string

const (
	VariableString      VariableKind = "string"
	VariableBool        VariableKind = "bool"
	VariableInt         VariableKind = "int"
	VariableFloat       VariableKind = "float"
	VariableSelect      VariableKind = "select"
	VariableMultiselect VariableKind = "multiselect"
)

// Valid reports whether k is a known kind.
func (k VariableKind) Valid() bool {
	switch k {
	case VariableString, VariableBool, VariableInt, VariableFloat, VariableSelect, VariableMultiselect:
		return true
	default:
		return false
	}
}

// IsChoice reports whether the kind picks from a choice set.
func (k VariableKind) IsChoice() bool {
	return k == VariableSelect || k == VariableMultiselect
}

// VariableSpec declares one template variable.
type VariableSpec struct {
	Name string
	Kind VariableKind

	// Prompt is the question shown to the user; the name is used when empty.
	Prompt string

	// Default is nil when the variable declares no default.
	Default *Value

	Choices []string

	// Validation is a regular expression the answer must match.
	Validation        string
	ValidationMessage string

	// When gates whether the variable is prompted and included at all.
	When string

	// Computed derives the value from other variables; computed variables are
	// never prompted.
	Computed string

	// Secret values are never persisted to the answers file.
	Secret bool
}

// IsComputed reports whether the variable derives its value from an
// expression.
func (s VariableSpec) IsComputed() bool {
	return s.Computed != ""
}

// PromptText returns the text to display when prompting.
func (s VariableSpec) PromptText() string {
	if s.Prompt != "" {
		return s.Prompt
	}
	return s.Name
}

// Validate checks the declaration for internal consistency.
func (s VariableSpec) Validate() error {
	if s.Name == "" {
		return &errs.InvalidVariableError{Name: s.Name, Reason: "name is required"}
	}
	if !s.Kind.Valid() {
		return &errs.InvalidVariableError{Name: s.Name, Reason: "unknown type " + string(s.Kind)}
	}
	if s.Kind.IsChoice() && len(s.Choices) == 0 {
		return &errs.InvalidVariableError{Name: s.Name, Reason: "select/multiselect variables must have 'choices' defined"}
	}
	if s.IsComputed() && s.Prompt != "" {
		return &errs.InvalidVariableError{Name: s.Name, Reason: "computed variables should not have a 'prompt' field"}
	}
	if s.Validation != "" {
		if _, err := regexp.Compile(s.Validation); err != nil {
			return &errs.InvalidVariableError{Name: s.Name, Reason: "invalid validation pattern: " + err.Error()}
		}
	}
	return nil
}
