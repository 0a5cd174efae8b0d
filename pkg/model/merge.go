package model

import "fmt"

// MergeAction is the outcome of classifying one path in a three-way merge.
type MergeAction int

const (
	Unchanged MergeAction = iota
	UpdateFromTemplate
	AddFromTemplate
	MarkForRemoval
	KeepUser
	Conflict
)

func (a MergeAction) String() string {
	switch a {
	case Unchanged:
		return "unchanged"
	case UpdateFromTemplate:
		return "update"
	case AddFromTemplate:
		return "add"
	case MarkForRemoval:
		return "remove"
	case KeepUser:
		return "keep"
	case Conflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// MarshalText renders the action name for YAML/JSON reports.
func (a MergeAction) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses an action name written by MarshalText.
func (a *MergeAction) UnmarshalText(text []byte) error {
	for candidate := Unchanged; candidate <= Conflict; candidate++ {
		if candidate.String() == string(text) {
			*a = candidate
			return nil
		}
	}
	return fmt.Errorf("model: unknown merge action %q", text)
}

// FileMergeResult attaches an action to a project-relative path.
type FileMergeResult struct {
	Path   string      `yaml:"path"`
	Action MergeAction `yaml:"action"`
}
