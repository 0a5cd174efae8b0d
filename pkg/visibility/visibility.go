// Package visibility evaluates "when" predicates that gate variables and
// conditional files.
package visibility

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-diecut/pkg/render/template"
)

// Evaluator determines whether a named entry is visible based on a rule
// string and the variables resolved so far.
type Evaluator interface {
	Eval(name, rule string, ctx Context) (bool, error)
}

// Context provides inputs to an Evaluator.
type Context struct {
	Values map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(name, rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(name, rule string, ctx Context) (bool, error) {
	return fn(name, rule, ctx)
}

// TemplateEvaluator runs predicates through the expression evaluator as
// `{% if rule %}true{% else %}false{% endif %}`. Undefined names are falsy.
type TemplateEvaluator struct {
	engine template.Evaluator
	prefix string
}

var _ Evaluator = (*TemplateEvaluator)(nil)

// NewTemplateEvaluator wraps engine. Registered names are prefixed with
// prefix so they never clash with file templates.
func NewTemplateEvaluator(engine template.Evaluator, prefix string) *TemplateEvaluator {
	return &TemplateEvaluator{engine: engine, prefix: prefix}
}

// Eval returns true for an empty rule.
func (e *TemplateEvaluator) Eval(name, rule string, ctx Context) (bool, error) {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return true, nil
	}
	if e == nil || e.engine == nil {
		return false, fmt.Errorf("visibility: evaluator is nil")
	}

	text := "{% if " + rule + " %}true{% else %}false{% endif %}"
	out, err := e.engine.Evaluate(e.prefix+name, text, ctx.Values)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) == "true", nil
}
