package variables

import (
	"context"
	"fmt"

	"github.com/goliatone/go-diecut/pkg/errs"
	"github.com/goliatone/go-diecut/pkg/logging"
	"github.com/goliatone/go-diecut/pkg/model"
	"github.com/goliatone/go-diecut/pkg/prompt"
	"github.com/goliatone/go-diecut/pkg/render/template"
	"github.com/goliatone/go-diecut/pkg/visibility"
)

const (
	whenPrefix     = "__when__"
	computedPrefix = "__computed__"
)

// Option configures a Resolver.
type Option func(*Resolver)

// WithPromptDriver overrides the driver used for interactive prompts.
func WithPromptDriver(driver prompt.Driver) Option {
	return func(r *Resolver) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithVisibility overrides the predicate evaluator used for "when" rules.
func WithVisibility(eval visibility.Evaluator) Option {
	return func(r *Resolver) {
		if eval != nil {
			r.when = eval
		}
	}
}

// WithNamespace exposes resolved values nested under key as well as flat
// while evaluating predicates and computed expressions.
func WithNamespace(key string) Option {
	return func(r *Resolver) {
		r.namespace = key
	}
}

// Resolver collects variable values.
type Resolver struct {
	engine    template.Evaluator
	when      visibility.Evaluator
	driver    prompt.Driver
	namespace string
}

// New returns a Resolver evaluating expressions with engine. Without a
// WithPromptDriver option prompts go through prompt.Default().
func New(engine template.Evaluator, options ...Option) *Resolver {
	r := &Resolver{engine: engine}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	if r.when == nil {
		r.when = visibility.NewTemplateEvaluator(engine, whenPrefix)
	}
	if r.driver == nil {
		r.driver = prompt.Default()
	}
	return r
}

// Options controls a single Collect call.
type Options struct {
	// Overrides are raw command line values keyed by variable name. They are
	// coerced to the declared kind.
	Overrides map[string]string
	// UseDefaults accepts declared defaults instead of prompting.
	UseDefaults bool
}

// Collect resolves specs into an environment.
func (r *Resolver) Collect(ctx context.Context, specs []model.VariableSpec, opts Options) (model.Environment, error) {
	logger := logging.GetLogger("variables")
	values := make(map[string]model.Value, len(specs))

	for _, spec := range specs {
		if spec.IsComputed() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return model.Environment{}, err
		}

		visible, err := r.visible(spec, values)
		if err != nil {
			return model.Environment{}, err
		}
		if !visible {
			logger.Debug().Str("variable", spec.Name).Msg("skipped by when condition")
			continue
		}

		if raw, ok := opts.Overrides[spec.Name]; ok {
			values[spec.Name] = ParseOverride(raw, spec)
			logger.Debug().Str("variable", spec.Name).Str("source", "override").Msg("resolved")
			continue
		}

		if opts.UseDefaults && spec.Default != nil {
			values[spec.Name] = *spec.Default
			logger.Debug().Str("variable", spec.Name).Str("source", "default").Msg("resolved")
			continue
		}

		value, err := r.ask(ctx, spec)
		if err != nil {
			return model.Environment{}, err
		}
		values[spec.Name] = value
		logger.Debug().Str("variable", spec.Name).Str("source", "prompt").Msg("resolved")
	}

	if err := r.resolveComputed(specs, values); err != nil {
		return model.Environment{}, err
	}
	return model.NewEnvironment(values), nil
}

// FromAnswers rebuilds an environment from saved answers. Visibility is
// re-evaluated in declaration order; visible variables take the saved answer,
// falling back to the declared default. Saved values of computed variables
// are discarded and re-derived. Saved answers for names the template no
// longer declares are carried through.
func (r *Resolver) FromAnswers(specs []model.VariableSpec, answers map[string]model.Value) (model.Environment, error) {
	declared := make(map[string]struct{}, len(specs))
	values := make(map[string]model.Value, len(specs))

	for _, spec := range specs {
		declared[spec.Name] = struct{}{}
		if spec.IsComputed() {
			continue
		}
		visible, err := r.visible(spec, values)
		if err != nil {
			return model.Environment{}, err
		}
		if !visible {
			continue
		}
		if saved, ok := answers[spec.Name]; ok {
			values[spec.Name] = saved
			continue
		}
		if spec.Default != nil {
			values[spec.Name] = *spec.Default
		}
	}
	for name, saved := range answers {
		if _, ok := declared[name]; !ok {
			values[name] = saved
		}
	}

	if err := r.resolveComputed(specs, values); err != nil {
		return model.Environment{}, err
	}
	return model.NewEnvironment(values), nil
}

func (r *Resolver) visible(spec model.VariableSpec, values map[string]model.Value) (bool, error) {
	if spec.When == "" {
		return true, nil
	}
	ok, err := r.when.Eval(spec.Name, spec.When, visibility.Context{Values: r.data(values)})
	if err != nil {
		return false, errs.Eval(errs.EvalWhen, spec.Name, err)
	}
	return ok, nil
}

func (r *Resolver) evaluateComputed(spec model.VariableSpec, values map[string]model.Value) (model.Value, error) {
	if r.engine == nil {
		return model.Value{}, errs.Eval(errs.EvalComputed, spec.Name, fmt.Errorf("variables: no evaluator configured"))
	}
	out, err := r.engine.Evaluate(computedPrefix+spec.Name, spec.Computed, r.data(values))
	if err != nil {
		return model.Value{}, errs.Eval(errs.EvalComputed, spec.Name, err)
	}
	return model.String(out), nil
}

func (r *Resolver) data(values map[string]model.Value) map[string]any {
	return model.NewEnvironment(values).Data(r.namespace)
}
