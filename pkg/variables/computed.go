package variables

import (
	"sort"

	"github.com/goliatone/go-diecut/pkg/errs"
	"github.com/goliatone/go-diecut/pkg/logging"
	"github.com/goliatone/go-diecut/pkg/model"
	"github.com/goliatone/go-diecut/pkg/render/template"
)

type computedVar struct {
	spec model.VariableSpec
	deps []string
}

// resolveComputed evaluates computed variables into values as a fixed point
// of at most N+1 rounds. A variable is attempted only once every computed
// variable it references has a value; undefined names render empty, so an
// early attempt would silently succeed with the wrong text.
func (r *Resolver) resolveComputed(specs []model.VariableSpec, values map[string]model.Value) error {
	logger := logging.GetLogger("variables")

	computed := make(map[string]struct{})
	for _, spec := range specs {
		if spec.IsComputed() {
			computed[spec.Name] = struct{}{}
			delete(values, spec.Name)
		}
	}
	if len(computed) == 0 {
		return nil
	}

	var pending []computedVar
	for _, spec := range specs {
		if !spec.IsComputed() {
			continue
		}
		var deps []string
		for _, ref := range template.References(spec.Computed) {
			if _, ok := computed[ref]; ok {
				deps = append(deps, ref)
			}
		}
		if r.namespace != "" {
			for _, attr := range template.Attributes(spec.Computed, r.namespace) {
				if _, ok := computed[attr]; ok && !contains(deps, attr) {
					deps = append(deps, attr)
				}
			}
			sort.Strings(deps)
		}
		pending = append(pending, computedVar{spec: spec, deps: deps})
	}

	rounds := len(pending) + 1
	for round := 0; round < rounds && len(pending) > 0; round++ {
		var deferred []computedVar
		for _, cv := range pending {
			if !depsResolved(cv, values) {
				deferred = append(deferred, cv)
				continue
			}
			value, err := r.evaluateComputed(cv.spec, values)
			if err != nil {
				logger.Debug().Str("variable", cv.spec.Name).Int("round", round).Err(err).Msg("computed deferred")
				deferred = append(deferred, cv)
				continue
			}
			values[cv.spec.Name] = value
		}
		logger.Debug().Int("round", round).Int("resolved", len(pending)-len(deferred)).Msg("computed round")
		if len(deferred) == len(pending) {
			pending = deferred
			break
		}
		pending = deferred
	}

	if len(pending) == 0 {
		return nil
	}

	// Anything with satisfied dependencies failed on its own; surface that.
	for _, cv := range pending {
		if depsResolved(cv, values) {
			if _, err := r.evaluateComputed(cv.spec, values); err != nil {
				return err
			}
		}
	}
	return &errs.ComputedCycleError{Names: findCycle(pending, values)}
}

func depsResolved(cv computedVar, values map[string]model.Value) bool {
	for _, dep := range cv.deps {
		if _, ok := values[dep]; !ok {
			return false
		}
	}
	return true
}

// findCycle walks unresolved dependencies from the first pending variable
// until a name repeats. Every pending variable waits on another pending one,
// so the walk always closes.
func findCycle(pending []computedVar, values map[string]model.Value) []string {
	byName := make(map[string]computedVar, len(pending))
	for _, cv := range pending {
		byName[cv.spec.Name] = cv
	}

	var path []string
	index := map[string]int{}
	current := pending[0].spec.Name
	for {
		if at, seen := index[current]; seen {
			return append(path[at:], current)
		}
		index[current] = len(path)
		path = append(path, current)

		cv, ok := byName[current]
		if !ok {
			return path
		}
		next := ""
		for _, dep := range cv.deps {
			if _, done := values[dep]; !done {
				next = dep
				break
			}
		}
		if next == "" {
			return path
		}
		current = next
	}
}

func contains(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}
	return false
}
