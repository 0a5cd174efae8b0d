package visibility_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-diecut/pkg/render/template/pongo"
	"github.com/goliatone/go-diecut/pkg/visibility"
)

func newEvaluator(t *testing.T) *visibility.TemplateEvaluator {
	t.Helper()

	engine, err := pongo.New()
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return visibility.NewTemplateEvaluator(engine, "__when_")
}

func TestTemplateEvaluator(t *testing.T) {
	t.Parallel()

	eval := newEvaluator(t)

	tests := []struct {
		name   string
		rule   string
		values map[string]any
		want   bool
	}{
		{"empty rule visible", "", nil, true},
		{"bool true", "use_docker", map[string]any{"use_docker": true}, true},
		{"bool false", "use_docker", map[string]any{"use_docker": false}, false},
		{"undefined is falsy", "use_docker", map[string]any{}, false},
		{"negation of undefined", "not use_docker", nil, true},
		{"string compare", `license == "MIT"`, map[string]any{"license": "MIT"}, true},
		{"string compare false", `license == "MIT"`, map[string]any{"license": "BSD"}, false},
		{"composition", "a and b", map[string]any{"a": true, "b": false}, false},
		{"int compare", "workers > 2", map[string]any{"workers": int64(4)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.Eval(tt.name, tt.rule, visibility.Context{Values: tt.values})
			if err != nil {
				t.Fatalf("Eval returned error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Eval(%q) = %v, want %v", tt.rule, got, tt.want)
			}
		})
	}
}

func TestTemplateEvaluatorSyntaxError(t *testing.T) {
	t.Parallel()

	if _, err := newEvaluator(t).Eval("broken", "a ==", visibility.Context{}); err == nil {
		t.Fatal("expected syntax error")
	}
}

func TestEvaluatorFunc(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("boom")
	fn := visibility.EvaluatorFunc(func(name, rule string, ctx visibility.Context) (bool, error) {
		return false, sentinel
	})
	if _, err := fn.Eval("x", "y", visibility.Context{}); !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel, got %v", err)
	}
}
