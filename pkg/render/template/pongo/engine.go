package pongo

import (
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-diecut/pkg/logging"
	"github.com/goliatone/go-diecut/pkg/render/template"
)

// empty backs the template set; templates are only ever built from strings.
var empty embed.FS

var setup sync.Once

// Engine implements template.Evaluator with a pongo2 template set.
type Engine struct {
	mu sync.RWMutex

	templateSet *pongo2.TemplateSet
	templates   map[string]*pongo2.Template
}

var _ template.Evaluator = (*Engine)(nil)

// New constructs an Engine. The default filters are registered with pongo2
// on first use.
func New() (*Engine, error) {
	setup.Do(func() {
		// Output is source code, never HTML.
		pongo2.SetAutoescape(false)
		registerDefaultFilters()
	})

	return &Engine{
		templateSet: pongo2.NewSet("diecut", pongo2.NewFSLoader(empty)),
		templates:   make(map[string]*pongo2.Template),
	}, nil
}

// Register parses text under name, replacing any earlier registration.
func (e *Engine) Register(name, text string) error {
	if e == nil || e.templateSet == nil {
		return errors.New("pongo: engine is nil")
	}

	tmpl, err := e.templateSet.FromString(text)
	if err != nil {
		return fmt.Errorf("pongo: parse %q: %w", name, err)
	}

	e.mu.Lock()
	e.templates[name] = tmpl
	e.mu.Unlock()
	return nil
}

// Render executes a registered template. Undefined variables render empty.
func (e *Engine) Render(name string, data map[string]any) (string, error) {
	if e == nil || e.templateSet == nil {
		return "", errors.New("pongo: engine is nil")
	}

	e.mu.RLock()
	tmpl, ok := e.templates[name]
	e.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("pongo: template %q is not registered", name)
	}

	out, err := tmpl.Execute(toContext(data))
	if err != nil {
		return "", fmt.Errorf("pongo: execute %q: %w", name, err)
	}
	return out, nil
}

// Evaluate registers and renders text in one step.
func (e *Engine) Evaluate(name, text string, data map[string]any) (string, error) {
	if err := e.Register(name, text); err != nil {
		return "", err
	}
	return e.Render(name, data)
}

// RegisterFilter adds a filter to pongo2's global registry. Registering a
// name that already exists is an error.
func RegisterFilter(name string, fn pongo2.FilterFunction) error {
	name = strings.TrimSpace(name)
	if name == "" || fn == nil {
		return errors.New("pongo: filter name and function required")
	}
	if pongo2.FilterExists(name) {
		return fmt.Errorf("pongo: filter %q already exists", name)
	}
	return pongo2.RegisterFilter(name, fn)
}

// toContext drops keys pongo2 would reject as identifiers.
func toContext(data map[string]any) pongo2.Context {
	out := make(pongo2.Context, len(data))
	for key, value := range data {
		if !validIdentifier(key) {
			logger := logging.GetLogger("render.pongo")
			logger.Debug().Str("key", key).Msg("skipping non-identifier context key")
			continue
		}
		out[key] = value
	}
	return out
}

func validIdentifier(key string) bool {
	if key == "" {
		return false
	}
	for i, r := range key {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
