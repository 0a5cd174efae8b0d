package filter

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-diecut/pkg/errs"
	"github.com/goliatone/go-diecut/pkg/model"
	"github.com/goliatone/go-diecut/pkg/render/template/pongo"
	"github.com/goliatone/go-diecut/pkg/visibility"
)

func TestGlobSetMatch(t *testing.T) {
	set, err := NewGlobSet([]string{"*.png", "docs/**", "./build/out.txt"})
	require.NoError(t, err)

	tests := []struct {
		path string
		want bool
	}{
		{"logo.png", true},
		{"assets/img/logo.png", true},
		{"docs/index.md", true},
		{"docs/nested/deep/page.md", true},
		{"build/out.txt", true},
		{"src/docs/index.md", false},
		{"logo.jpg", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, set.Match(tt.path), "Match(%q)", tt.path)
	}
	assert.Equal(t, 3, set.Len())
}

func TestGlobSetMatchNested(t *testing.T) {
	set, err := NewGlobSet([]string{"assets/*", "docs/**/*.md", "src/*.go"})
	require.NoError(t, err)

	tests := []struct {
		path string
		want bool
	}{
		{"assets/app.js", true},
		{"assets/js/app.js", true},
		{"assets/js/vendor/lib.min.js", true},
		{"docs/intro.md", true},
		{"docs/guide/intro.md", true},
		{"docs/guide/intro.txt", false},
		{"src/main.go", true},
		{"src/a/b.go", false},
		{"other/assets/app.js", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, set.Match(tt.path), "Match(%q)", tt.path)
	}
}

func TestCopyWithoutRenderCoversNestedFiles(t *testing.T) {
	f, err := New(Config{
		Files:  model.FilesConfig{CopyWithoutRender: []string{"assets/*"}},
		Suffix: ".tera",
	})
	require.NoError(t, err)

	assert.True(t, f.CopyWithoutRender("assets/js/app.js", "app.js.tera", []byte("{{ not a var }}")))
	assert.False(t, f.CopyWithoutRender("src/app.js", "app.js.tera", []byte("{{ name }}")))
}

func TestGlobSetInvalidPattern(t *testing.T) {
	_, err := NewGlobSet([]string{"[unclosed"})
	var globErr *errs.GlobPatternError
	require.True(t, errors.As(err, &globErr), "expected GlobPatternError, got %v", err)
	assert.Equal(t, "[unclosed", globErr.Pattern)

	var nilSet *GlobSet
	assert.False(t, nilSet.Match("a"))
	assert.Equal(t, 0, nilSet.Len())
}

func TestIsBinary(t *testing.T) {
	assert.False(t, IsBinary([]byte("plain text\n")))
	assert.True(t, IsBinary([]byte{'P', 'N', 'G', 0, 1}))

	late := append(bytes.Repeat([]byte("a"), SniffLen), 0)
	assert.False(t, IsBinary(late), "NUL past the sniff window must be ignored")
}

func newWhen(t *testing.T) visibility.Evaluator {
	t.Helper()
	engine, err := pongo.New()
	require.NoError(t, err)
	return visibility.NewTemplateEvaluator(engine, "__cond__")
}

func TestFilterConditionalUsesRenderedPath(t *testing.T) {
	f, err := New(Config{
		Files: model.FilesConfig{
			Exclude: []string{"*.bak"},
			Conditional: []model.ConditionalFile{
				{Pattern: "widget.txt", When: "include_widget"},
				{Pattern: "always.txt", When: "true"},
			},
		},
		Suffix: ".tera",
		When:   newWhen(t),
		Data:   map[string]any{"include_widget": false, "name": "widget"},
	})
	require.NoError(t, err)

	// The raw name never matches the conditional pattern; the rendered one does.
	assert.False(t, f.Excluded("{{name}}.txt"))
	assert.True(t, f.ConditionallyExcluded("widget.txt"))
	assert.False(t, f.ConditionallyExcluded("always.txt"))

	assert.True(t, f.Excluded("notes.bak"))
	assert.False(t, f.ConditionallyExcluded("notes.bak"))
}

func TestFilterConditionalErrors(t *testing.T) {
	_, err := New(Config{
		Files: model.FilesConfig{Conditional: []model.ConditionalFile{{Pattern: "x", When: "a =="}}},
		When:  newWhen(t),
	})
	var evalErr *errs.EvalError
	require.True(t, errors.As(err, &evalErr), "expected EvalError, got %v", err)
	assert.Equal(t, errs.EvalCondition, evalErr.Kind)
	assert.Equal(t, "x", evalErr.Name)
}

func TestFilterCopyWithoutRender(t *testing.T) {
	f, err := New(Config{
		Files:  model.FilesConfig{CopyWithoutRender: []string{"vendor/**"}},
		Suffix: ".tera",
	})
	require.NoError(t, err)

	assert.True(t, f.CopyWithoutRender("vendor/lib.js", "lib.js.tera", []byte("x")), "copy set")
	assert.True(t, f.CopyWithoutRender("img.bin", "img.bin.tera", []byte{0}), "binary")
	assert.True(t, f.CopyWithoutRender("README.md", "README.md", []byte("# hi")), "missing suffix")
	assert.False(t, f.CopyWithoutRender("README.md", "README.md.tera", []byte("# {{ x }}")))

	all, err := New(Config{Suffix: ".tera", RenderAll: true})
	require.NoError(t, err)
	assert.False(t, all.CopyWithoutRender("README.md", "README.md", []byte("# hi")), "render-all ignores suffix")

	assert.Equal(t, "main.go", f.StripSuffix("main.go.tera"))
	assert.Equal(t, "main.go", f.StripSuffix("main.go"))
}
