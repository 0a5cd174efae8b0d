package answers

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-diecut/internal/version"
	"github.com/goliatone/go-diecut/pkg/errs"
	"github.com/goliatone/go-diecut/pkg/model"
	"github.com/goliatone/go-diecut/pkg/testsupport"
)

func sampleConfig() model.TemplateConfig {
	return model.TemplateConfig{
		Template: model.TemplateMetadata{Name: "rust-cli", Version: "1.2.0"},
		Variables: []model.VariableSpec{
			{Name: "project_name", Kind: model.VariableString},
			{Name: "api_token", Kind: model.VariableString, Secret: true},
			{Name: "license", Kind: model.VariableSelect, Choices: []string{"MIT", "Apache-2.0"}},
		},
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	fsys := testsupport.NewFs()
	require.NoError(t, fsys.MkdirAll("/project", 0o755))
	store := New(WithFs(fsys))

	env := model.NewEnvironment(map[string]model.Value{
		"project_name": model.String("demo"),
		"api_token":    model.String("s3cr3t"),
		"license":      model.String("MIT"),
		"use_ci":       model.Bool(true),
		"workers":      model.Int(4),
		"ratio":        model.Float(0.5),
		"features":     model.Strings([]string{"a", "b"}),
	})
	src := model.SourceInfo{URL: "gh:user/template", Ref: "v1.0", Commit: "abc123"}

	require.NoError(t, store.Write("/project", sampleConfig(), env, src))

	saved, err := store.Read("/project")
	require.NoError(t, err)

	assert.Equal(t, "rust-cli", saved.TemplateName)
	assert.Equal(t, "1.2.0", saved.TemplateVersion)
	assert.Equal(t, "gh:user/template", saved.TemplateSource)
	assert.Equal(t, "v1.0", saved.TemplateRef)
	assert.Equal(t, "abc123", saved.CommitSHA)
	assert.Equal(t, version.Version, saved.ToolVersion)

	want := map[string]model.Value{
		"project_name": model.String("demo"),
		"license":      model.String("MIT"),
		"use_ci":       model.Bool(true),
		"workers":      model.Int(4),
		"ratio":        model.Float(0.5),
		"features":     model.List(model.String("a"), model.String("b")),
	}
	if diff := cmp.Diff(want, saved.Answers, cmp.Comparer(func(a, b model.Value) bool { return a.Equal(b) })); diff != "" {
		t.Fatalf("answers mismatch (-want +got):\n%s", diff)
	}
}

func TestWrite_NeverPersistsSecrets(t *testing.T) {
	fsys := testsupport.NewFs()
	require.NoError(t, fsys.MkdirAll("/p", 0o755))

	env := model.NewEnvironment(map[string]model.Value{"api_token": model.String("s3cr3t")})
	require.NoError(t, New(WithFs(fsys)).Write("/p", sampleConfig(), env, model.SourceInfo{}))

	tree := testsupport.ReadTree(t, fsys, "/p")
	content, ok := tree[model.DefaultAnswersFile]
	require.True(t, ok)
	assert.NotContains(t, content, "s3cr3t")
	assert.NotContains(t, content, "api_token")
	assert.Contains(t, content, "[_diecut]")
}

func TestWrite_CustomFileName(t *testing.T) {
	fsys := testsupport.NewFs()
	require.NoError(t, fsys.MkdirAll("/p", 0o755))

	cfg := sampleConfig()
	cfg.Answers.File = ".answers.toml"
	env := model.NewEnvironment(map[string]model.Value{"project_name": model.String("x")})
	require.NoError(t, New(WithFs(fsys)).Write("/p", cfg, env, model.SourceInfo{URL: "/tmp/tpl"}))

	saved, err := New(WithFs(fsys), WithFileName(".answers.toml")).Read("/p")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/tpl", saved.TemplateSource)
}

func TestRead_MissingFile(t *testing.T) {
	_, err := New(WithFs(testsupport.NewFs())).Read("/nowhere")

	var noAnswers *errs.NoAnswersError
	require.True(t, errors.As(err, &noAnswers), "got %v", err)
	assert.Equal(t, "/nowhere", noAnswers.Path)
}

func TestParse_LegacyTemplateKey(t *testing.T) {
	saved, err := Parse([]byte(`
[_diecut]
template = "gh:user/old-template"

[variables]
name = "legacy"
`))
	require.NoError(t, err)
	assert.Equal(t, "gh:user/old-template", saved.TemplateSource)
	assert.True(t, saved.Answers["name"].Equal(model.String("legacy")))
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("[_diecut\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "answers: parsing")
}
