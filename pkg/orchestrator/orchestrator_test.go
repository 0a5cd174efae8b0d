package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-diecut/pkg/answers"
	"github.com/goliatone/go-diecut/pkg/config"
	"github.com/goliatone/go-diecut/pkg/errs"
	"github.com/goliatone/go-diecut/pkg/model"
	"github.com/goliatone/go-diecut/pkg/prompt"
	"github.com/goliatone/go-diecut/pkg/source"
	"github.com/goliatone/go-diecut/pkg/testsupport"
)

const serviceConfig = `
[template]
name = "svc"
version = "%s"

[variables.project_name]
type = "string"
default = "My Cool Project"

[variables.project_slug]
type = "string"
computed = "{{ project_name | slugify }}"
`

var templateV1 = map[string]string{
	"README.md.tera":                   "# {{ project_name }}\n",
	"{{ project_slug }}/main.txt.tera": "slug={{ project_slug }}\n",
	"config.txt":                       "v1 config\n",
	"notes.txt":                        "v1 notes\n",
	"legacy.txt":                       "legacy\n",
}

var templateV2 = map[string]string{
	"README.md.tera":                   "# {{ project_name }}\nversion 2\n",
	"{{ project_slug }}/main.txt.tera": "slug={{ project_slug }}\n",
	"config.txt":                       "v2 config\n",
	"notes.txt":                        "v1 notes\n",
	"added.txt":                        "new\n",
}

// refFetcher serves git sources from directories keyed by ref.
type refFetcher struct {
	dirs    map[string]string
	commits map[string]string
	fetched []string
}

func (f *refFetcher) Fetch(_ context.Context, src source.Source) (source.Checkout, error) {
	if src.Kind == source.Local {
		return source.Checkout{Dir: src.Path}, nil
	}
	f.fetched = append(f.fetched, src.URL+"@"+src.Ref)
	dir, ok := f.dirs[src.Ref]
	if !ok {
		return source.Checkout{}, fmt.Errorf("unknown ref %q", src.Ref)
	}
	return source.Checkout{Dir: dir, Commit: f.commits[src.Ref]}, nil
}

func newOrchestrator(t *testing.T, fsys afero.Fs, fetcher source.Fetcher) *Orchestrator {
	t.Helper()
	options := []Option{
		WithFs(fsys),
		WithPromptDriver(prompt.NonInteractive{}),
		WithTempDir("/tmp"),
		WithUserConfig(config.UserConfig{}),
	}
	if fetcher != nil {
		options = append(options, WithFetcher(fetcher))
	}
	return New(options...)
}

func TestGenerate_LocalTemplate(t *testing.T) {
	fsys := testsupport.NewFs()
	testsupport.WriteTemplate(t, fsys, "/tpl", fmt.Sprintf(serviceConfig, "1.0.0"), templateV1)
	o := newOrchestrator(t, fsys, nil)

	result, err := o.Generate(context.Background(), GenerateRequest{
		Template: "/tpl",
		Output:   "/work/app",
		Defaults: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "/work/app", result.Project.OutputDir)
	assert.Equal(t, "/tpl", result.Source.URL)

	tree := testsupport.ReadTree(t, fsys, "/work/app")
	assert.Equal(t, "# My Cool Project\n", tree["README.md"])
	assert.Equal(t, "slug=my-cool-project\n", tree["my-cool-project/main.txt"])
	assert.Equal(t, "v1 config\n", tree["config.txt"])

	saved, err := answers.New(answers.WithFs(fsys)).Read("/work/app")
	require.NoError(t, err)
	assert.Equal(t, "svc", saved.TemplateName)
	assert.Equal(t, "/tpl", saved.TemplateSource)
	assert.True(t, saved.Answers["project_name"].Equal(model.String("My Cool Project")))
}

func TestGenerate_OverridesAndDataFile(t *testing.T) {
	fsys := testsupport.NewFs()
	testsupport.WriteTemplate(t, fsys, "/tpl", fmt.Sprintf(serviceConfig, "1.0.0"), templateV1)
	testsupport.WriteTree(t, fsys, "/", map[string]string{"data.yaml": "project_name: From File\n"})
	o := newOrchestrator(t, fsys, nil)

	_, err := o.Generate(context.Background(), GenerateRequest{
		Template: "/tpl",
		Output:   "/out-file",
		DataFile: "/data.yaml",
		Defaults: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "# From File\n", testsupport.ReadTree(t, fsys, "/out-file")["README.md"])

	_, err = o.Generate(context.Background(), GenerateRequest{
		Template: "/tpl",
		Output:   "/out-both",
		DataFile: "/data.yaml",
		Data:     map[string]string{"project_name": "From Flag"},
		Defaults: true,
	})
	require.NoError(t, err)
	tree := testsupport.ReadTree(t, fsys, "/out-both")
	assert.Equal(t, "# From Flag\n", tree["README.md"])
	assert.Contains(t, tree, "from-flag/main.txt")
}

func TestGenerate_RefusesNonEmptyOutput(t *testing.T) {
	fsys := testsupport.NewFs()
	testsupport.WriteTemplate(t, fsys, "/tpl", fmt.Sprintf(serviceConfig, "1.0.0"), templateV1)
	testsupport.WriteTree(t, fsys, "/work/app", map[string]string{"existing.txt": "keep"})
	o := newOrchestrator(t, fsys, nil)

	_, err := o.Generate(context.Background(), GenerateRequest{Template: "/tpl", Output: "/work/app", Defaults: true})
	var exists *errs.OutputExistsError
	require.True(t, errors.As(err, &exists), "got %v", err)

	_, err = o.Generate(context.Background(), GenerateRequest{Template: "/tpl", Output: "/work/app", Defaults: true, Overwrite: true})
	require.NoError(t, err)
	tree := testsupport.ReadTree(t, fsys, "/work/app")
	assert.Equal(t, "keep", tree["existing.txt"])
	assert.Contains(t, tree, "README.md")
}

func TestGenerate_DryRunWritesNothing(t *testing.T) {
	fsys := testsupport.NewFs()
	testsupport.WriteTemplate(t, fsys, "/tpl", fmt.Sprintf(serviceConfig, "1.0.0"), templateV1)
	o := newOrchestrator(t, fsys, nil)

	result, err := o.Generate(context.Background(), GenerateRequest{Template: "/tpl", Output: "/work/app", Defaults: true, DryRun: true})
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.ElementsMatch(t, []string{"README.md", "my-cool-project/main.txt", "config.txt", "notes.txt", "legacy.txt"}, result.Plan.Paths())
	exists, err := afero.Exists(fsys, "/work/app")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGenerate_MissingPromptFailsWithoutTTY(t *testing.T) {
	fsys := testsupport.NewFs()
	testsupport.WriteTemplate(t, fsys, "/tpl", "[template]\nname = \"t\"\n[variables.name]\ntype = \"string\"\n", map[string]string{"a.txt": "a"})
	o := newOrchestrator(t, fsys, nil)

	_, err := o.Generate(context.Background(), GenerateRequest{Template: "/tpl", Output: "/out", Defaults: true})
	require.ErrorIs(t, err, prompt.ErrNotInteractive)
}

func TestGenerate_GitCheckoutUnderCacheDir(t *testing.T) {
	fsys := testsupport.NewFs()
	var checkouts []string
	run := func(_ context.Context, dir string, args ...string) (string, error) {
		switch args[0] {
		case "checkout":
			checkouts = append(checkouts, dir)
			testsupport.WriteTemplate(t, fsys, dir, fmt.Sprintf(serviceConfig, "1.0.0"), templateV1)
		case "rev-parse":
			return "c1\n", nil
		}
		return "", nil
	}
	o := New(
		WithFs(fsys),
		WithPromptDriver(prompt.NonInteractive{}),
		WithUserConfig(config.UserConfig{CacheDir: "/cache"}),
		WithGitOptions(source.WithRunner(run)),
	)

	result, err := o.Generate(context.Background(), GenerateRequest{
		Template: "gh:acme/svc",
		Output:   "/work/app",
		Defaults: true,
	})
	require.NoError(t, err)

	require.Len(t, checkouts, 1)
	assert.True(t, strings.HasPrefix(checkouts[0], "/cache/diecut-template-"), "checkout at %s", checkouts[0])
	assert.Empty(t, testsupport.TreePaths(t, fsys, "/cache"), "checkout must be removed after generate")
	assert.Equal(t, "gh:acme/svc", result.Source.URL)
	assert.Equal(t, "c1", result.Source.Commit)
	assert.Equal(t, "# My Cool Project\n", testsupport.ReadTree(t, fsys, "/work/app")["README.md"])
}

func setupVersioned(t *testing.T) (afero.Fs, *refFetcher, *Orchestrator) {
	t.Helper()
	fsys := testsupport.NewFs()
	testsupport.WriteTemplate(t, fsys, "/cache/v1", fmt.Sprintf(serviceConfig, "1.0.0"), templateV1)
	testsupport.WriteTemplate(t, fsys, "/cache/v2", fmt.Sprintf(serviceConfig, "2.0.0"), templateV2)
	fetcher := &refFetcher{
		dirs:    map[string]string{"v1": "/cache/v1", "v2": "/cache/v2"},
		commits: map[string]string{"v1": "c1", "v2": "c2"},
	}
	o := newOrchestrator(t, fsys, fetcher)

	_, err := o.Generate(context.Background(), GenerateRequest{
		Template: "gh:acme/svc",
		Output:   "/work/app",
		Ref:      "v1",
		Defaults: true,
	})
	require.NoError(t, err)

	testsupport.WriteTree(t, fsys, "/work/app", map[string]string{
		"config.txt": "mine\n",
		"notes.txt":  "my notes\n",
	})
	return fsys, fetcher, o
}

func TestUpdate_ThreeWay(t *testing.T) {
	fsys, fetcher, o := setupVersioned(t)

	report, err := o.Update(context.Background(), UpdateRequest{ProjectDir: "/work/app", Ref: "v2"})
	require.NoError(t, err)

	assert.Equal(t, []string{"README.md"}, report.FilesUpdated)
	assert.Equal(t, []string{"added.txt"}, report.FilesAdded)
	assert.Equal(t, []string{"legacy.txt"}, report.FilesRemoved)
	assert.Equal(t, []string{"config.txt"}, report.Conflicts)
	assert.Equal(t, []string{"notes.txt"}, report.FilesKept)
	assert.True(t, report.HasChanges())
	assert.Equal(t, "1 updated, 1 added, 1 marked for removal, 1 conflicts", report.String())
	assert.Contains(t, fetcher.fetched, "https://github.com/acme/svc.git@v2")

	tree := testsupport.ReadTree(t, fsys, "/work/app")
	assert.Equal(t, "# My Cool Project\nversion 2\n", tree["README.md"])
	assert.Equal(t, "new\n", tree["added.txt"])
	assert.Equal(t, "legacy\n", tree["legacy.txt"])
	assert.Contains(t, tree, "legacy.txt.removing")
	assert.Equal(t, "mine\n", tree["config.txt"])
	assert.Contains(t, tree["config.txt.rej"], "## New template version:\nv2 config\n")
	assert.Equal(t, "my notes\n", tree["notes.txt"])

	saved, err := answers.New(answers.WithFs(fsys)).Read("/work/app")
	require.NoError(t, err)
	assert.Equal(t, "gh:acme/svc", saved.TemplateSource)
	assert.Equal(t, "v2", saved.TemplateRef)
	assert.Equal(t, "c2", saved.CommitSHA)
	assert.Equal(t, "2.0.0", saved.TemplateVersion)

	assert.Empty(t, testsupport.TreePaths(t, fsys, "/tmp"), "snapshots must be removed")
}

func TestPlanUpdate_DoesNotTouchProject(t *testing.T) {
	fsys, _, o := setupVersioned(t)
	before := testsupport.ReadTree(t, fsys, "/work/app")

	report, err := o.PlanUpdate(context.Background(), UpdateRequest{ProjectDir: "/work/app", Ref: "v2"})
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Equal(t, []string{"config.txt"}, report.Conflicts)
	assert.Equal(t, before, testsupport.ReadTree(t, fsys, "/work/app"))
}

func TestUpdate_SameRefOnlyKeepsUserEdits(t *testing.T) {
	_, _, o := setupVersioned(t)

	report, err := o.Update(context.Background(), UpdateRequest{ProjectDir: "/work/app", Ref: "v1"})
	require.NoError(t, err)

	assert.False(t, report.HasChanges())
	assert.Equal(t, []string{"config.txt", "notes.txt"}, report.FilesKept)
}

func TestUpdate_LocalTemplateCollapsesSnapshots(t *testing.T) {
	fsys := testsupport.NewFs()
	testsupport.WriteTemplate(t, fsys, "/tpl", fmt.Sprintf(serviceConfig, "1.0.0"), templateV1)
	o := newOrchestrator(t, fsys, nil)

	_, err := o.Generate(context.Background(), GenerateRequest{Template: "/tpl", Output: "/work/app", Defaults: true})
	require.NoError(t, err)

	testsupport.WriteTemplate(t, fsys, "/tpl", fmt.Sprintf(serviceConfig, "1.1.0"), map[string]string{"config.txt": "changed\n"})

	report, err := o.Update(context.Background(), UpdateRequest{ProjectDir: "/work/app"})
	require.NoError(t, err)
	assert.False(t, report.HasChanges(), "old and new are the same revision for local templates: %s", report)
}

func TestUpdate_NoAnswers(t *testing.T) {
	fsys := testsupport.NewFs()
	require.NoError(t, fsys.MkdirAll("/plain", 0o755))
	o := newOrchestrator(t, fsys, nil)

	_, err := o.Update(context.Background(), UpdateRequest{ProjectDir: "/plain"})
	var noAnswers *errs.NoAnswersError
	require.True(t, errors.As(err, &noAnswers), "got %v", err)
}

func TestUpdate_CustomAnswersFile(t *testing.T) {
	fsys := testsupport.NewFs()
	cfg := fmt.Sprintf(serviceConfig, "1.0.0") + "\n[answers]\nfile = \".project-answers.toml\"\n"
	testsupport.WriteTemplate(t, fsys, "/tpl", cfg, templateV1)
	o := newOrchestrator(t, fsys, nil)

	_, err := o.Generate(context.Background(), GenerateRequest{Template: "/tpl", Output: "/work/app", Defaults: true})
	require.NoError(t, err)
	assert.Contains(t, testsupport.ReadTree(t, fsys, "/work/app"), ".project-answers.toml")

	_, err = o.PlanUpdate(context.Background(), UpdateRequest{ProjectDir: "/work/app"})
	var noAnswers *errs.NoAnswersError
	require.True(t, errors.As(err, &noAnswers), "default name alone cannot find the answers, got %v", err)

	report, err := o.PlanUpdate(context.Background(), UpdateRequest{ProjectDir: "/work/app", AnswersFile: ".project-answers.toml"})
	require.NoError(t, err)
	assert.False(t, report.HasChanges())

	report, err = o.PlanUpdate(context.Background(), UpdateRequest{ProjectDir: "/work/app", Source: "/tpl"})
	require.NoError(t, err)
	assert.False(t, report.HasChanges())
	for _, r := range report.Results {
		assert.NotEqual(t, ".project-answers.toml", r.Path, "answers file must stay out of the merge")
	}
}

func TestUpdateReport(t *testing.T) {
	report := NewUpdateReport([]model.FileMergeResult{
		{Path: "kept.txt", Action: model.KeepUser},
		{Path: "same.txt", Action: model.Unchanged},
	})
	assert.False(t, report.HasChanges())
	assert.Equal(t, "0 updated, 0 added, 0 marked for removal, 0 conflicts", report.String())
	assert.Equal(t, []string{"kept.txt"}, report.FilesKept)
}
