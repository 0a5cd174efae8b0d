package orchestrator

import (
	"context"
	"errors"

	"github.com/spf13/afero"

	"github.com/goliatone/go-diecut/pkg/answers"
	"github.com/goliatone/go-diecut/pkg/config"
	"github.com/goliatone/go-diecut/pkg/errs"
	"github.com/goliatone/go-diecut/pkg/logging"
	"github.com/goliatone/go-diecut/pkg/materialize"
	"github.com/goliatone/go-diecut/pkg/merge"
	"github.com/goliatone/go-diecut/pkg/model"
	"github.com/goliatone/go-diecut/pkg/prompt"
	"github.com/goliatone/go-diecut/pkg/source"
	"github.com/goliatone/go-diecut/pkg/variables"
)

// UpdateRequest describes an update of a generated project.
type UpdateRequest struct {
	ProjectDir string
	// Source overrides the template source recorded in the answers file.
	Source string
	// Ref is the git ref to update to. Empty tracks the remote default
	// branch.
	Ref string
	// AnswersFile names the project's answers file. Empty reads the default
	// name and, when Source is set, falls back to the name the template
	// declares.
	AnswersFile string
	// DryRun classifies without applying changes or rewriting answers.
	DryRun bool
}

// Update re-renders the template at its previously recorded revision (old)
// and at the requested one (new) from the saved answers, merges both into
// the project and records the new revision.
func (o *Orchestrator) Update(ctx context.Context, req UpdateRequest) (UpdateReport, error) {
	if ctx == nil {
		return UpdateReport{}, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return UpdateReport{}, err
	}
	if err := o.initialiseErr; err != nil {
		return UpdateReport{}, err
	}
	if req.ProjectDir == "" {
		return UpdateReport{}, errors.New("orchestrator: project directory is required")
	}

	logger := logging.GetLogger("orchestrator")
	done := logging.LogOperationStart(logger, "update")
	defer done()

	store := answers.New(answers.WithFs(o.fs), answers.WithFileName(req.AnswersFile))
	saved, readErr := store.Read(req.ProjectDir)
	var noAnswers *errs.NoAnswersError
	if readErr != nil && (req.Source == "" || !errors.As(readErr, &noAnswers)) {
		return UpdateReport{}, readErr
	}

	sourceArg := req.Source
	if sourceArg == "" {
		sourceArg = saved.TemplateSource
	}
	if sourceArg == "" {
		return UpdateReport{}, &errs.NoAnswersError{Path: req.ProjectDir}
	}

	src, err := source.Resolve(o.fs, sourceArg, o.user.Abbreviations)
	if err != nil {
		return UpdateReport{}, err
	}

	newSrc := src
	newSrc.Ref = req.Ref
	newCheckout, err := o.fetcher.Fetch(ctx, newSrc)
	if err != nil {
		return UpdateReport{}, err
	}
	defer closeCheckout(newCheckout)

	if readErr != nil {
		cfg, err := config.Load(o.fs, newCheckout.Dir)
		if err != nil {
			return UpdateReport{}, err
		}
		store = answers.New(answers.WithFs(o.fs), answers.WithFileName(cfg.AnswersFile()))
		if saved, err = store.Read(req.ProjectDir); err != nil {
			return UpdateReport{}, err
		}
		logger.Debug().Str("file", cfg.AnswersFile()).Msg("answers read under template-declared name")
	}

	// Unversioned sources have a single revision; old and new collapse.
	oldCheckout := newCheckout
	if src.Versioned() {
		oldSrc := src
		oldSrc.Ref = saved.TemplateRef
		oldCheckout, err = o.fetcher.Fetch(ctx, oldSrc)
		if err != nil {
			return UpdateReport{}, err
		}
		defer closeCheckout(oldCheckout)
	}

	oldSnapshot, cleanupOld, err := o.snapshotDir("diecut-old-")
	if err != nil {
		return UpdateReport{}, err
	}
	defer cleanupOld()
	newSnapshot, cleanupNew, err := o.snapshotDir("diecut-new-")
	if err != nil {
		return UpdateReport{}, err
	}
	defer cleanupNew()

	if _, _, err := o.renderSnapshot(ctx, oldCheckout.Dir, saved.Answers, oldSnapshot); err != nil {
		return UpdateReport{}, wrap("rendering old snapshot", err)
	}
	newTmpl, newEnv, err := o.renderSnapshot(ctx, newCheckout.Dir, saved.Answers, newSnapshot)
	if err != nil {
		return UpdateReport{}, wrap("rendering new snapshot", err)
	}

	engine := merge.New(merge.WithFs(o.fs), merge.WithIgnore(newTmpl.Config.AnswersFile()))
	results, err := engine.ThreeWayMerge(ctx, req.ProjectDir, oldSnapshot, newSnapshot)
	if err != nil {
		return UpdateReport{}, err
	}

	report := NewUpdateReport(results)
	report.DryRun = req.DryRun
	if req.DryRun {
		logger.Info().Str("summary", report.String()).Msg("dry run: nothing applied")
		return report, nil
	}

	if err := engine.Apply(ctx, req.ProjectDir, oldSnapshot, newSnapshot, results); err != nil {
		return UpdateReport{}, err
	}

	info := model.SourceInfo{URL: sourceArg, Ref: req.Ref, Commit: newCheckout.Commit}
	if !src.Versioned() {
		info.URL = src.Path
	}
	if err := store.Write(req.ProjectDir, newTmpl.Config, newEnv, info); err != nil {
		return UpdateReport{}, err
	}

	logger.Info().Str("project", req.ProjectDir).Str("summary", report.String()).Msg("project updated")
	return report, nil
}

// PlanUpdate classifies an update without touching the project.
func (o *Orchestrator) PlanUpdate(ctx context.Context, req UpdateRequest) (UpdateReport, error) {
	req.DryRun = true
	return o.Update(ctx, req)
}

func (o *Orchestrator) renderSnapshot(ctx context.Context, templateDir string, saved map[string]model.Value, dest string) (model.ResolvedTemplate, model.Environment, error) {
	tmpl, err := config.LoadTemplate(o.fs, templateDir)
	if err != nil {
		return model.ResolvedTemplate{}, model.Environment{}, err
	}

	resolver := variables.New(o.engine,
		variables.WithPromptDriver(prompt.NonInteractive{}),
		variables.WithNamespace(tmpl.Namespace),
	)
	env, err := resolver.FromAnswers(tmpl.Config.Variables, saved)
	if err != nil {
		return model.ResolvedTemplate{}, model.Environment{}, err
	}

	walker := materialize.New(o.engine, materialize.WithFs(o.fs))
	if _, err := walker.WalkAndRender(ctx, tmpl, env, dest); err != nil {
		return model.ResolvedTemplate{}, model.Environment{}, err
	}
	return tmpl, env, nil
}

// snapshotDir creates an ephemeral directory removed by the returned func
// whatever the outcome of the run.
func (o *Orchestrator) snapshotDir(prefix string) (string, func(), error) {
	if o.tempDir != "" {
		if err := o.fs.MkdirAll(o.tempDir, 0o755); err != nil {
			return "", nil, errs.IO(err, "creating %s", o.tempDir)
		}
	}
	dir, err := afero.TempDir(o.fs, o.tempDir, prefix)
	if err != nil {
		return "", nil, errs.IO(err, "creating snapshot directory")
	}
	return dir, func() {
		if err := o.fs.RemoveAll(dir); err != nil {
			logger := logging.GetLogger("orchestrator")
			logger.Warn().Err(err).Str("dir", dir).Msg("failed to remove snapshot")
		}
	}, nil
}
