package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"

	"github.com/goliatone/go-diecut/pkg/answers"
	"github.com/goliatone/go-diecut/pkg/config"
	"github.com/goliatone/go-diecut/pkg/errs"
	"github.com/goliatone/go-diecut/pkg/logging"
	"github.com/goliatone/go-diecut/pkg/materialize"
	"github.com/goliatone/go-diecut/pkg/model"
	"github.com/goliatone/go-diecut/pkg/source"
	"github.com/goliatone/go-diecut/pkg/variables"
)

// GenerateRequest describes a new project.
type GenerateRequest struct {
	// Template is a local path, git URL or abbreviation (gh:user/repo).
	Template string
	// Output is the project directory to create.
	Output string
	// Data holds raw variable overrides keyed by name.
	Data map[string]string
	// DataFile points at a YAML mapping of overrides; Data wins on
	// conflicts.
	DataFile string
	// Defaults accepts declared defaults instead of prompting.
	Defaults bool
	// Overwrite allows generating into a non-empty directory.
	Overwrite bool
	// Ref selects the branch, tag or commit of a git template.
	Ref string
	// DryRun stops after planning; nothing is written.
	DryRun bool
}

// GenerateResult carries the plan and, unless DryRun was set, what was
// written.
type GenerateResult struct {
	Template model.ResolvedTemplate
	Plan     model.GenerationPlan
	Project  model.GeneratedProject
	Source   model.SourceInfo
	DryRun   bool
}

// Generate resolves and fetches the template, refuses a non-empty output
// directory unless Overwrite is set, collects variables, renders the plan and
// writes it along with the answers file.
func (o *Orchestrator) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	if ctx == nil {
		return GenerateResult{}, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return GenerateResult{}, err
	}
	if err := o.initialiseErr; err != nil {
		return GenerateResult{}, err
	}
	if req.Template == "" {
		return GenerateResult{}, errors.New("orchestrator: template is required")
	}
	if req.Output == "" {
		return GenerateResult{}, errors.New("orchestrator: output directory is required")
	}

	logger := logging.GetLogger("orchestrator")
	done := logging.LogOperationStart(logger, "generate")
	defer done()

	src, err := source.Resolve(o.fs, req.Template, o.user.Abbreviations)
	if err != nil {
		return GenerateResult{}, err
	}
	src.Ref = req.Ref

	checkout, err := o.fetcher.Fetch(ctx, src)
	if err != nil {
		return GenerateResult{}, err
	}
	defer closeCheckout(checkout)

	tmpl, err := config.LoadTemplate(o.fs, checkout.Dir)
	if err != nil {
		return GenerateResult{}, err
	}

	if !req.Overwrite {
		if err := ensureEmpty(o.fs, req.Output); err != nil {
			return GenerateResult{}, err
		}
	}

	for _, warning := range tmpl.Warnings {
		logger.Warn().Str("template", tmpl.Root).Msg(warning)
	}

	overrides := req.Data
	if req.DataFile != "" {
		fromFile, err := loadDataFile(o.fs, req.DataFile)
		if err != nil {
			return GenerateResult{}, err
		}
		overrides = mergeOverrides(fromFile, req.Data)
	}
	logger.Debug().Strs("overrides", sortedKeys(overrides)).Msg("collecting variables")

	resolver := variables.New(o.engine,
		variables.WithPromptDriver(o.driver),
		variables.WithNamespace(tmpl.Namespace),
	)
	env, err := resolver.Collect(ctx, tmpl.Config.Variables, variables.Options{
		Overrides:   overrides,
		UseDefaults: req.Defaults,
	})
	if err != nil {
		return GenerateResult{}, err
	}

	walker := materialize.New(o.engine, materialize.WithFs(o.fs))
	plan, err := walker.Plan(ctx, tmpl, env)
	if err != nil {
		return GenerateResult{}, err
	}

	info := model.SourceInfo{URL: recordedSource(src), Ref: req.Ref, Commit: checkout.Commit}
	result := GenerateResult{Template: tmpl, Plan: plan, Source: info, DryRun: req.DryRun}
	if req.DryRun {
		logger.Info().Int("files", len(plan.Files)).Msg("dry run: nothing written")
		return result, nil
	}

	project, err := walker.Execute(ctx, plan, req.Output)
	if err != nil {
		return GenerateResult{}, err
	}
	if err := answers.New(answers.WithFs(o.fs)).Write(req.Output, tmpl.Config, env, info); err != nil {
		return GenerateResult{}, err
	}

	result.Project = project
	logger.Info().
		Str("output", project.OutputDir).
		Int("created", len(project.FilesCreated)).
		Int("copied", len(project.FilesCopied)).
		Msg("project generated")
	return result, nil
}

// recordedSource is what the answers file stores: the user's argument for git
// sources so abbreviations survive, the absolute directory for local ones.
func recordedSource(src source.Source) string {
	if src.Versioned() {
		return src.Original
	}
	return src.Path
}

func ensureEmpty(fsys afero.Fs, dir string) error {
	empty, err := afero.IsEmpty(fsys, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errs.IO(err, "checking output directory %s", dir)
	}
	if !empty {
		return &errs.OutputExistsError{Path: dir}
	}
	return nil
}

func closeCheckout(c source.Checkout) {
	if err := c.Close(); err != nil {
		logger := logging.GetLogger("orchestrator")
		logger.Warn().Err(err).Str("dir", c.Dir).Msg("failed to remove template checkout")
	}
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("orchestrator: %s: %w", op, err)
}
