// Package materialize walks a template's content directory and turns it into
// an output tree. Plan renders everything in memory; Execute writes a plan;
// WalkAndRender composes the two.
package materialize

import (
	"context"
	"encoding/hex"
	"errors"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/zeebo/blake3"

	"github.com/goliatone/go-diecut/pkg/errs"
	"github.com/goliatone/go-diecut/pkg/filter"
	"github.com/goliatone/go-diecut/pkg/logging"
	"github.com/goliatone/go-diecut/pkg/model"
	"github.com/goliatone/go-diecut/pkg/render/template"
	"github.com/goliatone/go-diecut/pkg/visibility"
)

const (
	pathTemplate = "__path__"
	whenPrefix   = "__cond__"
)

var errPathEscapes = errors.New("rendered path escapes the output directory")

// Option configures a Walker.
type Option func(*Walker)

// WithFs sets the file system templates are read from and output is written
// to. Defaults to the OS file system.
func WithFs(fsys afero.Fs) Option {
	return func(w *Walker) {
		if fsys != nil {
			w.fs = fsys
		}
	}
}

// WithVisibility overrides the evaluator used for conditional file rules.
func WithVisibility(eval visibility.Evaluator) Option {
	return func(w *Walker) {
		if eval != nil {
			w.when = eval
		}
	}
}

// Walker renders template trees.
type Walker struct {
	fs     afero.Fs
	engine template.Evaluator
	when   visibility.Evaluator
}

// New returns a Walker rendering with engine.
func New(engine template.Evaluator, options ...Option) *Walker {
	w := &Walker{fs: afero.NewOsFs(), engine: engine}
	for _, opt := range options {
		if opt != nil {
			opt(w)
		}
	}
	if w.when == nil {
		w.when = visibility.NewTemplateEvaluator(engine, whenPrefix)
	}
	return w
}

// Fs exposes the walker's file system.
func (w *Walker) Fs() afero.Fs { return w.fs }

// Plan renders tmpl against env without touching the output location.
// Directories are traversed but never emitted; an entry whose rendered name
// is empty is skipped together with its children.
func (w *Walker) Plan(ctx context.Context, tmpl model.ResolvedTemplate, env model.Environment) (model.GenerationPlan, error) {
	logger := logging.GetLogger("materialize")
	done := logging.LogOperationStart(logger, "plan")
	defer done()

	ok, err := afero.DirExists(w.fs, tmpl.ContentDir)
	if err != nil {
		return model.GenerationPlan{}, errs.IO(err, "checking content directory %s", tmpl.ContentDir)
	}
	if !ok {
		return model.GenerationPlan{}, &errs.ContentDirMissingError{Path: tmpl.ContentDir}
	}

	data := env.Data(tmpl.Namespace)
	f, err := filter.New(filter.Config{
		Files:     tmpl.Config.Files,
		Suffix:    tmpl.Suffix(),
		RenderAll: tmpl.RenderAll,
		When:      w.when,
		Data:      data,
	})
	if err != nil {
		return model.GenerationPlan{}, err
	}

	var plan model.GenerationPlan
	walkErr := afero.Walk(w.fs, tmpl.ContentDir, func(full string, info os.FileInfo, err error) error {
		if err != nil {
			return errs.IO(err, "walking %s", full)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(tmpl.ContentDir, full)
		if err != nil {
			return errs.IO(err, "relativizing %s", full)
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if f.Excluded(rel) {
			logger.Debug().Str("path", rel).Msg("excluded")
			return skip(info)
		}

		rendered, keep, err := w.renderPath(rel, data, f, info.IsDir())
		if err != nil {
			return err
		}
		if !keep {
			logger.Debug().Str("path", rel).Msg("rendered name is empty, skipping")
			return skip(info)
		}
		if f.ConditionallyExcluded(rendered) {
			logger.Debug().Str("path", rel).Str("rendered", rendered).Msg("conditionally excluded")
			return skip(info)
		}
		if info.IsDir() {
			return nil
		}

		raw, err := afero.ReadFile(w.fs, full)
		if err != nil {
			return errs.IO(err, "reading %s", full)
		}

		file := model.PlannedFile{Path: rendered, Mode: info.Mode().Perm()}
		if f.CopyWithoutRender(rendered, info.Name(), raw) {
			file.Copy = true
			file.Content = raw
		} else {
			out, err := w.engine.Evaluate(rel, string(raw), data)
			switch {
			case err == nil:
				file.Content = []byte(out)
			case tmpl.RenderAll:
				logger.Warn().Str("path", rel).Err(err).Msg("failed to render, copying verbatim")
				plan.Warnings = append(plan.Warnings, "failed to render "+rel+", copying verbatim: "+err.Error())
				file.Copy = true
				file.Content = raw
			default:
				return errs.Eval(errs.EvalContent, rel, err)
			}
		}
		file.Digest = Digest(file.Content)
		plan.Files = append(plan.Files, file)
		logger.Debug().Str("path", rendered).Bool("copy", file.Copy).Msg("planned")
		return nil
	})
	if walkErr != nil {
		return model.GenerationPlan{}, walkErr
	}
	return plan, nil
}

// Execute writes every planned file under outputDir, creating parent
// directories. Re-running the same plan produces identical output.
func (w *Walker) Execute(ctx context.Context, plan model.GenerationPlan, outputDir string) (model.GeneratedProject, error) {
	result := model.GeneratedProject{OutputDir: outputDir, Warnings: plan.Warnings}

	if err := w.fs.MkdirAll(outputDir, 0o755); err != nil {
		return result, errs.IO(err, "creating directory %s", outputDir)
	}
	for _, file := range plan.Files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		dest := filepath.Join(outputDir, filepath.FromSlash(file.Path))
		if err := w.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return result, errs.IO(err, "creating directory %s", filepath.Dir(dest))
		}
		mode := file.Mode
		if mode == 0 {
			mode = 0o644
		}
		if err := afero.WriteFile(w.fs, dest, file.Content, mode); err != nil {
			return result, errs.IO(err, "writing %s", dest)
		}
		if err := w.fs.Chmod(dest, mode); err != nil {
			return result, errs.IO(err, "setting mode on %s", dest)
		}
		if file.Copy {
			result.FilesCopied = append(result.FilesCopied, file.Path)
		} else {
			result.FilesCreated = append(result.FilesCreated, file.Path)
		}
	}
	return result, nil
}

// WalkAndRender plans and executes in one step.
func (w *Walker) WalkAndRender(ctx context.Context, tmpl model.ResolvedTemplate, env model.Environment, outputDir string) (model.GeneratedProject, error) {
	plan, err := w.Plan(ctx, tmpl, env)
	if err != nil {
		return model.GeneratedProject{}, err
	}
	return w.Execute(ctx, plan, outputDir)
}

// renderPath renders each component independently and strips the suffix from
// the final component of files.
func (w *Walker) renderPath(rel string, data map[string]any, f *filter.Filter, isDir bool) (string, bool, error) {
	components := strings.Split(rel, "/")
	rendered := make([]string, 0, len(components))
	for i, component := range components {
		out, err := w.engine.Evaluate(pathTemplate, component, data)
		if err != nil {
			return "", false, errs.Eval(errs.EvalPath, rel, err)
		}
		if i == len(components)-1 && !isDir {
			out = f.StripSuffix(out)
		}
		out = strings.Trim(out, "/")
		if out == "" {
			return "", false, nil
		}
		for _, segment := range strings.Split(out, "/") {
			if segment == ".." || segment == "." || segment == "" {
				return "", false, errs.Eval(errs.EvalPath, rel, errPathEscapes)
			}
		}
		rendered = append(rendered, out)
	}
	return path.Join(rendered...), true, nil
}

// Digest returns the hex blake3 digest of content.
func Digest(content []byte) string {
	sum := blake3.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func skip(info os.FileInfo) error {
	if info.IsDir() {
		return filepath.SkipDir
	}
	return nil
}
