package orchestrator

import (
	"fmt"

	"github.com/spf13/afero"

	"github.com/goliatone/go-diecut/pkg/config"
	"github.com/goliatone/go-diecut/pkg/prompt"
	"github.com/goliatone/go-diecut/pkg/render/template"
	"github.com/goliatone/go-diecut/pkg/render/template/pongo"
	"github.com/goliatone/go-diecut/pkg/source"
)

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithFs sets the file system templates, projects and snapshots live on.
func WithFs(fsys afero.Fs) Option {
	return func(o *Orchestrator) {
		o.fs = fsys
	}
}

// WithFetcher injects the template fetcher.
func WithFetcher(fetcher source.Fetcher) Option {
	return func(o *Orchestrator) {
		o.fetcher = fetcher
	}
}

// WithEvaluator injects the expression evaluator.
func WithEvaluator(engine template.Evaluator) Option {
	return func(o *Orchestrator) {
		o.engine = engine
	}
}

// WithPromptDriver injects the interactive prompt driver used by Generate.
func WithPromptDriver(driver prompt.Driver) Option {
	return func(o *Orchestrator) {
		o.driver = driver
	}
}

// WithUserConfig supplies user settings such as source abbreviations.
func WithUserConfig(cfg config.UserConfig) Option {
	return func(o *Orchestrator) {
		o.user = cfg
	}
}

// WithTempDir places update snapshots under dir instead of the system temp
// directory.
func WithTempDir(dir string) Option {
	return func(o *Orchestrator) {
		o.tempDir = dir
	}
}

// WithGitOptions configures the default git fetcher. It has no effect when
// WithFetcher is given.
func WithGitOptions(options ...source.GitOption) Option {
	return func(o *Orchestrator) {
		o.gitOptions = append(o.gitOptions, options...)
	}
}

// Orchestrator runs generate and update. Missing dependencies are
// initialised with the built-in implementations.
type Orchestrator struct {
	fs            afero.Fs
	fetcher       source.Fetcher
	engine        template.Evaluator
	driver        prompt.Driver
	user          config.UserConfig
	tempDir       string
	gitOptions    []source.GitOption
	initialiseErr error
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

func (o *Orchestrator) applyDefaults() {
	if o.fs == nil {
		o.fs = afero.NewOsFs()
	}
	if o.fetcher == nil {
		// Checkouts live under the user cache dir, on the same file system.
		options := []source.GitOption{source.WithGitFs(o.fs), source.WithTempRoot(o.user.CacheDir)}
		o.fetcher = source.NewFetcher(append(options, o.gitOptions...)...)
	}
	if o.driver == nil {
		o.driver = prompt.Default()
	}
	if o.engine == nil {
		engine, err := pongo.New()
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default evaluator: %w", err)
		} else {
			o.engine = engine
		}
	}
}
