// Package answers persists the variable values and template provenance of a
// generated project so a later update can re-render the same template.
package answers

import (
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"

	"github.com/goliatone/go-diecut/internal/version"
	"github.com/goliatone/go-diecut/pkg/errs"
	"github.com/goliatone/go-diecut/pkg/logging"
	"github.com/goliatone/go-diecut/pkg/model"
)

// Option configures a Store.
type Option func(*Store)

// WithFs sets the file system the answers file is read from and written to.
func WithFs(fsys afero.Fs) Option {
	return func(s *Store) {
		if fsys != nil {
			s.fs = fsys
		}
	}
}

// WithFileName overrides the answers file name used by Read.
func WithFileName(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.fileName = name
		}
	}
}

// Store reads and writes answers files.
type Store struct {
	fs       afero.Fs
	fileName string
}

// New returns a Store on the OS file system.
func New(options ...Option) *Store {
	s := &Store{
		fs:       afero.NewOsFs(),
		fileName: model.DefaultAnswersFile,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

type metaTable struct {
	Template       string `toml:"template"`
	Version        string `toml:"version,omitempty"`
	TemplateSource string `toml:"template_source,omitempty"`
	TemplateRef    string `toml:"template_ref,omitempty"`
	CommitSHA      string `toml:"commit_sha,omitempty"`
	DiecutVersion  string `toml:"diecut_version,omitempty"`
}

type document struct {
	Diecut    metaTable      `toml:"_diecut"`
	Variables map[string]any `toml:"variables"`
}

// Write stores the non-secret values of env together with the template
// provenance in dir, under the file name the template config declares.
func (s *Store) Write(dir string, cfg model.TemplateConfig, env model.Environment, src model.SourceInfo) error {
	logger := logging.GetLogger("answers")

	doc := document{
		Diecut: metaTable{
			Template:       cfg.Template.Name,
			Version:        cfg.Template.Version,
			TemplateSource: src.URL,
			TemplateRef:    src.Ref,
			CommitSHA:      src.Commit,
			DiecutVersion:  version.Version,
		},
		Variables: make(map[string]any, env.Len()),
	}
	for _, name := range env.Names() {
		if spec, ok := cfg.Variable(name); ok && spec.Secret {
			logger.Debug().Str("variable", name).Msg("skipping secret variable")
			continue
		}
		value, _ := env.Get(name)
		doc.Variables[name] = value.Interface()
	}

	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("answers: encoding: %w", err)
	}

	path := filepath.Join(dir, cfg.AnswersFile())
	if err := afero.WriteFile(s.fs, path, data, 0o644); err != nil {
		return errs.IO(err, "writing answers file %s", path)
	}
	logger.Debug().Str("path", path).Int("variables", len(doc.Variables)).Msg("answers written")
	return nil
}

// Read loads the answers file of projectDir. A missing file yields
// *errs.NoAnswersError.
func (s *Store) Read(projectDir string) (model.SavedAnswers, error) {
	path := filepath.Join(projectDir, s.fileName)

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.SavedAnswers{}, &errs.NoAnswersError{Path: projectDir}
		}
		return model.SavedAnswers{}, errs.IO(err, "reading answers file %s", path)
	}
	return Parse(data)
}

// Parse decodes answers file content. Files written before provenance was
// recorded keep the template source in the "template" key.
func Parse(data []byte) (model.SavedAnswers, error) {
	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return model.SavedAnswers{}, fmt.Errorf("answers: parsing: %w", err)
	}

	saved := model.SavedAnswers{
		TemplateName:    doc.Diecut.Template,
		TemplateVersion: doc.Diecut.Version,
		TemplateSource:  doc.Diecut.TemplateSource,
		TemplateRef:     doc.Diecut.TemplateRef,
		CommitSHA:       doc.Diecut.CommitSHA,
		ToolVersion:     doc.Diecut.DiecutVersion,
		Answers:         make(map[string]model.Value, len(doc.Variables)),
	}
	if saved.TemplateSource == "" {
		saved.TemplateSource = doc.Diecut.Template
	}

	for name, raw := range doc.Variables {
		value, err := model.FromAny(raw)
		if err != nil {
			return model.SavedAnswers{}, fmt.Errorf("answers: variable %q: %w", name, err)
		}
		saved.Answers[name] = value
	}
	return saved, nil
}
