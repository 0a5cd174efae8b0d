package config

import (
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/pelletier/go-toml/v2/unstable"
	"github.com/spf13/afero"

	"github.com/goliatone/go-diecut/pkg/errs"
	"github.com/goliatone/go-diecut/pkg/logging"
	"github.com/goliatone/go-diecut/pkg/model"
)

// FileName is the template configuration file at the template root.
const FileName = "diecut.toml"

type rawTemplate struct {
	Template  rawMetadata            `toml:"template"`
	Variables map[string]rawVariable `toml:"variables"`
	Files     rawFiles               `toml:"files"`
	Answers   rawAnswers             `toml:"answers"`
}

type rawMetadata struct {
	Name            string `toml:"name"`
	Version         string `toml:"version"`
	Description     string `toml:"description"`
	TemplatesSuffix string `toml:"templates_suffix"`
}

type rawVariable struct {
	Type              string   `toml:"type"`
	Prompt            string   `toml:"prompt"`
	Default           any      `toml:"default"`
	Choices           []string `toml:"choices"`
	Validation        string   `toml:"validation"`
	ValidationMessage string   `toml:"validation_message"`
	When              string   `toml:"when"`
	Computed          string   `toml:"computed"`
	Secret            bool     `toml:"secret"`
}

type rawFiles struct {
	Exclude           []string         `toml:"exclude"`
	CopyWithoutRender []string         `toml:"copy_without_render"`
	Conditional       []rawConditional `toml:"conditional"`
}

type rawConditional struct {
	Pattern string `toml:"pattern"`
	When    string `toml:"when"`
}

type rawAnswers struct {
	File string `toml:"file"`
}

// Load reads and validates <dir>/diecut.toml. dir may also point at the file
// itself.
func Load(fsys afero.Fs, dir string) (model.TemplateConfig, error) {
	path := dir
	if filepath.Base(dir) != FileName {
		path = filepath.Join(dir, FileName)
	}

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.TemplateConfig{}, &errs.ConfigNotFoundError{Path: path}
		}
		return model.TemplateConfig{}, errs.IO(err, "reading %s", path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return model.TemplateConfig{}, err
	}
	logger := logging.GetLogger("config")
	logger.Debug().
		Str("path", path).
		Str("template", cfg.Template.Name).
		Int("variables", len(cfg.Variables)).
		Msg("template config loaded")
	return cfg, nil
}

// LoadTemplate loads the config of a native template rooted at dir.
func LoadTemplate(fsys afero.Fs, dir string) (model.ResolvedTemplate, error) {
	cfg, err := Load(fsys, dir)
	if err != nil {
		return model.ResolvedTemplate{}, err
	}
	return model.NewResolvedTemplate(dir, cfg), nil
}

// Parse decodes and validates diecut.toml content.
func Parse(data []byte) (model.TemplateConfig, error) {
	var raw rawTemplate
	if err := toml.Unmarshal(data, &raw); err != nil {
		return model.TemplateConfig{}, fmt.Errorf("config: parsing %s: %w", FileName, err)
	}
	if raw.Template.Name == "" {
		return model.TemplateConfig{}, fmt.Errorf("config: [template] name is required")
	}

	order, err := variableOrder(data)
	if err != nil {
		return model.TemplateConfig{}, fmt.Errorf("config: parsing %s: %w", FileName, err)
	}
	for name := range raw.Variables {
		if !contains(order, name) {
			order = append(order, name)
		}
	}

	cfg := model.TemplateConfig{
		Template: model.TemplateMetadata{
			Name:            raw.Template.Name,
			Version:         raw.Template.Version,
			Description:     raw.Template.Description,
			TemplatesSuffix: raw.Template.TemplatesSuffix,
		},
		Files: model.FilesConfig{
			Exclude:           raw.Files.Exclude,
			CopyWithoutRender: raw.Files.CopyWithoutRender,
		},
		Answers: model.AnswersConfig{File: raw.Answers.File},
	}
	for _, c := range raw.Files.Conditional {
		cfg.Files.Conditional = append(cfg.Files.Conditional, model.ConditionalFile{Pattern: c.Pattern, When: c.When})
	}

	for _, name := range order {
		rv, ok := raw.Variables[name]
		if !ok {
			continue
		}
		spec, err := toSpec(name, rv)
		if err != nil {
			return model.TemplateConfig{}, err
		}
		cfg.Variables = append(cfg.Variables, spec)
	}

	if err := cfg.Validate(); err != nil {
		return model.TemplateConfig{}, err
	}
	return cfg, nil
}

func toSpec(name string, rv rawVariable) (model.VariableSpec, error) {
	spec := model.VariableSpec{
		Name:              name,
		Kind:              model.VariableKind(rv.Type),
		Prompt:            rv.Prompt,
		Choices:           rv.Choices,
		Validation:        rv.Validation,
		ValidationMessage: rv.ValidationMessage,
		When:              rv.When,
		Computed:          rv.Computed,
		Secret:            rv.Secret,
	}
	if rv.Default == nil {
		return spec, nil
	}

	value, err := model.FromAny(rv.Default)
	if err != nil {
		return model.VariableSpec{}, &errs.InvalidVariableError{Name: name, Reason: fmt.Sprintf("invalid default: %v", err)}
	}
	// TOML writes whole floats as integers; keep float variables float.
	if spec.Kind == model.VariableFloat {
		if i, ok := value.AsInt(); ok {
			value = model.Float(float64(i))
		}
	}
	spec.Default = &value
	return spec, nil
}

// variableOrder returns variable names in the order their declarations
// appear, covering [variables.x] headers, inline tables under [variables]
// and dotted keys.
func variableOrder(data []byte) ([]string, error) {
	var (
		order   []string
		current []string
		p       unstable.Parser
	)
	p.Reset(data)

	record := func(path []string) {
		if len(path) >= 2 && path[0] == "variables" && !contains(order, path[1]) {
			order = append(order, path[1])
		}
	}

	for p.NextExpression() {
		expr := p.Expression()
		switch expr.Kind {
		case unstable.Table, unstable.ArrayTable:
			current = keyParts(expr.Key())
			record(current)
		case unstable.KeyValue:
			path := append(append([]string{}, current...), keyParts(expr.Key())...)
			record(path)
		}
	}
	return order, p.Error()
}

func keyParts(it unstable.Iterator) []string {
	var parts []string
	for it.Next() {
		parts = append(parts, string(it.Node().Data))
	}
	return parts
}

func contains(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}
	return false
}
