package model

import (
	"fmt"
	"path/filepath"
)

const (
	// DefaultTemplatesSuffix marks files that are rendered; the suffix is
	// stripped from the output name.
	DefaultTemplatesSuffix = ".tera"
	// DefaultAnswersFile is the project-relative answers file name.
	DefaultAnswersFile = ".diecut-answers.toml"
	// ContentDirName is the template subdirectory holding the file tree.
	ContentDirName = "template"
)

// TemplateMetadata is the [template] table of diecut.toml.
type TemplateMetadata struct {
	Name            string
	Version         string
	Description     string
	TemplatesSuffix string
}

// ConditionalFile excludes Pattern when the When predicate is false.
type ConditionalFile struct {
	Pattern string
	When    string
}

// FilesConfig is the [files] table of diecut.toml.
type FilesConfig struct {
	Exclude           []string
	CopyWithoutRender []string
	Conditional       []ConditionalFile
}

// AnswersConfig is the [answers] table of diecut.toml.
type AnswersConfig struct {
	File string
}

// TemplateConfig is the decoded template configuration. Variables keep their
// declaration order.
type TemplateConfig struct {
	Template  TemplateMetadata
	Variables []VariableSpec
	Files     FilesConfig
	Answers   AnswersConfig
}

// Variable finds a variable declaration by name.
func (c TemplateConfig) Variable(name string) (VariableSpec, bool) {
	for _, v := range c.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return VariableSpec{}, false
}

// Suffix returns the renderable-file suffix, applying the default.
func (c TemplateConfig) Suffix() string {
	if c.Template.TemplatesSuffix == "" {
		return DefaultTemplatesSuffix
	}
	return c.Template.TemplatesSuffix
}

// AnswersFile returns the answers file name, applying the default.
func (c TemplateConfig) AnswersFile() string {
	if c.Answers.File == "" {
		return DefaultAnswersFile
	}
	return c.Answers.File
}

// Validate checks every variable declaration and rejects duplicates.
func (c TemplateConfig) Validate() error {
	seen := make(map[string]struct{}, len(c.Variables))
	for _, v := range c.Variables {
		if _, dup := seen[v.Name]; dup {
			return fmt.Errorf("model: duplicate variable %q", v.Name)
		}
		seen[v.Name] = struct{}{}
		if err := v.Validate(); err != nil {
			return err
		}
	}
	for _, cond := range c.Files.Conditional {
		if cond.Pattern == "" {
			return fmt.Errorf("model: conditional file rule without pattern")
		}
	}
	return nil
}

// ResolvedTemplate is a loaded template ready for resolution and rendering.
type ResolvedTemplate struct {
	Root       string
	Config     TemplateConfig
	ContentDir string

	// RenderAll treats every text file as renderable regardless of suffix.
	// Render failures degrade to a warning plus verbatim copy in this mode.
	RenderAll bool

	// Namespace, when set, also exposes variables nested under this key.
	Namespace string

	Warnings []string
}

// NewResolvedTemplate builds a native-format ResolvedTemplate rooted at root.
func NewResolvedTemplate(root string, cfg TemplateConfig) ResolvedTemplate {
	return ResolvedTemplate{
		Root:       root,
		Config:     cfg,
		ContentDir: filepath.Join(root, ContentDirName),
	}
}

// Suffix returns the renderable-file suffix.
func (t ResolvedTemplate) Suffix() string {
	return t.Config.Suffix()
}
