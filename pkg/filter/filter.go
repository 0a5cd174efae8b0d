package filter

import (
	"bytes"
	"strings"

	"github.com/goliatone/go-diecut/pkg/errs"
	"github.com/goliatone/go-diecut/pkg/logging"
	"github.com/goliatone/go-diecut/pkg/model"
	"github.com/goliatone/go-diecut/pkg/visibility"
)

// SniffLen is how many leading bytes IsBinary inspects.
const SniffLen = 8192

// IsBinary reports whether the first SniffLen bytes contain a NUL byte.
func IsBinary(head []byte) bool {
	if len(head) > SniffLen {
		head = head[:SniffLen]
	}
	return bytes.IndexByte(head, 0) >= 0
}

// Filter holds the static and conditional match sets for one render.
type Filter struct {
	exclude     *GlobSet
	copy        *GlobSet
	conditional *GlobSet
	suffix      string
	renderAll   bool
}

// Config describes how a Filter is built.
type Config struct {
	Files     model.FilesConfig
	Suffix    string
	RenderAll bool

	// When evaluates conditional rules; Data is the environment it sees.
	When visibility.Evaluator
	Data map[string]any
}

// New builds the static sets and evaluates every conditional rule once,
// folding patterns whose predicate is false into the conditional exclude set.
func New(cfg Config) (*Filter, error) {
	logger := logging.GetLogger("filter")

	exclude, err := NewGlobSet(cfg.Files.Exclude)
	if err != nil {
		return nil, err
	}
	copySet, err := NewGlobSet(cfg.Files.CopyWithoutRender)
	if err != nil {
		return nil, err
	}

	conditional := &GlobSet{}
	for _, rule := range cfg.Files.Conditional {
		include := true
		if strings.TrimSpace(rule.When) != "" {
			if cfg.When == nil {
				return nil, errs.Eval(errs.EvalCondition, rule.Pattern, errNoEvaluator)
			}
			include, err = cfg.When.Eval(rule.Pattern, rule.When, visibility.Context{Values: cfg.Data})
			if err != nil {
				return nil, errs.Eval(errs.EvalCondition, rule.Pattern, err)
			}
		}
		if include {
			continue
		}
		if err := conditional.Add(rule.Pattern); err != nil {
			return nil, err
		}
		logger.Debug().Str("pattern", rule.Pattern).Msg("conditional exclude active")
	}

	return &Filter{
		exclude:     exclude,
		copy:        copySet,
		conditional: conditional,
		suffix:      cfg.Suffix,
		renderAll:   cfg.RenderAll,
	}, nil
}

// Excluded tests the unrendered relative path against the static set.
func (f *Filter) Excluded(rawRel string) bool {
	return f.exclude.Match(rawRel)
}

// ConditionallyExcluded tests the rendered relative path against the
// conditional set.
func (f *Filter) ConditionallyExcluded(renderedRel string) bool {
	return f.conditional.Match(renderedRel)
}

// CopyWithoutRender reports whether a file is copied verbatim: it matches the
// copy set, looks binary, or (outside render-all mode) its source name lacks
// the renderable suffix.
func (f *Filter) CopyWithoutRender(renderedRel, sourceName string, head []byte) bool {
	if f.copy.Match(renderedRel) {
		return true
	}
	if IsBinary(head) {
		return true
	}
	return !f.renderAll && f.suffix != "" && !strings.HasSuffix(sourceName, f.suffix)
}

// StripSuffix removes the renderable suffix from a file name.
func (f *Filter) StripSuffix(name string) string {
	if f.suffix != "" && strings.HasSuffix(name, f.suffix) {
		return strings.TrimSuffix(name, f.suffix)
	}
	return name
}
