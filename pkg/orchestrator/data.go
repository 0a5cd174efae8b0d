package orchestrator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-diecut/pkg/errs"
)

// loadDataFile reads a YAML mapping of variable overrides. Lists become
// comma separated values, matching the --data syntax for multiselect.
func loadDataFile(fsys afero.Fs, path string) (map[string]string, error) {
	raw, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, errs.IO(err, "reading data file %s", path)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("orchestrator: parsing data file %s: %w", path, err)
	}

	out := make(map[string]string, len(doc))
	for key, value := range doc {
		text, err := overrideText(value)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: data file %s: key %q: %w", path, key, err)
		}
		out[key] = text
	}
	return out, nil
}

func overrideText(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(v), nil
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			text, err := overrideText(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, text)
		}
		return strings.Join(parts, ","), nil
	default:
		return "", fmt.Errorf("unsupported value of type %T", value)
	}
}

// mergeOverrides layers maps left to right; later maps win.
func mergeOverrides(layers ...map[string]string) map[string]string {
	out := map[string]string{}
	for _, layer := range layers {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
