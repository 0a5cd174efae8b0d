package variables

import (
	"math"
	"strconv"
	"strings"

	"github.com/goliatone/go-diecut/pkg/model"
)

// ParseOverride coerces a raw command line value to the declared kind.
// Booleans accept "true", "1" and "yes"; anything else is false. Numbers that
// fail to parse, and non-finite floats, are kept as the raw string. Multiselect
// values are comma separated.
func ParseOverride(raw string, spec model.VariableSpec) model.Value {
	switch spec.Kind {
	case model.VariableBool:
		return model.Bool(raw == "true" || raw == "1" || raw == "yes")
	case model.VariableInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return model.String(raw)
		}
		return model.Int(n)
	case model.VariableFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return model.String(raw)
		}
		return model.Float(f)
	case model.VariableMultiselect:
		parts := strings.Split(raw, ",")
		for i, p := range parts {
			parts[i] = strings.TrimSpace(p)
		}
		return model.Strings(parts)
	default:
		return model.String(raw)
	}
}
