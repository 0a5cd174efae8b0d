package pongo

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/flosch/pongo2/v6"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func registerDefaultFilters() {
	defaults := map[string]pongo2.FilterFunction{
		"trim":        filterTrim,
		"lowerfirst":  filterLowerFirst,
		"snake_case":  stringFilter(SnakeCase),
		"kebab_case":  stringFilter(KebabCase),
		"pascal_case": stringFilter(PascalCase),
		"camel_case":  stringFilter(CamelCase),
	}
	for name, fn := range defaults {
		if !pongo2.FilterExists(name) {
			_ = pongo2.RegisterFilter(name, fn)
		}
	}
	// The builtin keeps underscores; project slugs should not.
	if pongo2.FilterExists("slugify") {
		_ = pongo2.ReplaceFilter("slugify", stringFilter(Slugify))
	} else {
		_ = pongo2.RegisterFilter("slugify", stringFilter(Slugify))
	}
}

func stringFilter(fn func(string) string) pongo2.FilterFunction {
	return func(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		if in.IsNil() {
			return pongo2.AsValue(""), nil
		}
		return pongo2.AsValue(fn(in.String())), nil
	}
}

func filterTrim(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.Len() <= 0 {
		return pongo2.AsValue(""), nil
	}
	return pongo2.AsValue(strings.TrimSpace(in.String())), nil
}

func filterLowerFirst(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.Len() <= 0 {
		return pongo2.AsValue(""), nil
	}
	t := in.String()

	for i, r := range t {
		if strings.ContainsRune(" \t\n\r", r) {
			continue
		}
		size := utf8.RuneLen(r)
		return pongo2.AsValue(t[:i] + strings.ToLower(string(r)) + t[i+size:]), nil
	}
	return pongo2.AsValue(t), nil
}

// words splits s on non-alphanumerics and lower→upper case boundaries.
func words(s string) []string {
	var (
		out     []string
		current []rune
	)
	flush := func() {
		if len(current) > 0 {
			out = append(out, string(current))
			current = current[:0]
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if unicode.IsUpper(r) && len(current) > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		current = append(current, r)
	}
	flush()
	return out
}

func joinLower(s, sep string) string {
	parts := words(s)
	for i, p := range parts {
		parts[i] = strings.ToLower(p)
	}
	return strings.Join(parts, sep)
}

// SnakeCase converts "My Cool Project" to "my_cool_project".
func SnakeCase(s string) string { return joinLower(s, "_") }

// KebabCase converts "My Cool Project" to "my-cool-project".
func KebabCase(s string) string { return joinLower(s, "-") }

// PascalCase converts "my cool project" to "MyCoolProject".
func PascalCase(s string) string {
	title := cases.Title(language.Und)
	parts := words(s)
	for i, p := range parts {
		parts[i] = title.String(p)
	}
	return strings.Join(parts, "")
}

// CamelCase converts "my cool project" to "myCoolProject".
func CamelCase(s string) string {
	p := PascalCase(s)
	r, size := utf8.DecodeRuneInString(p)
	if r == utf8.RuneError {
		return p
	}
	return string(unicode.ToLower(r)) + p[size:]
}

var (
	slugStrip    = regexp.MustCompile(`[^\w\s-]`)
	slugCollapse = regexp.MustCompile(`[-\s_]+`)
)

// Slugify converts "My Cool Project!" to "my-cool-project".
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugStrip.ReplaceAllString(s, "")
	s = slugCollapse.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
