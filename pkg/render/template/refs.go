package template

import (
	"sort"
	"strings"
)

var keywords = map[string]struct{}{
	"if": {}, "elif": {}, "else": {}, "endif": {},
	"for": {}, "in": {}, "endfor": {}, "empty": {},
	"and": {}, "or": {}, "not": {}, "is": {},
	"true": {}, "false": {}, "True": {}, "False": {},
	"none": {}, "None": {}, "nil": {},
	"set": {}, "with": {}, "endwith": {}, "only": {},
	"macro": {}, "endmacro": {}, "import": {}, "include": {},
	"filter": {}, "endfilter": {}, "autoescape": {}, "endautoescape": {},
	"raw": {}, "endraw": {}, "comment": {}, "endcomment": {},
	"as": {}, "loop": {}, "forloop": {},
}

// References returns the sorted set of top-level identifiers that text reads
// inside `{{ }}` and `{% %}` tags. Filter names, attribute accesses, string
// literals and keywords are skipped; loop locals may be reported.
func References(text string) []string {
	seen := map[string]struct{}{}
	for _, body := range tagBodies(text) {
		for _, ref := range scanReferences(body) {
			seen[ref.name] = struct{}{}
		}
	}
	return sortedSet(seen)
}

// Attributes returns the sorted set of attribute names text reads directly
// off the top-level identifier root, e.g. "owner" for `{{ ns.owner }}`.
func Attributes(text, root string) []string {
	seen := map[string]struct{}{}
	for _, body := range tagBodies(text) {
		for _, ref := range scanReferences(body) {
			if ref.name == root && ref.attr != "" {
				seen[ref.attr] = struct{}{}
			}
		}
	}
	return sortedSet(seen)
}

func sortedSet(seen map[string]struct{}) []string {
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func tagBodies(text string) []string {
	var bodies []string
	for {
		start := strings.IndexByte(text, '{')
		if start < 0 || start+1 >= len(text) {
			return bodies
		}
		var closing string
		switch text[start+1] {
		case '{':
			closing = "}}"
		case '%':
			closing = "%}"
		default:
			text = text[start+1:]
			continue
		}
		rest := text[start+2:]
		end := strings.Index(rest, closing)
		if end < 0 {
			return append(bodies, rest)
		}
		bodies = append(bodies, rest[:end])
		text = rest[end+2:]
	}
}

type reference struct {
	name string
	attr string
}

func scanReferences(body string) []reference {
	var (
		out  []reference
		prev byte
		i    int
	)
	for i < len(body) {
		ch := body[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '-' && (i == 0 || i == len(body)-1):
			i++
			continue
		case ch == '"' || ch == '\'':
			quote := ch
			i++
			for i < len(body) && body[i] != quote {
				if body[i] == '\\' {
					i++
				}
				i++
			}
			i++
			prev = '"'
			continue
		case isIdentStart(ch):
			var word string
			word, i = readIdent(body, i)
			if prev != '|' && prev != '.' {
				if _, kw := keywords[word]; !kw {
					ref := reference{name: word}
					if i+1 < len(body) && body[i] == '.' && isIdentStart(body[i+1]) {
						ref.attr, i = readIdent(body, i+1)
					}
					out = append(out, ref)
				}
			}
			prev = 'a'
			continue
		case ch >= '0' && ch <= '9':
			for i < len(body) && (isIdentPart(body[i]) || body[i] == '.') {
				i++
			}
			prev = '0'
			continue
		default:
			prev = ch
			i++
		}
	}
	return out
}

func readIdent(body string, start int) (string, int) {
	end := start
	for end < len(body) && isIdentPart(body[end]) {
		end++
	}
	return body[start:end], end
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}
