package merge

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const removalMessage = "This file was removed in the updated template.\n" +
	"Review and delete it manually if no longer needed.\n"

// UnifiedDiff renders a unified diff with three lines of context. The
// "--- a/path" / "+++ b/path" header is always present.
func UnifiedDiff(from, to, path string) string {
	header := fmt.Sprintf("--- a/%s\n+++ b/%s\n", path, path)
	if from == to {
		return header
	}
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(from),
		B:        difflib.SplitLines(to),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	})
	if err != nil || text == "" {
		return header
	}
	return text
}

// RejectContent builds the body of a ".rej" artifact. base is nil when the
// old snapshot has no version of the file.
func RejectContent(path string, base *string, user, next string) string {
	var b strings.Builder
	if base != nil {
		fmt.Fprintf(&b, "# Conflict in %s\n", path)
		b.WriteString("# Three-way diff: base (old template) vs yours vs new template\n\n")
		fmt.Fprintf(&b, "## Base version (old template):\n%s\n\n", *base)
		fmt.Fprintf(&b, "## Your version:\n%s\n\n", user)
		fmt.Fprintf(&b, "## New template version:\n%s\n\n", next)
		fmt.Fprintf(&b, "## Diff: base -> new template:\n%s\n\n", UnifiedDiff(*base, next, path))
		fmt.Fprintf(&b, "## Diff: your version -> new template:\n%s\n", UnifiedDiff(user, next, path))
		return b.String()
	}
	fmt.Fprintf(&b, "# Conflict in %s\n", path)
	b.WriteString("# Both you and the template created/modified this file differently.\n\n")
	fmt.Fprintf(&b, "## Your version:\n%s\n\n", user)
	fmt.Fprintf(&b, "## New template version:\n%s\n\n", next)
	fmt.Fprintf(&b, "## Diff (yours -> template):\n%s\n", UnifiedDiff(user, next, path))
	return b.String()
}
