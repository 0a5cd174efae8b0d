package merge

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-diecut/pkg/model"
	"github.com/goliatone/go-diecut/pkg/testsupport"
)

type trees struct {
	old, next, project map[string]string
}

func setup(t *testing.T, tr trees) (afero.Fs, *Engine) {
	t.Helper()

	fsys := testsupport.NewFs()
	for root, files := range map[string]map[string]string{"/old": tr.old, "/new": tr.next, "/project": tr.project} {
		require.NoError(t, fsys.MkdirAll(root, 0o755))
		testsupport.WriteTree(t, fsys, root, files)
	}
	return fsys, New(WithFs(fsys))
}

func mergeAndApply(t *testing.T, fsys afero.Fs, e *Engine) []model.FileMergeResult {
	t.Helper()

	results, err := e.ThreeWayMerge(context.Background(), "/project", "/old", "/new")
	require.NoError(t, err)
	require.NoError(t, e.Apply(context.Background(), "/project", "/old", "/new", results))
	return results
}

func TestMerge_AllStableHasNoEntries(t *testing.T) {
	fsys, e := setup(t, trees{
		old:     map[string]string{"f.txt": "original"},
		next:    map[string]string{"f.txt": "original"},
		project: map[string]string{"f.txt": "original"},
	})

	results := mergeAndApply(t, fsys, e)
	assert.Empty(t, results)
}

func TestMerge_UpdateFromTemplate(t *testing.T) {
	fsys, e := setup(t, trees{
		old:     map[string]string{"f.txt": "original"},
		next:    map[string]string{"f.txt": "updated"},
		project: map[string]string{"f.txt": "original"},
	})

	results := mergeAndApply(t, fsys, e)
	assert.Equal(t, []model.FileMergeResult{{Path: "f.txt", Action: model.UpdateFromTemplate}}, results)
	testsupport.AssertTree(t, fsys, "/project", map[string]string{"f.txt": "updated"})
}

func TestMerge_ConflictWritesReject(t *testing.T) {
	fsys, e := setup(t, trees{
		old:     map[string]string{"f.txt": "original"},
		next:    map[string]string{"f.txt": "template changed"},
		project: map[string]string{"f.txt": "user changed"},
	})

	results := mergeAndApply(t, fsys, e)
	assert.Equal(t, []model.FileMergeResult{{Path: "f.txt", Action: model.Conflict}}, results)

	tree := testsupport.ReadTree(t, fsys, "/project")
	assert.Equal(t, "user changed", tree["f.txt"], "conflicting file must stay untouched")
	rej, ok := tree["f.txt.rej"]
	require.True(t, ok, "expected .rej sibling, got %v", tree)
	assert.Contains(t, rej, "# Conflict in f.txt\n")
	assert.Contains(t, rej, "## Base version (old template):\noriginal\n")
	assert.Contains(t, rej, "## Your version:\nuser changed\n")
	assert.Contains(t, rej, "## New template version:\ntemplate changed\n")
	assert.Contains(t, rej, "--- a/f.txt\n+++ b/f.txt\n")
	assert.Contains(t, rej, "-user changed\n+template changed\n")
}

func TestMerge_MarkForRemoval(t *testing.T) {
	fsys, e := setup(t, trees{
		old:     map[string]string{"gone.txt": "original", "stay.txt": "s"},
		next:    map[string]string{"stay.txt": "s"},
		project: map[string]string{"gone.txt": "original", "stay.txt": "s"},
	})

	results := mergeAndApply(t, fsys, e)
	assert.Equal(t, []model.FileMergeResult{{Path: "gone.txt", Action: model.MarkForRemoval}}, results)
	testsupport.AssertTree(t, fsys, "/project", map[string]string{
		"gone.txt":          "original",
		"gone.txt.removing": removalMessage,
		"stay.txt":          "s",
	})
}

func TestMerge_FullMatrix(t *testing.T) {
	fsys, e := setup(t, trees{
		old: map[string]string{
			"user_edit.txt":    "base",
			"both_same.txt":    "base",
			"removed_edit.txt": "base",
			"deleted.txt":      "same",
			"deleted_chg.txt":  "v1",
			"only_old.txt":     "x",
			"nested/deep.txt":  "base",
		},
		next: map[string]string{
			"user_edit.txt":   "base",
			"both_same.txt":   "converged",
			"added.txt":       "new file",
			"deleted.txt":     "same",
			"deleted_chg.txt": "v2",
			"created_eq.txt":  "same",
			"created_ne.txt":  "template",
			"nested/deep.txt": "next",
		},
		project: map[string]string{
			"user_edit.txt":        "mine",
			"both_same.txt":        "converged",
			"removed_edit.txt":     "mine",
			"user_only.txt":        "mine",
			"created_eq.txt":       "same",
			"created_ne.txt":       "mine",
			"nested/deep.txt":      "base",
			".diecut-answers.toml": "ignored",
			".git/HEAD":            "ref: refs/heads/main",
		},
	})

	results, err := e.ThreeWayMerge(context.Background(), "/project", "/old", "/new")
	require.NoError(t, err)

	want := []model.FileMergeResult{
		{Path: "added.txt", Action: model.AddFromTemplate},
		{Path: "created_ne.txt", Action: model.Conflict},
		{Path: "deleted.txt", Action: model.KeepUser},
		{Path: "deleted_chg.txt", Action: model.Conflict},
		{Path: "nested/deep.txt", Action: model.UpdateFromTemplate},
		{Path: "removed_edit.txt", Action: model.Conflict},
		{Path: "user_edit.txt", Action: model.KeepUser},
		{Path: "user_only.txt", Action: model.KeepUser},
	}
	if diff := cmp.Diff(want, results); diff != "" {
		t.Fatalf("merge results mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, e.Apply(context.Background(), "/project", "/old", "/new", results))
	tree := testsupport.ReadTree(t, fsys, "/project")
	assert.Equal(t, "new file", tree["added.txt"])
	assert.Equal(t, "next", tree["nested/deep.txt"])
	assert.NotContains(t, tree, "deleted.txt", "user deletion must be respected")
	assert.Contains(t, tree["deleted_chg.txt.rej"], "## Your version:\n\n")
	assert.Contains(t, tree["created_ne.txt.rej"], "Both you and the template created/modified this file differently.")
	assert.Contains(t, tree["created_ne.txt.rej"], "## Diff (yours -> template):\n")
	assert.Equal(t, "mine", tree["removed_edit.txt"])
}

func TestMerge_MissingSnapshotIsEmpty(t *testing.T) {
	fsys := testsupport.NewFs()
	testsupport.WriteTree(t, fsys, "/project", map[string]string{"a.txt": "a"})

	results, err := New(WithFs(fsys)).ThreeWayMerge(context.Background(), "/project", "/missing-old", "/missing-new")
	require.NoError(t, err)
	assert.Equal(t, []model.FileMergeResult{{Path: "a.txt", Action: model.KeepUser}}, results)
}

func TestMerge_SeparateSnapshotFs(t *testing.T) {
	project := testsupport.NewFs()
	snapshots := testsupport.NewFs()
	testsupport.WriteTree(t, project, "/p", map[string]string{"f.txt": "original"})
	testsupport.WriteTree(t, snapshots, "/old", map[string]string{"f.txt": "original"})
	testsupport.WriteTree(t, snapshots, "/new", map[string]string{"f.txt": "updated", "g.txt": "added"})

	e := New(WithFs(project), WithSnapshotFs(snapshots), WithIgnore("custom-answers.toml"))
	results, err := e.ThreeWayMerge(context.Background(), "/p", "/old", "/new")
	require.NoError(t, err)
	require.NoError(t, e.Apply(context.Background(), "/p", "/old", "/new", results))
	testsupport.AssertTree(t, project, "/p", map[string]string{"f.txt": "updated", "g.txt": "added"})
}

func TestUnifiedDiff(t *testing.T) {
	assert.Equal(t, "--- a/x\n+++ b/x\n", UnifiedDiff("same\n", "same\n", "x"))

	got := UnifiedDiff("a\nb\nc\n", "a\nB\nc\n", "dir/x")
	assert.True(t, strings.HasPrefix(got, "--- a/dir/x\n+++ b/dir/x\n"), got)
	assert.Contains(t, got, "@@ -1,3 +1,3 @@\n a\n-b\n+B\n c\n")
}
