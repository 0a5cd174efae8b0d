// Package merge implements the three-way comparison between the old template
// rendering, the new template rendering and the user's project, and applies
// the resulting actions without ever destroying user content.
package merge

import (
	"context"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
	"github.com/zeebo/blake3"

	"github.com/goliatone/go-diecut/pkg/errs"
	"github.com/goliatone/go-diecut/pkg/logging"
	"github.com/goliatone/go-diecut/pkg/model"
)

const (
	// RejectSuffix is appended to a conflicting path for its artifact.
	RejectSuffix = ".rej"
	// RemovalSuffix is appended to a path the template no longer ships.
	RemovalSuffix = ".removing"
)

// Option configures an Engine.
type Option func(*Engine)

// WithFs sets the file system for the project and both snapshots.
func WithFs(fsys afero.Fs) Option {
	return func(e *Engine) {
		if fsys != nil {
			e.projectFs = fsys
			e.snapshotFs = fsys
		}
	}
}

// WithSnapshotFs sets the file system the old and new snapshots live on.
func WithSnapshotFs(fsys afero.Fs) Option {
	return func(e *Engine) {
		if fsys != nil {
			e.snapshotFs = fsys
		}
	}
}

// WithIgnore skips root-relative paths (e.g. the answers file) in every tree.
func WithIgnore(paths ...string) Option {
	return func(e *Engine) {
		for _, p := range paths {
			if p != "" {
				e.ignore[filepath.ToSlash(p)] = struct{}{}
			}
		}
	}
}

// Engine classifies and applies three-way merges.
type Engine struct {
	projectFs  afero.Fs
	snapshotFs afero.Fs
	ignore     map[string]struct{}
}

// New returns an Engine on the OS file system ignoring the default answers
// file.
func New(options ...Option) *Engine {
	e := &Engine{
		projectFs:  afero.NewOsFs(),
		snapshotFs: afero.NewOsFs(),
		ignore:     map[string]struct{}{model.DefaultAnswersFile: {}},
	}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

type tree struct {
	fs      afero.Fs
	root    string
	files   map[string]struct{}
	digests map[string]string
}

// ThreeWayMerge classifies every path in the union of the three trees and
// returns the non-Unchanged results sorted by path. Missing roots count as
// empty trees.
func (e *Engine) ThreeWayMerge(ctx context.Context, projectDir, oldDir, newDir string) ([]model.FileMergeResult, error) {
	logger := logging.GetLogger("merge")

	project, err := e.collect(e.projectFs, projectDir)
	if err != nil {
		return nil, err
	}
	old, err := e.collect(e.snapshotFs, oldDir)
	if err != nil {
		return nil, err
	}
	next, err := e.collect(e.snapshotFs, newDir)
	if err != nil {
		return nil, err
	}

	union := map[string]struct{}{}
	for _, t := range []*tree{project, old, next} {
		for p := range t.files {
			union[p] = struct{}{}
		}
	}
	paths := make([]string, 0, len(union))
	for p := range union {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var results []model.FileMergeResult
	for _, rel := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		state := FileState{
			InOld:     old.has(rel),
			InNew:     next.has(rel),
			InProject: project.has(rel),
		}
		if state.InProject && state.InOld {
			if state.ProjectEqOld, err = equal(project, old, rel); err != nil {
				return nil, err
			}
		}
		if state.InOld && state.InNew {
			if state.OldEqNew, err = equal(old, next, rel); err != nil {
				return nil, err
			}
		}
		if state.InProject && state.InNew {
			if state.ProjectEqNew, err = equal(project, next, rel); err != nil {
				return nil, err
			}
		}

		action := Classify(state)
		logger.Debug().Str("path", rel).Str("action", action.String()).Msg("classified")
		if action != model.Unchanged {
			results = append(results, model.FileMergeResult{Path: rel, Action: action})
		}
	}
	return results, nil
}

// Apply performs the effects of results. UpdateFromTemplate and
// AddFromTemplate copy the new snapshot over the project path. MarkForRemoval
// and Conflict never touch the project file; they write a ".removing" or
// ".rej" sibling instead. Writes are not transactional.
func (e *Engine) Apply(ctx context.Context, projectDir, oldDir, newDir string, results []model.FileMergeResult) error {
	logger := logging.GetLogger("merge")

	for _, result := range results {
		if err := ctx.Err(); err != nil {
			return err
		}
		target := filepath.Join(projectDir, filepath.FromSlash(result.Path))

		switch result.Action {
		case model.UpdateFromTemplate, model.AddFromTemplate:
			src := filepath.Join(newDir, filepath.FromSlash(result.Path))
			if err := e.copyFromSnapshot(src, target); err != nil {
				return err
			}
		case model.MarkForRemoval:
			if err := e.writeArtifact(target+RemovalSuffix, []byte(removalMessage)); err != nil {
				return err
			}
		case model.Conflict:
			body, err := e.rejectBody(result.Path, target, oldDir, newDir)
			if err != nil {
				return err
			}
			if err := e.writeArtifact(target+RejectSuffix, []byte(body)); err != nil {
				return err
			}
		default:
			continue
		}
		logger.Debug().Str("path", result.Path).Str("action", result.Action.String()).Msg("applied")
	}
	return nil
}

func (e *Engine) collect(fsys afero.Fs, root string) (*tree, error) {
	t := &tree{fs: fsys, root: root, files: map[string]struct{}{}, digests: map[string]string{}}
	ok, err := afero.DirExists(fsys, root)
	if err != nil {
		return nil, errs.IO(err, "checking %s", root)
	}
	if !ok {
		return t, nil
	}

	err = afero.Walk(fsys, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return errs.IO(err, "walking %s", p)
		}
		if info.IsDir() {
			if info.Name() == ".git" && p != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return errs.IO(err, "relativizing %s", p)
		}
		rel = filepath.ToSlash(rel)
		if _, skip := e.ignore[rel]; skip {
			return nil
		}
		t.files[rel] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (t *tree) has(rel string) bool {
	_, ok := t.files[rel]
	return ok
}

func (t *tree) path(rel string) string {
	return filepath.Join(t.root, filepath.FromSlash(rel))
}

// digest hashes a file once per tree.
func (t *tree) digest(rel string) (string, error) {
	if d, ok := t.digests[rel]; ok {
		return d, nil
	}
	f, err := t.fs.Open(t.path(rel))
	if err != nil {
		return "", errs.IO(err, "reading %s", t.path(rel))
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errs.IO(err, "reading %s", t.path(rel))
	}
	d := hex.EncodeToString(h.Sum(nil))
	t.digests[rel] = d
	return d, nil
}

func equal(a, b *tree, rel string) (bool, error) {
	ia, err := a.fs.Stat(a.path(rel))
	if err != nil {
		return false, errs.IO(err, "reading %s", a.path(rel))
	}
	ib, err := b.fs.Stat(b.path(rel))
	if err != nil {
		return false, errs.IO(err, "reading %s", b.path(rel))
	}
	if ia.Size() != ib.Size() {
		return false, nil
	}
	da, err := a.digest(rel)
	if err != nil {
		return false, err
	}
	db, err := b.digest(rel)
	if err != nil {
		return false, err
	}
	return da == db, nil
}

func (e *Engine) copyFromSnapshot(src, dest string) error {
	data, err := afero.ReadFile(e.snapshotFs, src)
	if err != nil {
		return errs.IO(err, "reading %s", src)
	}
	mode := os.FileMode(0o644)
	if info, err := e.snapshotFs.Stat(src); err == nil {
		mode = info.Mode().Perm()
	}
	if err := e.projectFs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errs.IO(err, "creating directory %s", filepath.Dir(dest))
	}
	if err := afero.WriteFile(e.projectFs, dest, data, mode); err != nil {
		return errs.IO(err, "copying %s to %s", src, dest)
	}
	return nil
}

func (e *Engine) writeArtifact(dest string, body []byte) error {
	if err := e.projectFs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errs.IO(err, "creating directory %s", filepath.Dir(dest))
	}
	if err := afero.WriteFile(e.projectFs, dest, body, 0o644); err != nil {
		return errs.IO(err, "writing %s", dest)
	}
	return nil
}

func (e *Engine) rejectBody(rel, target, oldDir, newDir string) (string, error) {
	user, err := readOptional(e.projectFs, target)
	if err != nil {
		return "", err
	}
	next, err := readOptional(e.snapshotFs, filepath.Join(newDir, filepath.FromSlash(rel)))
	if err != nil {
		return "", err
	}

	oldPath := filepath.Join(oldDir, filepath.FromSlash(rel))
	exists, err := afero.Exists(e.snapshotFs, oldPath)
	if err != nil {
		return "", errs.IO(err, "checking %s", oldPath)
	}
	if !exists {
		return RejectContent(rel, nil, user, next), nil
	}
	base, err := readOptional(e.snapshotFs, oldPath)
	if err != nil {
		return "", err
	}
	return RejectContent(rel, &base, user, next), nil
}

// readOptional returns "" for a missing file.
func readOptional(fsys afero.Fs, p string) (string, error) {
	data, err := afero.ReadFile(fsys, p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errs.IO(err, "reading %s", p)
	}
	return string(data), nil
}
