package orchestrator

import (
	"fmt"

	"github.com/goliatone/go-diecut/pkg/model"
)

// UpdateReport groups merge results by action.
type UpdateReport struct {
	FilesUpdated []string `yaml:"files_updated,omitempty"`
	FilesAdded   []string `yaml:"files_added,omitempty"`
	FilesRemoved []string `yaml:"files_removed,omitempty"`
	Conflicts    []string `yaml:"conflicts,omitempty"`
	FilesKept    []string `yaml:"files_kept,omitempty"`

	Results []model.FileMergeResult `yaml:"results,omitempty"`
	DryRun  bool                    `yaml:"dry_run"`
}

// NewUpdateReport buckets results by action. Unchanged entries are ignored.
func NewUpdateReport(results []model.FileMergeResult) UpdateReport {
	report := UpdateReport{Results: results}
	for _, r := range results {
		switch r.Action {
		case model.UpdateFromTemplate:
			report.FilesUpdated = append(report.FilesUpdated, r.Path)
		case model.AddFromTemplate:
			report.FilesAdded = append(report.FilesAdded, r.Path)
		case model.MarkForRemoval:
			report.FilesRemoved = append(report.FilesRemoved, r.Path)
		case model.Conflict:
			report.Conflicts = append(report.Conflicts, r.Path)
		case model.KeepUser:
			report.FilesKept = append(report.FilesKept, r.Path)
		}
	}
	return report
}

// HasChanges reports whether the update touches the project. Kept files do
// not count.
func (r UpdateReport) HasChanges() bool {
	return len(r.FilesUpdated) > 0 || len(r.FilesAdded) > 0 || len(r.FilesRemoved) > 0 || len(r.Conflicts) > 0
}

func (r UpdateReport) String() string {
	return fmt.Sprintf("%d updated, %d added, %d marked for removal, %d conflicts",
		len(r.FilesUpdated), len(r.FilesAdded), len(r.FilesRemoved), len(r.Conflicts))
}
