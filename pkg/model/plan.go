package model

import "io/fs"

// PlannedFile is one materializer output: a project-relative path (slash
// separated) and its bytes. Copy is true when the bytes were taken verbatim.
type PlannedFile struct {
	Path    string
	Content []byte
	Copy    bool
	Mode    fs.FileMode
	Digest  string
}

// GenerationPlan is the ordered set of files a render would write.
type GenerationPlan struct {
	Files    []PlannedFile
	Warnings []string
}

// Paths returns the planned paths in order.
func (p GenerationPlan) Paths() []string {
	out := make([]string, len(p.Files))
	for i, f := range p.Files {
		out[i] = f.Path
	}
	return out
}

// GeneratedProject summarizes a completed generation.
type GeneratedProject struct {
	OutputDir    string
	FilesCreated []string
	FilesCopied  []string
	Warnings     []string
}
