package model

// SourceInfo records where a template came from.
type SourceInfo struct {
	URL    string
	Ref    string
	Commit string
}

// SavedAnswers is the persisted state of the last generation or update.
// Secret variables are never part of Answers.
type SavedAnswers struct {
	TemplateName    string
	TemplateVersion string
	TemplateSource  string
	TemplateRef     string
	CommitSHA       string
	ToolVersion     string
	Answers         map[string]Value
}
