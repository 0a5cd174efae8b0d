// Package diecut generates projects from templates and keeps them in sync
// with later template versions through a three-way merge.
package diecut

import (
	"context"

	"github.com/goliatone/go-diecut/pkg/orchestrator"
)

// GenerateRequest describes one project generation; alias exported via the
// root package for convenience.
type GenerateRequest = orchestrator.GenerateRequest

// GenerateResult reports the plan and the materialized project.
type GenerateResult = orchestrator.GenerateResult

// UpdateRequest describes an update of a previously generated project.
type UpdateRequest = orchestrator.UpdateRequest

// UpdateReport buckets the merge results of an update.
type UpdateReport = orchestrator.UpdateReport

// Option configures the orchestrator behind the root helpers.
type Option = orchestrator.Option

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// Generate resolves the template, collects variables and writes the project.
// It is the simplest entry point for callers that do not need to reuse an
// orchestrator.
func Generate(ctx context.Context, req GenerateRequest, options ...Option) (GenerateResult, error) {
	return orchestrator.New(options...).Generate(ctx, req)
}

// Update merges the latest template into an existing project.
func Update(ctx context.Context, req UpdateRequest, options ...Option) (UpdateReport, error) {
	return orchestrator.New(options...).Update(ctx, req)
}

// PlanUpdate computes the update report without touching the project.
func PlanUpdate(ctx context.Context, req UpdateRequest, options ...Option) (UpdateReport, error) {
	return orchestrator.New(options...).PlanUpdate(ctx, req)
}
