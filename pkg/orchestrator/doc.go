// Package orchestrator wires source resolution, config loading, variable
// collection, materialization, answers persistence and the three-way merge
// into the generate and update operations.
package orchestrator
