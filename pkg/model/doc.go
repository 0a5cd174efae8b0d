// Package model defines the typed data shared across the generation and update
// pipeline: variable declarations (VariableSpec) and their tagged values
// (Value), the immutable Environment handed to the evaluator, the resolved
// template description produced by the config loader, the PlannedFile units
// emitted by the materializer, the MergeAction classification produced by the
// three-way merge, and the SavedAnswers persisted into generated projects.
//
// Values cross three representations: the persisted TOML form, the evaluator
// facing form (plain Go scalars and []any), and the typed Value used in
// between. FromAny and Value.Interface are the only conversion points and both
// are total over the supported shapes.
package model
