// Package variables turns a template's variable declarations into a concrete
// model.Environment.
//
// Collect runs in two phases. Non-computed variables are visited in
// declaration order: a false "when" predicate skips the variable entirely, an
// override wins, defaults mode uses the declared default, and anything left is
// prompted through a prompt.Driver. Computed variables are then resolved as a
// bounded fixed point so they may reference each other without a declared
// order.
//
// FromAnswers rebuilds an environment from persisted answers without
// prompting; the update flow renders its snapshots with it.
package variables
