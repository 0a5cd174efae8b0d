// Package template defines the expression evaluator seam used for computed
// values, visibility predicates, path components and file contents, plus a
// small reference scanner that reports which variables an expression reads.
package template
