// Package resolver builds a Resolution — the full transitive dependency
// set for a manifest — via a priority-queue-of-goals backtracking solver.
// It has no teacher grounding (none of the example repos resolves
// dependency graphs); the shapes it does borrow — a Decision-stack
// backtracking structure, deterministic candidate ordering, a
// context-driven timeout — follow the general pattern the teacher and
// pack repos use for any bounded, cancellable search (see DESIGN.md).
package resolver
