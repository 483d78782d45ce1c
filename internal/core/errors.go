package core

import "errors"

// Hard domain failures. Everything else in the engine is absorbed with a
// documented default (soft SKU lookup misses, numeric coercion).
var (
	// ErrInvalidParent is returned when a sub-component is added under a
	// component that is not a sub-assembly.
	ErrInvalidParent = errors.New("parent component is not a sub-assembly")

	// ErrCyclicReference is returned when a sub-assembly link would make a
	// BOM contain itself, directly or transitively.
	ErrCyclicReference = errors.New("sub-assembly reference creates a cycle")

	// ErrReleased is returned when a structural or cost mutation is attempted
	// on a RELEASED or OBSOLETE document. Released documents change only
	// through a new revision.
	ErrReleased = errors.New("document is released; create a revision to edit")

	// ErrVersionConflict is returned by SaveBOM when the stored document has
	// moved past the version the caller loaded.
	ErrVersionConflict = errors.New("document was modified by another session")

	// ErrInvalidTransition is returned for a status change outside the
	// DRAFT → UNDER_REVIEW → RELEASED → OBSOLETE path.
	ErrInvalidTransition = errors.New("invalid status transition")
)
