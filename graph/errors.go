package graph

import "errors"

// Sentinel errors returned by the graph API. Mutation-time errors fail
// only the offending call and leave the graph unchanged.
var (
	// ErrNotFound is returned when an id is not in the index.
	ErrNotFound = errors.New("node not found")

	// ErrDuplicateID is returned by CreateNode when the id is taken and
	// the caller did not opt into the conflict-retention policy.
	ErrDuplicateID = errors.New("duplicate node id")

	// ErrConfirmationRequired is returned by destructive mutations called
	// without the confirmation flag.
	ErrConfirmationRequired = errors.New("confirmation required for destructive mutation")

	// ErrUnknownNode is returned by mutations referencing a missing id.
	ErrUnknownNode = errors.New("unknown node id")

	// ErrUnknownEdge is returned by edge mutations when no edge matches.
	ErrUnknownEdge = errors.New("unknown edge")

	// ErrInvalidSequence is returned by UndoTo for a missing undo target.
	ErrInvalidSequence = errors.New("invalid mutation sequence")
)
