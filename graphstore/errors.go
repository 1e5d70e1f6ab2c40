package graphstore

import "errors"

var (
	// ErrUnavailable is returned when the backing store cannot be reached
	// for a write. Reads against an unreachable store yield empty results.
	ErrUnavailable = errors.New("graph store unavailable")

	// ErrInvalidNode is returned for upserts with an empty name or label.
	ErrInvalidNode = errors.New("node requires a name and label")

	// ErrInvalidEdge is returned for upserts with empty endpoints or type.
	ErrInvalidEdge = errors.New("edge requires endpoints and a type")

	// ErrInvalidDepth is returned for a non-positive traversal depth.
	ErrInvalidDepth = errors.New("traversal depth must be positive")
)
