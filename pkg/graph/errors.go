package graph

import (
	"errors"
	"fmt"
)

// Sentinel errors for graph construction.
var (
	// ErrEmptyPath is returned when a node or dependency endpoint is empty.
	ErrEmptyPath = errors.New("path must not be empty")

	// ErrFrozen is returned when mutating a graph after Freeze().
	ErrFrozen = errors.New("graph is frozen and cannot be modified")
)

// ConstructionError reports a rejected insertion. The graph is unchanged
// when one is returned.
type ConstructionError struct {
	Op   string // "add node" or "add dependency"
	From string
	To   string
	Err  error
}

// Error returns a formatted error message
func (e *ConstructionError) Error() string {
	if e.Op == "add node" {
		return fmt.Sprintf("graph %s %q: %v", e.Op, e.From, e.Err)
	}
	return fmt.Sprintf("graph %s %q -> %q: %v", e.Op, e.From, e.To, e.Err)
}

// Unwrap exposes the underlying sentinel
func (e *ConstructionError) Unwrap() error {
	return e.Err
}
