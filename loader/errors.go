package loader

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a schema name has no candidate documents.
	ErrNotFound = errors.New("schema not found")
	// ErrNoParent is returned for a "parent" reference from the least
	// specific candidate.
	ErrNoParent = errors.New("parent schema missing")
	// ErrMaxDepth is returned when extends/import nesting exceeds
	// Options.MaxDepth.
	ErrMaxDepth = errors.New("schema nesting too deep")
)

// LoadError is the single diagnostic a failed load yields.
type LoadError struct {
	Name     string // schema name being loaded
	Location string // candidate that failed, when known
	Err      error
}

func (e *LoadError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("load schema %q (%s): %v", e.Name, e.Location, e.Err)
	}
	return fmt.Sprintf("load schema %q: %v", e.Name, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// CyclicReferenceError reports an extends or import chain that returns to a
// schema already being resolved. Chain ends with the repeated reference.
type CyclicReferenceError struct {
	Chain []string
}

func (e *CyclicReferenceError) Error() string {
	return "cyclic schema reference: " + strings.Join(e.Chain, " -> ")
}

func wrap(name, loc string, err error) error {
	var le *LoadError
	if errors.As(err, &le) {
		return err
	}
	return &LoadError{Name: name, Location: loc, Err: err}
}
