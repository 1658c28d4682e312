package page

import (
	"errors"
	"fmt"
)

// Page is a read-only handle onto one loaded listing page. Extraction
// strategies share a single Page per record and never mutate it, so a
// Page needs no synchronization as long as each worker owns its own
// accessor session.
type Page interface {
	// URL returns the address the page was loaded from.
	URL() string
	// QueryAll returns every element matching the structural selector.
	// A selector that matches nothing returns an empty slice, never an error.
	QueryAll(selector string) []Element
	// FullText returns the rendered page text, one line per visual block.
	FullText() string
}

// Element is one node returned by a structural query.
type Element interface {
	Text() string
	Attribute(name string) (string, bool)
	// Click and ScrollIntoView exist for reveal-style controls. Accessors
	// that cannot interact return ErrNoInteraction; callers treat any
	// interaction failure as a strategy-level miss.
	Click() error
	ScrollIntoView() error
}

// ErrNoInteraction is returned by accessors that serve static snapshots.
var ErrNoInteraction = errors.New("page: accessor does not support interaction")

// LoadError means the page never loaded or never reached a ready state.
// It is fatal for the record: no extraction is attempted and no
// persistence call is made.
type LoadError struct {
	URL string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("page load failed for %s: %v", e.URL, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
