package analytics

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrFetchFailed = errors.New("document fetch failed")
)

// PipelineError reports the collection whose fetch aborted a run.
type PipelineError struct {
	Collection string
	Err        error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.Collection, e.Err)
}

// Unwrap exposes both ErrFetchFailed and the source error to errors.Is.
func (e *PipelineError) Unwrap() []error {
	return []error{ErrFetchFailed, e.Err}
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}
