package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrArticleNotFound signals a missing article.
	ErrArticleNotFound = errors.New("article not found")
	// ErrClusterNotFound signals a missing story cluster.
	ErrClusterNotFound = errors.New("cluster not found")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrDraftProviderError signals a draft generation provider failure.
	ErrDraftProviderError = errors.New("draft provider error")
	// ErrMembershipConflict signals an article claiming membership in two clusters.
	ErrMembershipConflict = errors.New("cluster membership conflict")
	// ErrRunFailed signals a run-level pipeline failure with no partial output.
	ErrRunFailed = errors.New("pipeline run failed")
)

// RunFailure wraps ErrRunFailed with the stage that aborted the run.
// Callers distinguish "zero hot stories" from "the run failed" via errors.Is.
type RunFailure struct {
	Stage string
	Err   error
}

func (e *RunFailure) Error() string {
	return fmt.Sprintf("%s: stage %s: %s", ErrRunFailed.Error(), e.Stage, e.Err.Error())
}

func (e *RunFailure) Unwrap() error { return ErrRunFailed }

// NewRunFailure creates a run-level failure for the given stage.
func NewRunFailure(stage string, err error) error {
	return &RunFailure{Stage: stage, Err: err}
}
