package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a schema violation with no safe correction.
	ErrValidation = errors.New("validation failed")
	// ErrNetworkFailure marks a failed image fetch or upload. It only ever
	// degrades an item, it never fails one.
	ErrNetworkFailure = errors.New("network failure")
	// ErrDuplicateSlug is returned by stores when a slug is already taken.
	ErrDuplicateSlug = errors.New("duplicate slug")
	// ErrDuplicateSlugExhausted means every suffixed candidate was taken.
	ErrDuplicateSlugExhausted = errors.New("slug candidates exhausted")
	// ErrPersistence marks a write rejected by the storage layer.
	ErrPersistence = errors.New("persistence error")
	// ErrEmptyBatch rejects a batch before orchestration begins.
	ErrEmptyBatch = errors.New("batch contains no items")
)

// Stage names an item lifecycle state.
type Stage string

const (
	StagePending     Stage = "pending"
	StageNormalizing Stage = "normalizing"
	StageValidating  Stage = "validating"
	StageEnriching   Stage = "enriching"
	StagePersisting  Stage = "persisting"
	StageSucceeded   Stage = "succeeded"
	StageFailed      Stage = "failed"
)

// ImportError records which stage an item failed in.
type ImportError struct {
	Index int
	Stage Stage
	Err   error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("item %d failed while %s: %v", e.Index, e.Stage, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }
