package plans

import (
	"errors"
	"fmt"

	"innovation-backend/internal/readiness"
)

var (
	ErrNotFound        = errors.New("plan not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrForbidden       = errors.New("forbidden")
	ErrVersionConflict = errors.New("plan version conflict")
	ErrNotEditable     = errors.New("plan is not editable in its current status")
	ErrInvalidStatus   = errors.New("status transition not allowed")
	ErrNotSubmittable  = errors.New("plan does not pass the submission gate")
)

// ConflictError reports a stale write and carries the stored plan.
type ConflictError struct {
	Current Record
	// Diff is a unified diff from the stored plan to the rejected one.
	Diff string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%v: stored version is %d", ErrVersionConflict, e.Current.Version)
}

func (e *ConflictError) Unwrap() error { return ErrVersionConflict }

// GateError is returned by Submit when validation blocks the plan.
type GateError struct {
	Validation readiness.Validation
}

func (e *GateError) Error() string {
	return fmt.Sprintf("%v: %d critical issues, score %d", ErrNotSubmittable, e.Validation.CriticalCount, e.Validation.Score)
}

func (e *GateError) Unwrap() error { return ErrNotSubmittable }
