package planitems

import "errors"

var (
	ErrNotFound        = errors.New("item not found")
	ErrPlanNotFound    = errors.New("plan not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrForbidden       = errors.New("forbidden")
	ErrPlanLocked      = errors.New("plan is not editable")
	ErrVersionConflict = errors.New("item version conflict")
)
