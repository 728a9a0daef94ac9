package exports

import "errors"

var (
	ErrNotFound      = errors.New("export not found")
	ErrPlanNotFound  = errors.New("plan not found")
	ErrInvalidFormat = errors.New("unsupported export format")
	ErrForbidden     = errors.New("forbidden")
	ErrNotReady      = errors.New("export is not ready")
)
