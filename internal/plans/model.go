package plans

import (
	"time"

	"innovation-backend/internal/strategy"
)

// Status is the approval lifecycle state of a plan.
type Status string

const (
	StatusDraft           Status = "draft"
	StatusPendingApproval Status = "pending_approval"
	StatusApproved        Status = "approved"
	StatusArchived        Status = "archived"
)

// transitions lists the allowed manual status changes. Submission into
// pending_approval goes through Submit and its gate instead.
var transitions = map[Status][]Status{
	StatusDraft:           {StatusArchived},
	StatusPendingApproval: {StatusApproved, StatusDraft, StatusArchived},
	StatusApproved:        {StatusArchived},
}

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPendingApproval, StatusApproved, StatusArchived:
		return true
	}
	return false
}

// CanTransition reports whether a manual change from s to next is allowed.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Record is a persisted strategic plan.
type Record struct {
	ID          string
	OwnerID     string
	Status      Status
	TemplateID  string
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	SubmittedAt *time.Time
	Plan        strategy.Plan
}
