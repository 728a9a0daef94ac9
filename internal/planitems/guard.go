package planitems

import (
	"context"
	"errors"

	"innovation-backend/internal/shared/auth"
	"innovation-backend/internal/shared/storage/backend"
)

const planStatusDraft = "draft"

// Guard decides whether a caller may read or change a plan's items.
type Guard interface {
	Authorize(ctx context.Context, caller auth.Caller, planID string, write bool) error
}

// PlanGuard checks ownership against the stored plan row. Writes are only
// allowed while the plan is a draft.
type PlanGuard struct {
	Client backend.Client
}

func (g PlanGuard) Authorize(ctx context.Context, caller auth.Caller, planID string, write bool) error {
	if err := caller.RequireUser(); err != nil {
		return err
	}
	if planID == "" {
		return ErrInvalidInput
	}
	row, err := g.Client.Get(ctx, backend.TablePlans, planID)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return ErrPlanNotFound
		}
		return err
	}
	if !caller.Owns(row.String("owner_id")) {
		return ErrForbidden
	}
	if write && row.String("status") != planStatusDraft {
		return ErrPlanLocked
	}
	return nil
}
