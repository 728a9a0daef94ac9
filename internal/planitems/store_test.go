package planitems

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"innovation-backend/internal/readiness"
	"innovation-backend/internal/shared/auth"
	"innovation-backend/internal/shared/storage/backend"
	"innovation-backend/internal/strategy"
)

var owner = auth.Caller{UserID: "user-1"}

func seedPlan(t *testing.T, client backend.Client, ownerID, status string) string {
	t.Helper()
	row, err := client.Insert(context.Background(), backend.TablePlans, backend.Row{"owner_id": ownerID, "status": status})
	require.NoError(t, err)
	return row.ID()
}

// plainClient hides the Batcher capability and can fail inserts on demand.
type plainClient struct {
	backend.Client
	failAfter int32
	inserts   atomic.Int32
}

var errInjected = errors.New("injected failure")

func (p *plainClient) Insert(ctx context.Context, table string, row backend.Row) (backend.Row, error) {
	if n := p.inserts.Add(1); p.failAfter > 0 && n > p.failAfter {
		return nil, errInjected
	}
	return p.Client.Insert(ctx, table, row)
}

func TestStoreCRUD(t *testing.T) {
	mem := backend.NewMemory()
	planID := seedPlan(t, mem, owner.UserID, "draft")
	stores := NewStores(mem, 2)
	ctx := context.Background()

	rec, err := stores.Risks.Create(ctx, owner, planID, strategy.Risk{Title: "Vendor lock-in", Mitigation: "Open standards"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Version)
	assert.Equal(t, planID, rec.PlanID)

	updated, err := stores.Risks.Update(ctx, owner, planID, rec.ID, rec.Version, strategy.Risk{Title: "Vendor lock-in", Impact: "high"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, "high", updated.Item.Impact)
	assert.Empty(t, updated.Item.Mitigation)
	assert.Equal(t, rec.ID, updated.Item.ID)

	_, err = stores.Risks.Update(ctx, owner, planID, rec.ID, rec.Version, strategy.Risk{Title: "stale"})
	assert.ErrorIs(t, err, ErrVersionConflict)
	var conflict *backend.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, int64(2), conflict.Current.Version())

	list, err := stores.Risks.List(ctx, owner, planID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "high", list[0].Item.Impact)
	assert.Empty(t, list[0].Item.Mitigation)

	require.NoError(t, stores.Risks.Delete(ctx, owner, planID, rec.ID))
	list, err = stores.Risks.List(ctx, owner, planID)
	require.NoError(t, err)
	assert.Empty(t, list)

	raw, ok := mem.Raw(backend.TableRisks, rec.ID)
	require.True(t, ok)
	assert.True(t, raw.Deleted())
}

func TestStoreRejectsInvalidItems(t *testing.T) {
	mem := backend.NewMemory()
	planID := seedPlan(t, mem, owner.UserID, "draft")
	stores := NewStores(mem, 0)
	ctx := context.Background()

	_, err := stores.KPIs.Create(ctx, owner, planID, strategy.KPI{Name: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = stores.SWOTItems.Create(ctx, owner, planID, strategy.SWOTItem{Title: "x", Quadrant: "luck"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestStoreGuardsPlanAccess(t *testing.T) {
	mem := backend.NewMemory()
	draftID := seedPlan(t, mem, owner.UserID, "draft")
	submittedID := seedPlan(t, mem, owner.UserID, "pending_approval")
	stores := NewStores(mem, 0)
	ctx := context.Background()
	risk := strategy.Risk{Title: "r"}

	_, err := stores.Risks.Create(ctx, auth.GuestCaller("g1"), draftID, risk)
	assert.ErrorIs(t, err, auth.ErrAuthRequired)

	_, err = stores.Risks.Create(ctx, auth.Caller{UserID: "someone-else"}, draftID, risk)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = stores.Risks.Create(ctx, owner, "missing", risk)
	assert.ErrorIs(t, err, ErrPlanNotFound)

	_, err = stores.Risks.Create(ctx, owner, submittedID, risk)
	assert.ErrorIs(t, err, ErrPlanLocked)

	_, err = stores.Risks.List(ctx, owner, submittedID)
	assert.NoError(t, err)
}

func TestStoreItemFromOtherPlanIsNotFound(t *testing.T) {
	mem := backend.NewMemory()
	planA := seedPlan(t, mem, owner.UserID, "draft")
	planB := seedPlan(t, mem, owner.UserID, "draft")
	stores := NewStores(mem, 0)
	ctx := context.Background()

	rec, err := stores.Milestones.Create(ctx, owner, planA, strategy.Milestone{Title: "Launch"})
	require.NoError(t, err)

	assert.ErrorIs(t, stores.Milestones.Delete(ctx, owner, planB, rec.ID), ErrNotFound)
}

func TestBulkSaveUsesTransaction(t *testing.T) {
	mem := backend.NewMemory()
	planID := seedPlan(t, mem, owner.UserID, "draft")
	stores := NewStores(mem, 0)
	ctx := context.Background()

	existing, err := stores.Milestones.Create(ctx, owner, planID, strategy.Milestone{Title: "Kickoff"})
	require.NoError(t, err)

	recs, err := stores.Milestones.BulkSave(ctx, owner, planID, []BulkItem[strategy.Milestone]{
		{ID: existing.ID, Version: existing.Version, Item: strategy.Milestone{Title: "Kickoff", Status: "done"}},
		{Item: strategy.Milestone{Title: "Pilot"}},
	})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, int64(2), recs[0].Version)
	assert.Equal(t, "Pilot", recs[1].Item.Title)

	// A stale version rolls back the whole batch.
	_, err = stores.Milestones.BulkSave(ctx, owner, planID, []BulkItem[strategy.Milestone]{
		{Item: strategy.Milestone{Title: "Rolled back"}},
		{ID: existing.ID, Version: 1, Item: strategy.Milestone{Title: "stale"}},
	})
	assert.ErrorIs(t, err, backend.ErrVersionConflict)

	list, err := stores.Milestones.List(ctx, owner, planID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestBulkSaveConcurrentWithoutTransaction(t *testing.T) {
	defer goleak.VerifyNone(t)

	mem := backend.NewMemory()
	planID := seedPlan(t, mem, owner.UserID, "draft")
	client := &plainClient{Client: mem}
	store := NewStore(client, backend.TableKPIs, PlanGuard{Client: mem}, 3, validateKPI)

	items := make([]BulkItem[strategy.KPI], 10)
	for i := range items {
		items[i] = BulkItem[strategy.KPI]{Item: strategy.KPI{Name: "kpi", Target: float64(i)}}
	}
	recs, err := store.BulkSave(context.Background(), owner, planID, items)
	require.NoError(t, err)
	require.Len(t, recs, 10)
	for i, rec := range recs {
		assert.Equal(t, float64(i), rec.Item.Target, "results keep input order")
	}
}

func TestBulkSaveStopsAtFirstFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	mem := backend.NewMemory()
	planID := seedPlan(t, mem, owner.UserID, "draft")
	client := &plainClient{Client: mem, failAfter: 2}
	store := NewStore(client, backend.TableKPIs, PlanGuard{Client: mem}, 1, validateKPI)

	items := make([]BulkItem[strategy.KPI], 20)
	for i := range items {
		items[i] = BulkItem[strategy.KPI]{Item: strategy.KPI{Name: "kpi"}}
	}
	_, err := store.BulkSave(context.Background(), owner, planID, items)
	require.ErrorIs(t, err, errInjected)

	// With a limit of one the failing third write is the last attempted.
	assert.Equal(t, int32(3), client.inserts.Load())
}

func TestLoadAndMergeCollections(t *testing.T) {
	mem := backend.NewMemory()
	planID := seedPlan(t, mem, owner.UserID, "draft")
	stores := NewStores(mem, 0)
	ctx := context.Background()

	_, err := stores.SWOTItems.Create(ctx, owner, planID, strategy.SWOTItem{Quadrant: strategy.QuadrantStrengths, Title: "Data team"})
	require.NoError(t, err)
	_, err = stores.KPIs.Create(ctx, owner, planID, strategy.KPI{Name: "Adoption"})
	require.NoError(t, err)

	cols, err := stores.Load(ctx, planID)
	require.NoError(t, err)

	draft := strategy.Plan{
		Name:  "Smart services",
		KPIs:  []strategy.KPI{{Name: "draft kpi"}, {Name: "another"}},
		Risks: []strategy.Risk{{Title: "kept"}},
	}
	merged := cols.Merge(draft)
	require.Len(t, merged.KPIs, 1)
	assert.Equal(t, "Adoption", merged.KPIs[0].Name)
	assert.Equal(t, draft.Risks, merged.Risks)
	require.Len(t, merged.SWOT.Strengths, 1)
	assert.Equal(t, "Data team", merged.SWOT.Strengths[0].Title)
}

func TestMergeKeepsCollectionEmptiedByDeletes(t *testing.T) {
	mem := backend.NewMemory()
	planID := seedPlan(t, mem, owner.UserID, "draft")
	stores := NewStores(mem, 0)
	ctx := context.Background()

	rec, err := stores.Risks.Create(ctx, owner, planID, strategy.Risk{Title: "Vendor lock-in"})
	require.NoError(t, err)
	require.NoError(t, stores.Risks.Delete(ctx, owner, planID, rec.ID))

	cols, err := stores.Load(ctx, planID)
	require.NoError(t, err)

	draft := strategy.Plan{
		Risks: []strategy.Risk{{Title: "embedded"}},
		KPIs:  []strategy.KPI{{Name: "embedded kpi"}},
	}
	merged := cols.Merge(draft)
	assert.Empty(t, merged.Risks)
	assert.Equal(t, draft.KPIs, merged.KPIs)
}

func TestClearedMitigationLeavesQuality(t *testing.T) {
	mem := backend.NewMemory()
	planID := seedPlan(t, mem, owner.UserID, "draft")
	stores := NewStores(mem, 0)
	ctx := context.Background()

	risk, err := stores.Risks.Create(ctx, owner, planID, strategy.Risk{Title: "R", Mitigation: "Open standards"})
	require.NoError(t, err)
	holder, err := stores.Stakeholders.Create(ctx, owner, planID, strategy.Stakeholder{Name: "Residents", EngagementStrategy: "Town halls"})
	require.NoError(t, err)

	_, err = stores.Risks.Update(ctx, owner, planID, risk.ID, risk.Version, strategy.Risk{Title: "R"})
	require.NoError(t, err)
	_, err = stores.Stakeholders.Update(ctx, owner, planID, holder.ID, holder.Version, strategy.Stakeholder{Name: "Residents"})
	require.NoError(t, err)

	raw, ok := mem.Raw(backend.TableRisks, risk.ID)
	require.True(t, ok)
	assert.Empty(t, raw.String("mitigation"))

	cols, err := stores.Load(ctx, planID)
	require.NoError(t, err)
	q := readiness.Quality(cols.Merge(strategy.Plan{}))
	assert.Equal(t, 0, q.RiskMitigationRate)
	assert.Equal(t, 0, q.StakeholderEngagement)
}
