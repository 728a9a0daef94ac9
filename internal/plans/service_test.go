package plans

import (
	"bufio"
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"innovation-backend/internal/planitems"
	"innovation-backend/internal/shared/auth"
	"innovation-backend/internal/shared/metrics"
	"innovation-backend/internal/shared/storage/backend"
	"innovation-backend/internal/strategy"
)

var alice = auth.Caller{UserID: "alice"}

func newTestService() (*Service, *backend.Memory) {
	mem := backend.NewMemory()
	base := time.Date(2026, time.May, 4, 8, 0, 0, 0, time.UTC)
	tick := 0
	mem.SetClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})
	return &Service{
		Repo:  NewRepo(mem),
		Items: planitems.NewStores(mem, 2),
		Now:   func() time.Time { return base },
	}, mem
}

// submittablePlan passes every critical rule and scores above the gate.
func submittablePlan() strategy.Plan {
	return strategy.Plan{
		Name:     "Smart Municipality 2030",
		NameAr:   "البلدية الذكية",
		Vision:   "A digitally enabled city that serves every resident.",
		VisionAr: "مدينة رقمية",
		Mission:  "Deliver smart services through innovation partnerships.",
		Objectives: []strategy.Objective{
			{ID: "o1", Name: "Digitize permits"},
			{ID: "o2", Name: "Open data"},
			{ID: "o3", Name: "Smart waste"},
		},
		KPIs: []strategy.KPI{
			{Name: "Online permits", ObjectiveID: "o1", Target: 80},
			{Name: "Datasets", ObjectiveID: "o2", Target: 50},
			{Name: "Sensor bins", ObjectiveID: "o3", Target: 200},
		},
		Stakeholders: []strategy.Stakeholder{
			{Name: "Residents", EngagementStrategy: "Surveys"},
			{Name: "Council", EngagementStrategy: "Briefings"},
			{Name: "Vendors", EngagementStrategy: "Workshops"},
		},
		Risks: []strategy.Risk{{Title: "Budget", Mitigation: "Phased rollout"}},
		ActionPlans: []strategy.ActionPlan{
			{Title: "Permit portal", ObjectiveID: "o1"},
			{Title: "Data catalog", ObjectiveID: "o2"},
			{Title: "Bin sensors", ObjectiveID: "o3"},
		},
	}
}

func TestCreateRequiresSignedInCaller(t *testing.T) {
	svc, mem := newTestService()
	_, err := svc.Create(context.Background(), auth.GuestCaller("g"), CreateInput{Plan: strategy.Plan{Name: "x"}})
	assert.ErrorIs(t, err, auth.ErrAuthRequired)

	rows, err := mem.Select(context.Background(), backend.Query{Table: backend.TablePlans, IncludeDeleted: true})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCreateGetListDelete(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, alice, CreateInput{Plan: strategy.Plan{Name: "  "}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	first, err := svc.Create(ctx, alice, CreateInput{Plan: strategy.Plan{Name: "First"}})
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, first.Status)
	assert.Equal(t, int64(1), first.Version)
	second, err := svc.Create(ctx, alice, CreateInput{Plan: strategy.Plan{Name: "Second"}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, auth.Caller{UserID: "bob"}, CreateInput{Plan: strategy.Plan{Name: "Bob's"}})
	require.NoError(t, err)

	got, err := svc.Get(ctx, alice, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "First", got.Plan.Name)

	_, err = svc.Get(ctx, auth.Caller{UserID: "bob"}, first.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	list, err := svc.List(ctx, alice, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")

	require.NoError(t, svc.Delete(ctx, alice, first.ID))
	_, err = svc.Get(ctx, alice, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateDetectsStaleVersion(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	rec, err := svc.Create(ctx, alice, CreateInput{Plan: strategy.Plan{Name: "Plan", Vision: "old vision"}})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, alice, rec.ID, rec.Version, strategy.Plan{Name: "Plan", Vision: "new vision"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)

	_, err = svc.Update(ctx, alice, rec.ID, rec.Version, strategy.Plan{Name: "Plan", Vision: "lost edit"})
	require.ErrorIs(t, err, ErrVersionConflict)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, int64(2), conflict.Current.Version)
	assert.Contains(t, conflict.Diff, "-vision: new vision")
	assert.Contains(t, conflict.Diff, "+vision: lost edit")

	stored, err := svc.Get(ctx, alice, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "new vision", stored.Plan.Vision)
	assert.Equal(t, int64(2), stored.Version)
}

func TestAssembleMergesPersistedItems(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	rec, err := svc.Create(ctx, alice, CreateInput{Plan: strategy.Plan{
		Name:  "Plan",
		Risks: []strategy.Risk{{Title: "draft risk"}},
	}})
	require.NoError(t, err)
	_, err = svc.Items.Risks.Create(ctx, alice, rec.ID, strategy.Risk{Title: "stored risk", Mitigation: "m"})
	require.NoError(t, err)

	full, err := svc.Assemble(ctx, alice, rec.ID)
	require.NoError(t, err)
	require.Len(t, full.Plan.Risks, 1)
	assert.Equal(t, "stored risk", full.Plan.Risks[0].Title)
}

func TestSubmitGate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	weak, err := svc.Create(ctx, alice, CreateInput{Plan: strategy.Plan{Name: "Weak"}})
	require.NoError(t, err)
	_, validation, err := svc.Submit(ctx, alice, weak.ID, weak.Version)
	require.ErrorIs(t, err, ErrNotSubmittable)
	assert.False(t, validation.CanSubmit)
	assert.Positive(t, validation.CriticalCount)

	strong, err := svc.Create(ctx, alice, CreateInput{Plan: submittablePlan()})
	require.NoError(t, err)
	submitted, validation, err := svc.Submit(ctx, alice, strong.ID, strong.Version)
	require.NoError(t, err)
	assert.True(t, validation.CanSubmit)
	assert.Equal(t, StatusPendingApproval, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)

	_, _, err = svc.Submit(ctx, alice, strong.ID, submitted.Version)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.Update(ctx, alice, strong.ID, submitted.Version, submittablePlan())
	assert.ErrorIs(t, err, ErrNotEditable)

	back, err := svc.Transition(ctx, alice, strong.ID, submitted.Version, StatusDraft)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, back.Status)
	assert.Nil(t, back.SubmittedAt)

	_, err = svc.Transition(ctx, alice, strong.ID, back.Version, StatusApproved)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestDashboardScoresEveryPlan(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, alice, CreateInput{Plan: strategy.Plan{Name: "Empty"}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, alice, CreateInput{Plan: submittablePlan()})
	require.NoError(t, err)

	entries, err := svc.Dashboard(ctx, alice)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Smart Municipality 2030", entries[0].Record.Plan.Name)
	assert.Greater(t, entries[0].Score, entries[1].Score)
	assert.Equal(t, "critical", entries[1].Level.Key)

	_, err = svc.Dashboard(ctx, auth.GuestCaller("g"))
	assert.ErrorIs(t, err, auth.ErrAuthRequired)
}

func TestSubmitAndTransitionRequireVersion(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	rec, err := svc.Create(ctx, alice, CreateInput{Plan: submittablePlan()})
	require.NoError(t, err)

	_, _, err = svc.Submit(ctx, alice, rec.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Transition(ctx, alice, rec.ID, -1, StatusArchived)
	assert.ErrorIs(t, err, ErrInvalidInput)

	stored, err := svc.Get(ctx, alice, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, stored.Status)
	assert.Equal(t, rec.Version, stored.Version)
}

func counterValue(t *testing.T, name string) uint64 {
	t.Helper()
	sc := bufio.NewScanner(strings.NewReader(metrics.Render()))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 2 && fields[0] == name {
			v, err := strconv.ParseUint(fields[1], 10, 64)
			require.NoError(t, err)
			return v
		}
	}
	t.Fatalf("counter %s not rendered", name)
	return 0
}

func TestDashboardCountsEachScoredPlan(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for _, name := range []string{"One", "Two", "Three"} {
		_, err := svc.Create(ctx, alice, CreateInput{Plan: strategy.Plan{Name: name}})
		require.NoError(t, err)
	}

	before := counterValue(t, "readiness_evaluations_total")
	entries, err := svc.Dashboard(ctx, alice)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, before+3, counterValue(t, "readiness_evaluations_total"))
}

func TestPlanDiffIsEmptyForIdenticalPlans(t *testing.T) {
	p := strategy.Plan{Name: "Same"}
	assert.Empty(t, planDiff(p, p))
	assert.True(t, strings.HasPrefix(planDiff(p, strategy.Plan{Name: "Other"}), "--- stored"))
}
