package planitems

import (
	"context"

	"golang.org/x/sync/errgroup"

	"innovation-backend/internal/shared/storage/backend"
	"innovation-backend/internal/strategy"
)

// Stores groups the per-entity stores of a plan.
type Stores struct {
	Risks        *Store[strategy.Risk]
	Stakeholders *Store[strategy.Stakeholder]
	Milestones   *Store[strategy.Milestone]
	ActionPlans  *Store[strategy.ActionPlan]
	Alignments   *Store[strategy.Alignment]
	SWOTItems    *Store[strategy.SWOTItem]
	KPIs         *Store[strategy.KPI]
}

// NewStores builds every store over client, guarded by plan ownership.
func NewStores(client backend.Client, concurrency int) *Stores {
	guard := PlanGuard{Client: client}
	return &Stores{
		Risks:        NewStore(client, backend.TableRisks, guard, concurrency, validateRisk),
		Stakeholders: NewStore(client, backend.TableStakeholders, guard, concurrency, validateStakeholder),
		Milestones:   NewStore(client, backend.TableMilestones, guard, concurrency, validateMilestone),
		ActionPlans:  NewStore(client, backend.TableActionPlans, guard, concurrency, validateActionPlan),
		Alignments:   NewStore(client, backend.TableAlignments, guard, concurrency, validateAlignment),
		SWOTItems:    NewStore(client, backend.TableSWOTItems, guard, concurrency, validateSWOTItem),
		KPIs:         NewStore(client, backend.TableKPIs, guard, concurrency, validateKPI),
	}
}

// Collections is everything persisted for one plan outside its document.
type Collections struct {
	Risks        []strategy.Risk
	Stakeholders []strategy.Stakeholder
	Milestones   []strategy.Milestone
	ActionPlans  []strategy.ActionPlan
	Alignments   []strategy.Alignment
	SWOTItems    []strategy.SWOTItem
	KPIs         []strategy.KPI

	// stored names the tables that have ever held a row for the plan,
	// deleted rows included.
	stored map[string]bool
}

// Load reads every collection of planID. Callers must authorize first.
func (s *Stores) Load(ctx context.Context, planID string) (Collections, error) {
	var (
		out    Collections
		tables = [...]string{
			backend.TableRisks, backend.TableStakeholders, backend.TableMilestones, backend.TableActionPlans,
			backend.TableAlignments, backend.TableSWOTItems, backend.TableKPIs,
		}
		stored [len(tables)]bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loadInto(gctx, s.Risks, planID, &out.Risks, &stored[0]) })
	g.Go(func() error { return loadInto(gctx, s.Stakeholders, planID, &out.Stakeholders, &stored[1]) })
	g.Go(func() error { return loadInto(gctx, s.Milestones, planID, &out.Milestones, &stored[2]) })
	g.Go(func() error { return loadInto(gctx, s.ActionPlans, planID, &out.ActionPlans, &stored[3]) })
	g.Go(func() error { return loadInto(gctx, s.Alignments, planID, &out.Alignments, &stored[4]) })
	g.Go(func() error { return loadInto(gctx, s.SWOTItems, planID, &out.SWOTItems, &stored[5]) })
	g.Go(func() error { return loadInto(gctx, s.KPIs, planID, &out.KPIs, &stored[6]) })
	if err := g.Wait(); err != nil {
		return Collections{}, err
	}
	out.stored = make(map[string]bool, len(tables))
	for i, table := range tables {
		out.stored[table] = stored[i]
	}
	return out, nil
}

func loadInto[T any](ctx context.Context, s *Store[T], planID string, dst *[]T, stored *bool) error {
	recs, ever, err := s.history(ctx, planID)
	if err != nil {
		return err
	}
	*dst = Items(recs)
	*stored = ever
	return nil
}

// Merge overlays persisted collections on a plan draft. Once a table has
// held a row for the plan it owns that collection, so deleting every row
// leaves the collection empty. Collections never written through the item
// stores keep the items embedded in the plan document.
func (c Collections) Merge(p strategy.Plan) strategy.Plan {
	if c.owns(backend.TableRisks, len(c.Risks)) {
		p.Risks = c.Risks
	}
	if c.owns(backend.TableStakeholders, len(c.Stakeholders)) {
		p.Stakeholders = c.Stakeholders
	}
	if c.owns(backend.TableMilestones, len(c.Milestones)) {
		p.Milestones = c.Milestones
	}
	if c.owns(backend.TableActionPlans, len(c.ActionPlans)) {
		p.ActionPlans = c.ActionPlans
	}
	if c.owns(backend.TableAlignments, len(c.Alignments)) {
		p.NationalAlignments = c.Alignments
	}
	if c.owns(backend.TableSWOTItems, len(c.SWOTItems)) {
		p.SWOT = strategy.GroupSWOT(c.SWOTItems)
	}
	if c.owns(backend.TableKPIs, len(c.KPIs)) {
		p.KPIs = c.KPIs
	}
	return p
}

func (c Collections) owns(table string, live int) bool {
	return live > 0 || c.stored[table]
}
