package templates

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"innovation-backend/internal/coverage"
	"innovation-backend/internal/plans"
	"innovation-backend/internal/shared/auth"
	"innovation-backend/internal/shared/metrics"
	"innovation-backend/internal/shared/telemetry"
	"innovation-backend/internal/taxonomy"
)

// PlanCreator creates the plan a template is cloned into.
type PlanCreator interface {
	Create(ctx context.Context, caller auth.Caller, in plans.CreateInput) (plans.Record, error)
}

// Service contains business logic for templates.
type Service struct {
	Repo    *Repo
	Plans   PlanCreator
	Catalog *taxonomy.Catalog
}

func (s *Service) catalog() *taxonomy.Catalog {
	if s.Catalog != nil {
		return s.Catalog
	}
	return taxonomy.Default()
}

// List returns public templates plus the caller's own, most used first.
// templateType filters when non-empty.
func (s *Service) List(ctx context.Context, caller auth.Caller, templateType string) ([]Template, error) {
	public, err := s.Repo.Public(ctx)
	if err != nil {
		logFailure("list", "", err)
		return nil, err
	}
	seen := make(map[string]struct{}, len(public))
	out := make([]Template, 0, len(public))
	add := func(ts []Template) {
		for _, t := range ts {
			if _, dup := seen[t.ID]; dup {
				continue
			}
			if templateType != "" && t.TemplateType != templateType {
				continue
			}
			seen[t.ID] = struct{}{}
			out = append(out, t)
		}
	}
	add(public)
	if caller.RequireUser() == nil {
		own, err := s.Repo.OwnedBy(ctx, caller.UserID)
		if err != nil {
			logFailure("list", "", err)
			return nil, err
		}
		add(own)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UsageCount != out[j].UsageCount {
			return out[i].UsageCount > out[j].UsageCount
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Get returns a template the caller can see. Private templates of other
// users are reported as missing.
func (s *Service) Get(ctx context.Context, caller auth.Caller, id string) (Template, error) {
	if strings.TrimSpace(id) == "" {
		return Template{}, ErrInvalidInput
	}
	t, err := s.Repo.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logFailure("get", id, err)
		}
		return Template{}, err
	}
	if !t.IsPublic && !caller.Owns(t.OwnerID) {
		return Template{}, ErrNotFound
	}
	return t, nil
}

func (s *Service) Create(ctx context.Context, caller auth.Caller, in Input) (Template, error) {
	if err := caller.RequireUser(); err != nil {
		return Template{}, err
	}
	if err := s.check(in); err != nil {
		return Template{}, err
	}
	t, err := s.Repo.Create(ctx, in.apply(Template{OwnerID: caller.UserID}))
	if err != nil {
		logFailure("create", "", err)
		return Template{}, err
	}
	return t, nil
}

func (s *Service) Update(ctx context.Context, caller auth.Caller, id string, version int64, in Input) (Template, error) {
	if err := caller.RequireUser(); err != nil {
		return Template{}, err
	}
	if version <= 0 {
		return Template{}, fmt.Errorf("%w: version is required", ErrInvalidInput)
	}
	if err := s.check(in); err != nil {
		return Template{}, err
	}
	current, err := s.owned(ctx, caller, id)
	if err != nil {
		return Template{}, err
	}
	t, err := s.Repo.Update(ctx, in.apply(current), version)
	if err != nil {
		if !errors.Is(err, ErrVersionConflict) && !errors.Is(err, ErrNotFound) {
			logFailure("update", id, err)
		}
		return Template{}, err
	}
	return t, nil
}

func (s *Service) Delete(ctx context.Context, caller auth.Caller, id string) error {
	if err := caller.RequireUser(); err != nil {
		return err
	}
	if _, err := s.owned(ctx, caller, id); err != nil {
		return err
	}
	return s.Repo.Delete(ctx, id)
}

// Clone creates a new draft plan from the template content and bumps the
// template's usage counter. A failed counter bump is logged, not returned.
func (s *Service) Clone(ctx context.Context, caller auth.Caller, id, name string) (plans.Record, error) {
	if err := caller.RequireUser(); err != nil {
		return plans.Record{}, err
	}
	t, err := s.Get(ctx, caller, id)
	if err != nil {
		return plans.Record{}, err
	}
	content := t.Content
	if n := strings.TrimSpace(name); n != "" {
		content.Name = n
	} else if strings.TrimSpace(content.Name) == "" {
		content.Name = t.Name
	}
	if content.NameAr == "" {
		content.NameAr = t.NameAr
	}
	rec, err := s.Plans.Create(ctx, caller, plans.CreateInput{Plan: content, TemplateID: t.ID})
	if err != nil {
		return plans.Record{}, err
	}
	if _, err := s.Repo.IncrementUsage(ctx, t.ID); err != nil {
		telemetry.Warn("templates.usage_increment_failed", map[string]any{
			"template_id": t.ID,
			"plan_id":     rec.ID,
			"error":       err.Error(),
		})
	}
	return rec, nil
}

// Coverage runs the taxonomy coverage analysis over every template the
// caller can see.
func (s *Service) Coverage(ctx context.Context, caller auth.Caller) (coverage.Result, error) {
	ts, err := s.List(ctx, caller, "")
	if err != nil {
		return coverage.Result{}, err
	}
	searchable := make([]coverage.Template, 0, len(ts))
	for _, t := range ts {
		searchable = append(searchable, t.Searchable())
	}
	metrics.IncCoverageAnalyses()
	return coverage.Analyze(s.catalog(), searchable), nil
}

func (s *Service) owned(ctx context.Context, caller auth.Caller, id string) (Template, error) {
	t, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Template{}, err
	}
	if !caller.Owns(t.OwnerID) {
		return Template{}, ErrForbidden
	}
	return t, nil
}

func (s *Service) check(in Input) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !s.catalog().IsTemplateType(in.TemplateType) {
		return fmt.Errorf("%w: unknown template_type %q", ErrInvalidInput, in.TemplateType)
	}
	return nil
}

func logFailure(op, templateID string, err error) {
	fields := map[string]any{"op": op, "error": err.Error()}
	if templateID != "" {
		fields["template_id"] = templateID
	}
	telemetry.Error("templates.backend_failed", fields)
}
