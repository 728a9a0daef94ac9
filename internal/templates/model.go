package templates

import (
	"time"

	"innovation-backend/internal/coverage"
	"innovation-backend/internal/strategy"
)

// Template is a reusable plan-shaped record offered for cloning. The same
// shape is used for storage rows and API responses.
type Template struct {
	ID            string        `json:"id"`
	OwnerID       string        `json:"owner_id"`
	Name          string        `json:"name"`
	NameAr        string        `json:"name_ar,omitempty"`
	Description   string        `json:"description,omitempty"`
	DescriptionAr string        `json:"description_ar,omitempty"`
	Tags          []string      `json:"tags"`
	TargetSectors []string      `json:"target_sectors"`
	TemplateType  string        `json:"template_type"`
	Content       strategy.Plan `json:"content"`
	UsageCount    int64         `json:"usage_count"`
	IsPublic      bool          `json:"is_public"`
	Version       int64         `json:"version"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Input is the caller-editable part of a template.
type Input struct {
	Name          string        `json:"name"`
	NameAr        string        `json:"name_ar"`
	Description   string        `json:"description"`
	DescriptionAr string        `json:"description_ar"`
	Tags          []string      `json:"tags"`
	TargetSectors []string      `json:"target_sectors"`
	TemplateType  string        `json:"template_type"`
	Content       strategy.Plan `json:"content"`
	IsPublic      bool          `json:"is_public"`
}

// Searchable is the view the coverage analyzer scans.
func (t Template) Searchable() coverage.Template {
	return coverage.Template{
		ID:            t.ID,
		Name:          t.Name,
		NameAr:        t.NameAr,
		Description:   t.Description,
		DescriptionAr: t.DescriptionAr,
		Tags:          t.Tags,
		TargetSectors: t.TargetSectors,
		TemplateType:  t.TemplateType,
	}
}

func (in Input) apply(t Template) Template {
	t.Name = in.Name
	t.NameAr = in.NameAr
	t.Description = in.Description
	t.DescriptionAr = in.DescriptionAr
	t.Tags = orEmpty(in.Tags)
	t.TargetSectors = orEmpty(in.TargetSectors)
	t.TemplateType = in.TemplateType
	t.Content = in.Content
	t.IsPublic = in.IsPublic
	return t
}

func orEmpty(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
