// Package taxonomy holds the static domain catalog that templates are matched
// against: municipal service domains, innovation areas and national vision
// programs, plus the canned recommendations offered for uncovered entries.
package taxonomy

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Category names one of the three taxonomy groups.
type Category string

const (
	CategoryServiceDomains  Category = "service_domains"
	CategoryInnovationAreas Category = "innovation_areas"
	CategoryVisionPrograms  Category = "vision_programs"
)

// Categories lists the groups in catalog order.
func Categories() []Category {
	return []Category{CategoryServiceDomains, CategoryInnovationAreas, CategoryVisionPrograms}
}

// Entry is one taxonomy item.
type Entry struct {
	ID       string   `yaml:"id" json:"id"`
	Name     string   `yaml:"name" json:"name"`
	NameAr   string   `yaml:"name_ar" json:"name_ar,omitempty"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// Recommendation is a canned suggestion for filling a coverage gap.
type Recommendation struct {
	GapID        string `yaml:"gap_id" json:"gap_id"`
	Title        string `yaml:"title" json:"title"`
	Description  string `yaml:"description" json:"description"`
	TemplateType string `yaml:"template_type" json:"template_type"`
	Priority     string `yaml:"priority" json:"priority"`
}

// TemplateType is a kind of template the library can hold.
type TemplateType struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// Catalog is immutable once loaded.
type Catalog struct {
	ServiceDomains  []Entry          `yaml:"service_domains"`
	InnovationAreas []Entry          `yaml:"innovation_areas"`
	VisionPrograms  []Entry          `yaml:"vision_programs"`
	TemplateTypes   []TemplateType   `yaml:"template_types"`
	Recommendations []Recommendation `yaml:"recommendations"`

	recommendationByGap map[string]Recommendation
}

var ErrInvalidCatalog = errors.New("invalid taxonomy catalog")

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the embedded catalog. It panics if the embedded data is
// malformed since that is a build defect.
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(catalogYAML)
	})
	if defaultErr != nil {
		panic(defaultErr)
	}
	return defaultCatalog
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode taxonomy: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	c.recommendationByGap = make(map[string]Recommendation, len(c.Recommendations))
	for _, r := range c.Recommendations {
		c.recommendationByGap[r.GapID] = r
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	seen := map[string]Category{}
	total := 0
	for _, cat := range Categories() {
		for _, e := range c.Entries(cat) {
			total++
			if strings.TrimSpace(e.ID) == "" {
				return fmt.Errorf("%w: %s entry without id", ErrInvalidCatalog, cat)
			}
			if prev, ok := seen[e.ID]; ok {
				return fmt.Errorf("%w: duplicate id %q in %s and %s", ErrInvalidCatalog, e.ID, prev, cat)
			}
			seen[e.ID] = cat
			if !hasKeyword(e.Keywords) {
				return fmt.Errorf("%w: %s has no keywords", ErrInvalidCatalog, e.ID)
			}
		}
	}
	if total == 0 {
		return fmt.Errorf("%w: no entries", ErrInvalidCatalog)
	}
	for _, r := range c.Recommendations {
		if _, ok := seen[r.GapID]; !ok {
			return fmt.Errorf("%w: recommendation for unknown id %q", ErrInvalidCatalog, r.GapID)
		}
	}
	return nil
}

func hasKeyword(keywords []string) bool {
	for _, k := range keywords {
		if strings.TrimSpace(k) != "" {
			return true
		}
	}
	return false
}

// Entries returns the entries of one category, or nil for an unknown one.
func (c *Catalog) Entries(cat Category) []Entry {
	switch cat {
	case CategoryServiceDomains:
		return c.ServiceDomains
	case CategoryInnovationAreas:
		return c.InnovationAreas
	case CategoryVisionPrograms:
		return c.VisionPrograms
	default:
		return nil
	}
}

// TotalEntries counts entries across all categories.
func (c *Catalog) TotalEntries() int {
	return len(c.ServiceDomains) + len(c.InnovationAreas) + len(c.VisionPrograms)
}

// RecommendationFor looks up the canned recommendation for a taxonomy id.
func (c *Catalog) RecommendationFor(id string) (Recommendation, bool) {
	r, ok := c.recommendationByGap[id]
	return r, ok
}

// Lookup finds an entry by id across categories.
func (c *Catalog) Lookup(id string) (Entry, Category, bool) {
	for _, cat := range Categories() {
		for _, e := range c.Entries(cat) {
			if e.ID == id {
				return e, cat, true
			}
		}
	}
	return Entry{}, "", false
}

// IsTemplateType reports whether id names a known template type.
func (c *Catalog) IsTemplateType(id string) bool {
	for _, t := range c.TemplateTypes {
		if t.ID == id {
			return true
		}
	}
	return false
}
