package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"innovation-backend/internal/coverage"
	"innovation-backend/internal/strategy"
	"innovation-backend/internal/taxonomy"
)

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// loadPlan reads a plan document from YAML or JSON.
func loadPlan(path string) (strategy.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return strategy.Plan{}, fmt.Errorf("read plan: %w", err)
	}
	var p strategy.Plan
	if isJSON(path) {
		err = json.Unmarshal(data, &p)
	} else {
		err = yaml.Unmarshal(data, &p)
	}
	if err != nil {
		return strategy.Plan{}, fmt.Errorf("decode plan %s: %w", path, err)
	}
	return p.Normalize(), nil
}

// loadTemplates reads a list of templates. YAML documents are converted
// through their JSON form so both formats share the snake_case field names.
func loadTemplates(path string) ([]coverage.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	if !isJSON(path) {
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode templates %s: %w", path, err)
		}
		if data, err = json.Marshal(raw); err != nil {
			return nil, fmt.Errorf("decode templates %s: %w", path, err)
		}
	}
	var wrapped struct {
		Templates []coverage.Template `json:"templates"`
	}
	if err := json.Unmarshal(data, &wrapped.Templates); err != nil {
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("decode templates %s: %w", path, err)
		}
	}
	return wrapped.Templates, nil
}

func loadCatalog(path string) (*taxonomy.Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return taxonomy.Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return taxonomy.Parse(data)
}
