package exports

import (
	"strings"
	"time"
)

// Format is an export file type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts the format names clients send.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pdf":
		return FormatPDF, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	}
	return "", ErrInvalidFormat
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/pdf"
}

// Status is the lifecycle state of an export.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Record is one export request. It is both the plan_exports row and the API shape.
type Record struct {
	ID          string     `json:"id"`
	PlanID      string     `json:"plan_id"`
	OwnerID     string     `json:"owner_id"`
	Format      Format     `json:"format"`
	Status      Status     `json:"status"`
	FileName    string     `json:"file_name"`
	StorageKey  string     `json:"storage_key,omitempty"`
	ContentType string     `json:"content_type,omitempty"`
	SizeBytes   int64      `json:"size_bytes"`
	Error       string     `json:"error,omitempty"`
	RequestID   string     `json:"request_id,omitempty"`
	Version     int64      `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// fileName builds a download name from the plan name.
func fileName(planName string, f Format) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(planName)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteByte('-')
		}
	}
	name := strings.Trim(b.String(), "-")
	if name == "" {
		name = "strategic-plan"
	}
	if len(name) > 80 {
		name = name[:80]
	}
	return name + "." + string(f)
}
