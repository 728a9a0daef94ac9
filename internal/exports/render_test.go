package exports

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"innovation-backend/internal/strategy"
)

func samplePlan() strategy.Plan {
	return strategy.Plan{
		Name:    "Smart Municipality 2030",
		NameAr:  "البلدية الذكية",
		Vision:  "A digitally enabled city.",
		Mission: "Deliver smart services.",
		Objectives: []strategy.Objective{
			{ID: "o1", Name: "Digitize permits", Priority: "high"},
			{ID: "o2", Name: "Open data"},
		},
		KPIs: []strategy.KPI{
			{Name: "Online permits", ObjectiveID: "o1", Baseline: 10, Target: 80, Unit: "%"},
		},
		Risks:        []strategy.Risk{{Title: "Budget cut", Likelihood: "medium", Mitigation: "Phased rollout"}},
		Stakeholders: []strategy.Stakeholder{{Name: "Residents", EngagementStrategy: "Surveys"}},
		ActionPlans:  []strategy.ActionPlan{{Title: "Permit portal", ObjectiveID: "o1", Budget: 250000}},
		Milestones:   []strategy.Milestone{{Title: "Portal live", DueDate: "2026-12-01"}},
		NationalAlignments: []strategy.Alignment{
			{ProgramID: "quality_of_life", ObjectiveID: "o1", Contribution: "Faster permits"},
		},
	}
}

var renderNow = time.Date(2026, time.June, 1, 9, 0, 0, 0, time.UTC)

func TestRenderXLSXHasSheetPerCollection(t *testing.T) {
	doc := NewDocument(samplePlan(), "draft", renderNow)
	data, err := Render(FormatXLSX, doc)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{
		"Summary", "Objectives", "KPIs", "Risks", "Stakeholders", "Action Plans", "Milestones", "Alignments",
	}, f.GetSheetList())

	rows, err := f.GetRows("KPIs")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Name", "Objective", "Baseline", "Target", "Unit", "Frequency"}, rows[0])
	assert.Equal(t, "Online permits", rows[1][0])
	assert.Equal(t, "80", rows[1][3])

	score, err := f.GetCellValue("Summary", "B5")
	require.NoError(t, err)
	assert.Equal(t, "Readiness score", mustCell(t, f, "Summary", "A5"))
	assert.NotEmpty(t, score)
}

func TestRenderXLSXEmptyCollectionsKeepHeaders(t *testing.T) {
	data, err := Render(FormatXLSX, NewDocument(strategy.Plan{Name: "Empty"}, "draft", renderNow))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Risks")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Title", rows[0][0])
}

func TestRenderPDFHasSummaryAndCollectionPages(t *testing.T) {
	data, err := Render(FormatPDF, NewDocument(samplePlan(), "draft", renderNow))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, 8, r.NumPage())
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	_, err := Render(Format("docx"), NewDocument(samplePlan(), "draft", renderNow))
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestParseFormatAndFileName(t *testing.T) {
	f, err := ParseFormat(" Excel ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)
	_, err = ParseFormat("csv")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	assert.Equal(t, "smart-municipality-2030.pdf", fileName("Smart Municipality 2030", FormatPDF))
	assert.Equal(t, "strategic-plan.xlsx", fileName("البلدية", FormatXLSX))
}

func mustCell(t *testing.T, f *excelize.File, sheet, cell string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, cell)
	require.NoError(t, err)
	return v
}

func openWorkbook(r io.Reader) (*excelize.File, error) {
	return excelize.OpenReader(r)
}
