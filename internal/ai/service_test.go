package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"innovation-backend/internal/planitems"
	"innovation-backend/internal/plans"
	"innovation-backend/internal/shared/auth"
	"innovation-backend/internal/shared/storage/backend"
	"innovation-backend/internal/strategy"
)

var alice = auth.Caller{UserID: "alice"}

type fakeClient struct {
	prompts []string
	schemas []map[string]any
	res     Result
	err     error
}

func (f *fakeClient) Invoke(_ context.Context, prompt string, schema map[string]any) (Result, error) {
	f.prompts = append(f.prompts, prompt)
	f.schemas = append(f.schemas, schema)
	return f.res, f.err
}

func newService(t *testing.T, client Client) (*Service, string) {
	t.Helper()
	mem := backend.NewMemory()
	planSvc := &plans.Service{
		Repo:  plans.NewRepo(mem),
		Items: planitems.NewStores(mem, 2),
		Now:   func() time.Time { return time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC) },
	}
	rec, err := planSvc.Create(context.Background(), alice, plans.CreateInput{Plan: strategy.Plan{
		Name:       "Green Riyadh",
		Vision:     "A greener city",
		Objectives: []strategy.Objective{{ID: "o1", Name: "Plant trees"}},
	}})
	require.NoError(t, err)
	return &Service{Client: client, Plans: planSvc}, rec.ID
}

func TestRunAnalyzeSendsPlanAndSchema(t *testing.T) {
	client := &fakeClient{res: ResultFromText(`{"summary":"fine"}`)}
	svc, planID := newService(t, client)

	res, err := svc.Run(context.Background(), alice, planID, KindAnalyze, Options{})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.JSONEq(t, `{"summary":"fine"}`, string(res.Data))

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "Green Riyadh")
	assert.Contains(t, client.prompts[0], "Readiness score:")
	assert.Contains(t, client.prompts[0], "Incomplete sections:")
	assert.Equal(t, Schema(KindAnalyze), client.schemas[0])
}

func TestRunEnhanceUsesSection(t *testing.T) {
	client := &fakeClient{res: ResultFromText(`{"suggestions":[]}`)}
	svc, planID := newService(t, client)

	_, err := svc.Run(context.Background(), alice, planID, KindEnhance, Options{Section: "mission", Language: "Arabic"})
	require.NoError(t, err)
	assert.Contains(t, client.prompts[0], "plan's mission")
	assert.Contains(t, client.prompts[0], "Write all text in Arabic.")
}

func TestRunSurfacesFailuresOnce(t *testing.T) {
	client := &fakeClient{err: errors.New("upstream 500")}
	svc, planID := newService(t, client)

	_, err := svc.Run(context.Background(), alice, planID, KindCurriculum, Options{})
	assert.ErrorIs(t, err, ErrFailed)
	assert.Len(t, client.prompts, 1)
}

func TestRunWithoutProvider(t *testing.T) {
	svc, planID := newService(t, nil)
	_, err := svc.Run(context.Background(), alice, planID, KindAnalyze, Options{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestRunChecksCallerAndPlan(t *testing.T) {
	client := &fakeClient{}
	svc, planID := newService(t, client)

	_, err := svc.Run(context.Background(), auth.GuestCaller("g"), planID, KindAnalyze, Options{})
	assert.ErrorIs(t, err, auth.ErrAuthRequired)
	_, err = svc.Run(context.Background(), auth.Caller{UserID: "bob"}, planID, KindAnalyze, Options{})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Run(context.Background(), alice, "missing", KindAnalyze, Options{})
	assert.ErrorIs(t, err, ErrPlanNotFound)
	assert.Empty(t, client.prompts)
}

func TestParseKindAndResultFromText(t *testing.T) {
	k, err := ParseKind(" Curriculum ")
	require.NoError(t, err)
	assert.Equal(t, KindCurriculum, k)
	_, err = ParseKind("translate")
	assert.ErrorIs(t, err, ErrUnknownKind)

	assert.False(t, ResultFromText("sure, here you go").Success)
	assert.True(t, ResultFromText(`[]`).Success)
}
