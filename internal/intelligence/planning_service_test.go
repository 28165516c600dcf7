package intelligence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/mindflow/internal/domain"
	"github.com/alexanderramin/mindflow/internal/llm"
)

type mockLLMClient struct {
	response string
	sources  []llm.Source
	err      error
	requests []llm.GenerateRequest
}

func (m *mockLLMClient) Generate(_ context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return &llm.GenerateResponse{Text: m.response, Model: "test-model", Sources: m.sources}, nil
}

func (m *mockLLMClient) Available(_ context.Context) bool { return m.err == nil }

const validAnalysisJSON = `{
  "mood": "scattered",
  "energyLevel": 4,
  "suggestedTasks": ["Reply to landlord", "Draft slides"],
  "coachingAdvice": "Batch small replies before deep work.",
  "burnoutRisk": true,
  "focusInsight": "Protect the first hour."
}`

const validPlanJSON = `{"tasks": [
  {"title": "Draft slides", "duration": 50, "isBreak": false, "energyRequired": 7, "priority": "high"},
  {"title": "Walk", "duration": 10, "isBreak": true, "energyRequired": 1, "priority": "low"}
]}`

func TestAnalyze_Success(t *testing.T) {
	client := &mockLLMClient{
		response: validAnalysisJSON,
		sources: []llm.Source{
			{Title: "Attention residue", URI: "https://example.org/a"},
			{Title: "", URI: "https://example.org/b"},
			{Title: "dropped", URI: ""},
		},
	}
	svc := NewPlanningService(client)

	a, err := svc.Analyze(context.Background(), "so much to do", domain.ModeRecovery)
	require.NoError(t, err)

	assert.Equal(t, "scattered", a.Mood)
	assert.Equal(t, 4.0, a.EnergyLevel)
	assert.Equal(t, []string{"Reply to landlord", "Draft slides"}, a.SuggestedTasks)
	assert.True(t, a.BurnoutRisk)
	assert.Equal(t, []domain.GroundingSource{
		{Title: "Attention residue", URI: "https://example.org/a"},
		{Title: "Research Source", URI: "https://example.org/b"},
	}, a.GroundingSources)

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Equal(t, llm.TaskAnalyze, req.Task)
	assert.True(t, req.Grounded)
	assert.True(t, req.JSON)
	assert.Contains(t, req.UserPrompt, "so much to do")
	assert.Contains(t, req.UserPrompt, "recovery")
}

func TestAnalyze_Failures(t *testing.T) {
	tests := []struct {
		name   string
		client *mockLLMClient
	}{
		{"transport error", &mockLLMClient{err: llm.ErrTimeout}},
		{"not json", &mockLLMClient{response: "I am unable to help."}},
		{"missing field", &mockLLMClient{response: `{"mood":"ok","energyLevel":5,"suggestedTasks":[],"coachingAdvice":"x","burnoutRisk":false}`}},
		{"energy above range", &mockLLMClient{response: `{"mood":"ok","energyLevel":11,"suggestedTasks":[],"coachingAdvice":"x","burnoutRisk":false,"focusInsight":"y"}`}},
		{"energy below range", &mockLLMClient{response: `{"mood":"ok","energyLevel":-1,"suggestedTasks":[],"coachingAdvice":"x","burnoutRisk":false,"focusInsight":"y"}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewPlanningService(tt.client)
			_, err := svc.Analyze(context.Background(), "dump", domain.ModeBalance)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrService)
		})
	}
}

func TestAnalyze_TransportErrorKeepsCause(t *testing.T) {
	svc := NewPlanningService(&mockLLMClient{err: llm.ErrUnavailable})
	_, err := svc.Analyze(context.Background(), "dump", domain.ModeBalance)
	assert.ErrorIs(t, err, domain.ErrService)
	assert.ErrorIs(t, err, llm.ErrUnavailable)
}

func TestGeneratePlan_Success(t *testing.T) {
	client := &mockLLMClient{response: validPlanJSON}
	svc := NewPlanningService(client)
	analysis := &domain.Analysis{
		EnergyLevel:    4,
		SuggestedTasks: []string{"Draft slides"},
		BurnoutRisk:    true,
	}

	tasks, err := svc.GeneratePlan(context.Background(), analysis, domain.ModeSprint)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	assert.Equal(t, domain.Task{
		Title: "Draft slides", Duration: 50, EnergyRequired: 7, Priority: domain.PriorityHigh,
	}, tasks[0])
	assert.True(t, tasks[1].IsBreak)
	for _, task := range tasks {
		assert.False(t, task.Completed)
	}

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Equal(t, llm.TaskPlan, req.Task)
	assert.False(t, req.Grounded)
	assert.Contains(t, req.UserPrompt, "energy level 4")
	assert.Contains(t, req.UserPrompt, "mode sprint")
	assert.Contains(t, req.UserPrompt, "Draft slides")
	assert.Contains(t, req.UserPrompt, "burnout")
}

func TestGeneratePlan_CompletedFlagFromModelIgnored(t *testing.T) {
	client := &mockLLMClient{response: `{"tasks":[{"title":"A","duration":5,"isBreak":false,"energyRequired":3,"priority":"medium","completed":true}]}`}
	tasks, err := NewPlanningService(client).GeneratePlan(context.Background(), &domain.Analysis{}, domain.ModeBalance)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.False(t, tasks[0].Completed)
}

func TestGeneratePlan_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"missing tasks", `{}`},
		{"missing priority", `{"tasks":[{"title":"A","duration":5,"isBreak":false,"energyRequired":3}]}`},
		{"zero duration", `{"tasks":[{"title":"A","duration":0,"isBreak":false,"energyRequired":3,"priority":"low"}]}`},
		{"energy zero", `{"tasks":[{"title":"A","duration":5,"isBreak":false,"energyRequired":0,"priority":"low"}]}`},
		{"energy eleven", `{"tasks":[{"title":"A","duration":5,"isBreak":false,"energyRequired":11,"priority":"low"}]}`},
		{"bad priority", `{"tasks":[{"title":"A","duration":5,"isBreak":false,"energyRequired":3,"priority":"urgent"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewPlanningService(&mockLLMClient{response: tt.json})
			_, err := svc.GeneratePlan(context.Background(), &domain.Analysis{}, domain.ModeBalance)
			assert.ErrorIs(t, err, domain.ErrService)
			assert.ErrorIs(t, err, llm.ErrInvalidOutput)
		})
	}
}

func TestGeneratePlan_NilAnalysis(t *testing.T) {
	client := &mockLLMClient{response: validPlanJSON}
	_, err := NewPlanningService(client).GeneratePlan(context.Background(), nil, domain.ModeBalance)
	assert.ErrorIs(t, err, domain.ErrService)
	assert.Empty(t, client.requests)
}

func TestGeneratePlan_EmptyTaskListIsValid(t *testing.T) {
	tasks, err := NewPlanningService(&mockLLMClient{response: `{"tasks":[]}`}).
		GeneratePlan(context.Background(), &domain.Analysis{}, domain.ModeBalance)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}
