package intelligence

import (
	"context"
	"fmt"

	"github.com/alexanderramin/mindflow/internal/domain"
	"github.com/alexanderramin/mindflow/internal/llm"
)

// PlanningService turns a brain dump into an analysis and the analysis into
// a day of tasks. It never retries; every failure wraps domain.ErrService.
type PlanningService interface {
	Analyze(ctx context.Context, content string, mode domain.FlowMode) (*domain.Analysis, error)
	GeneratePlan(ctx context.Context, analysis *domain.Analysis, mode domain.FlowMode) ([]domain.Task, error)
}

type planningService struct {
	client llm.LLMClient
}

// NewPlanningService creates a PlanningService backed by an LLM client.
func NewPlanningService(client llm.LLMClient) PlanningService {
	return &planningService{client: client}
}

func (s *planningService) Analyze(ctx context.Context, content string, mode domain.FlowMode) (*domain.Analysis, error) {
	resp, err := s.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskAnalyze,
		SystemPrompt: analyzeSystemPrompt,
		UserPrompt:   analyzeUserPrompt(content, mode),
		JSON:         true,
		Grounded:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: analyze: %w", domain.ErrService, err)
	}

	parsed, err := llm.ExtractJSON(resp.Text, validateAnalysis)
	if err != nil {
		return nil, fmt.Errorf("%w: analyze: %w", domain.ErrService, err)
	}
	return parsed.toDomain(resp.Sources), nil
}

func (s *planningService) GeneratePlan(ctx context.Context, analysis *domain.Analysis, mode domain.FlowMode) ([]domain.Task, error) {
	if analysis == nil {
		return nil, fmt.Errorf("%w: plan: no analysis", domain.ErrService)
	}
	resp, err := s.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskPlan,
		SystemPrompt: planSystemPrompt,
		UserPrompt:   planUserPrompt(analysis, mode),
		JSON:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: plan: %w", domain.ErrService, err)
	}

	parsed, err := llm.ExtractJSON(resp.Text, validatePlan)
	if err != nil {
		return nil, fmt.Errorf("%w: plan: %w", domain.ErrService, err)
	}
	return parsed.toDomain(), nil
}
