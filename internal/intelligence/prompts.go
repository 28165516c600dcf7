package intelligence

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/mindflow/internal/domain"
)

// analyzeSystemPrompt asks for a grounded, evidence-based reading of a dump.
const analyzeSystemPrompt = `You are a high-performance neural coach. Your goal is to analyze the user's thoughts and provide evidence-based insights.
Use web search to find current productivity or mental wellness research relevant to the specific stressors they mention.

You must output ONLY a JSON object with these exact fields:
- mood: short description of the user's emotional state
- energyLevel: number from 0 (depleted) to 10 (fully charged)
- suggestedTasks: array of short task titles extracted from the dump
- coachingAdvice: one or two sentences of grounded, actionable advice
- burnoutRisk: boolean
- focusInsight: one sentence on how to protect focus today

Do not wrap the JSON in markdown. Do not add commentary.`

// planSystemPrompt asks for a time-blocked schedule.
const planSystemPrompt = `You are a master of time-blocking. Structure the day for peak cognitive efficiency. Ensure breaks are included.

You must output ONLY a JSON object of the form {"tasks": [...]} where each task has these exact fields:
- title: string
- duration: minutes, integer greater than 0
- isBreak: boolean
- energyRequired: integer from 1 to 10
- priority: one of "high", "medium", "low"

Do not wrap the JSON in markdown. Do not add commentary.`

func analyzeUserPrompt(content string, mode domain.FlowMode) string {
	return fmt.Sprintf("Analyze this brain dump for a person in %s mode (%s):\n%q",
		mode, mode.Info().Desc, content)
}

func planUserPrompt(analysis *domain.Analysis, mode domain.FlowMode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a daily schedule for energy level %s and mode %s.\n",
		formatEnergy(analysis.EnergyLevel), mode)
	fmt.Fprintf(&b, "Tasks: %s.\n", strings.Join(analysis.SuggestedTasks, ", "))
	b.WriteString("Assign a priority (high, medium, low) to each task.")
	if analysis.BurnoutRisk {
		b.WriteString("\nThe user is at risk of burnout; keep the load light and the breaks generous.")
	}
	return b.String()
}

func formatEnergy(v float64) string {
	if v == float64(int(v)) {
		return fmt.Sprintf("%d", int(v))
	}
	return fmt.Sprintf("%.1f", v)
}
