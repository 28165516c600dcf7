package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/alexanderramin/mindflow/internal/cli/formatter"
	"github.com/alexanderramin/mindflow/internal/domain"
	"github.com/alexanderramin/mindflow/internal/service"
)

type sourceRecord struct {
	Title string `json:"title" yaml:"title"`
	URI   string `json:"uri" yaml:"uri"`
}

type historyRecord struct {
	ID             string         `json:"id" yaml:"id"`
	Date           string         `json:"date" yaml:"date"`
	Mode           string         `json:"mode" yaml:"mode"`
	Content        string         `json:"content" yaml:"content"`
	Mood           string         `json:"mood" yaml:"mood"`
	EnergyLevel    float64        `json:"energyLevel" yaml:"energy_level"`
	BurnoutRisk    bool           `json:"burnoutRisk" yaml:"burnout_risk"`
	FocusInsight   string         `json:"focusInsight,omitempty" yaml:"focus_insight,omitempty"`
	CoachingAdvice string         `json:"coachingAdvice,omitempty" yaml:"coaching_advice,omitempty"`
	SuggestedTasks []string       `json:"suggestedTasks,omitempty" yaml:"suggested_tasks,omitempty"`
	Sources        []sourceRecord `json:"sources,omitempty" yaml:"sources,omitempty"`
}

func toHistoryRecords(items []domain.HistoryItem) []historyRecord {
	out := make([]historyRecord, 0, len(items))
	for _, it := range items {
		rec := historyRecord{
			ID:             it.ID,
			Date:           it.Date,
			Mode:           string(it.Mode),
			Content:        it.Content,
			Mood:           it.Analysis.Mood,
			EnergyLevel:    it.Analysis.EnergyLevel,
			BurnoutRisk:    it.Analysis.BurnoutRisk,
			FocusInsight:   it.Analysis.FocusInsight,
			CoachingAdvice: it.Analysis.CoachingAdvice,
			SuggestedTasks: it.Analysis.SuggestedTasks,
		}
		for _, s := range it.Analysis.GroundingSources {
			rec.Sources = append(rec.Sources, sourceRecord{Title: s.Title, URI: s.URI})
		}
		out = append(out, rec)
	}
	return out
}

func newHistoryCmd(app *App) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"insights"},
		Short:   "List past brain dumps and their analyses, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := service.LoadHistory(commandContext(cmd), app.Session)
			if err != nil {
				return err
			}
			return writeHistory(cmd.OutOrStdout(), items, output)
		},
	}

	cmd.Flags().VarP(newOutputFlag(&output, "table", "table", "json", "yaml"), "output", "o",
		"output format: table, json or yaml")
	return cmd
}

func writeHistory(w io.Writer, items []domain.HistoryItem, output string) error {
	switch output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(toHistoryRecords(items))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(toHistoryRecords(items)); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := fmt.Fprint(w, formatter.FormatHistory(items))
		return err
	}
}
