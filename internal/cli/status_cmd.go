package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/mindflow/internal/cli/formatter"
	"github.com/alexanderramin/mindflow/internal/service"
)

const availabilityTimeout = 3 * time.Second

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show store, model and today's progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.withCore(cmd, func(ctx context.Context, rt *runtime) error {
				info, err := app.statusInfo(ctx, rt)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatStatus(info))
				return nil
			})
		},
	}
}

func (a *App) statusInfo(ctx context.Context, rt *runtime) (formatter.StatusInfo, error) {
	st := rt.core.State()
	totals := st.Plan.Totals()
	info := formatter.StatusInfo{
		Device:        a.Session.DeviceID,
		Backend:       a.Store.Backend,
		StoreLocation: a.Store.Location,
		ConfigFile:    a.ConfigFile,
		Provider:      string(a.LLMConfig.Provider),
		Model:         a.LLMConfig.Model,
		LLMConfigured: a.Planner != nil && a.LLM != nil,
		Day:           st.Day,
		Progress:      st.Progress(),
		Tasks:         totals.Tasks,
		Completed:     totals.Completed,
	}

	history, err := service.LoadHistory(ctx, a.Session)
	if err != nil {
		return info, err
	}
	info.HistoryItems = len(history)

	draft, err := rt.draft.Seed(ctx)
	if err != nil {
		return info, err
	}
	info.DraftChars = len(draft)

	if info.LLMConfigured {
		probeCtx, cancel := context.WithTimeout(ctx, availabilityTimeout)
		defer cancel()
		info.LLMReachable = a.LLM.Available(probeCtx)
	}
	return info, nil
}
