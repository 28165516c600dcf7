package cli

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/mindflow/internal/cli/formatter"
	"github.com/alexanderramin/mindflow/internal/domain"
)

var errNeedsTerminal = errors.New("focus needs an interactive terminal")

func newFocusCmd(app *App) *cobra.Command {
	var minutes int

	cmd := &cobra.Command{
		Use:   "focus N",
		Short: "Run a full-screen focus timer on task N",
		Long: `Start a countdown bound to task N of today's plan. When the countdown
runs out, or you finish early, the task is marked completed.

Keys: space pauses and resumes, enter finishes, esc leaves without
completing the task.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseTaskNumber(args[0])
			if err != nil {
				return err
			}
			if !app.interactive() {
				return errNeedsTerminal
			}
			return app.withCore(cmd, func(ctx context.Context, rt *runtime) error {
				st := rt.core.State()
				if st.Plan == nil {
					return domain.ErrNoPlan
				}
				if !st.Plan.HasTask(index) {
					return fmt.Errorf("task %d: %w", index+1, domain.ErrTaskIndex)
				}
				task := st.Plan.Tasks[index]
				duration := task.Duration
				if cmd.Flags().Changed("minutes") {
					duration = minutes
				}
				if err := rt.core.StartFocus(ctx, index, duration); err != nil {
					return err
				}
				if err := rt.core.EnterFullScreen(ctx); err != nil {
					return err
				}

				m := newTUIModel(ctx, rt, "", focusOnly())
				if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
					return err
				}

				after := rt.core.State()
				if after.Plan.HasTask(index) && after.Plan.Tasks[index].Completed {
					fmt.Fprintf(cmd.OutOrStdout(), "%s #%d %s\n", formatter.CheckMark(true), index+1, task.Title)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("Focus session left early."))
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&minutes, "minutes", "m", 0, "session length in minutes (default: the task's duration)")
	return cmd
}
