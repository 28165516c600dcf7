package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/mindflow/internal/cli/formatter"
	"github.com/alexanderramin/mindflow/internal/domain"
)

func newPlanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show today's plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.withCore(cmd, func(_ context.Context, rt *runtime) error {
				st := rt.core.State()
				fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatPlan(st.Plan, st.Focus.Index()))
				return nil
			})
		},
	}

	cmd.AddCommand(
		newPlanAddCmd(app),
		newPlanBreakCmd(app),
		newPlanCompletionCmd(app, "done", "Mark task N completed", boolRef(true)),
		newPlanCompletionCmd(app, "undo", "Mark task N not completed", boolRef(false)),
		newPlanCompletionCmd(app, "toggle", "Flip the completion of task N", nil),
	)
	return cmd
}

func newPlanAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add [TITLE...]",
		Short: "Quick-add a task to today's plan",
		Long: fmt.Sprintf(`Append a %d-minute medium-priority task. Without a title an input form
is shown when running in a terminal.`, domain.QuickTaskDurationMin),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")
			if strings.TrimSpace(title) == "" && app.interactive() {
				if err := taskTitleForm(&title).Run(); err != nil {
					if errors.Is(err, huh.ErrUserAborted) {
						return nil
					}
					return err
				}
			}
			if strings.TrimSpace(title) == "" {
				return errors.New("a task title is required")
			}
			return app.withCore(cmd, func(ctx context.Context, rt *runtime) error {
				if err := rt.core.AddTask(ctx, title); err != nil {
					return err
				}
				st := rt.core.State()
				fmt.Fprintf(cmd.OutOrStdout(), "Added #%d %s\n", len(st.Plan.Tasks), strings.TrimSpace(title))
				return nil
			})
		},
	}
}

func newPlanBreakCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "break",
		Short: "Append a short reset break",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.withCore(cmd, func(ctx context.Context, rt *runtime) error {
				if err := rt.core.AddBreak(ctx); err != nil {
					return err
				}
				st := rt.core.State()
				fmt.Fprintf(cmd.OutOrStdout(), "Added #%d %s\n", len(st.Plan.Tasks), st.Plan.Tasks[len(st.Plan.Tasks)-1].Title)
				return nil
			})
		},
	}
}

func newPlanCompletionCmd(app *App, use, short string, forced *bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " N",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseTaskNumber(args[0])
			if err != nil {
				return err
			}
			return app.withCore(cmd, func(ctx context.Context, rt *runtime) error {
				if err := rt.core.SetCompletion(ctx, index, forced); err != nil {
					return err
				}
				st := rt.core.State()
				task := st.Plan.Tasks[index]
				fmt.Fprintf(cmd.OutOrStdout(), "%s #%d %s  %s\n",
					formatter.CheckMark(task.Completed), index+1, task.Title,
					formatter.RenderProgress(st.Progress(), 10))
				return nil
			})
		},
	}
}

// withCore runs fn against a started plan core.
func (a *App) withCore(cmd *cobra.Command, fn func(ctx context.Context, rt *runtime) error) error {
	ctx := commandContext(cmd)
	rt, err := a.startCore(ctx)
	if err != nil {
		return err
	}
	defer rt.stop()
	return fn(ctx, rt)
}

func taskTitleForm(title *string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("New task").
				Placeholder("What needs doing?").
				Value(title),
		),
	).WithTheme(formTheme()).WithShowHelp(false)
}

func boolRef(b bool) *bool { return &b }
