package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/mindflow/internal/cli/formatter"
	"github.com/alexanderramin/mindflow/internal/domain"
)

func newDumpCmd(app *App) *cobra.Command {
	var mode domain.FlowMode

	cmd := &cobra.Command{
		Use:   "dump [TEXT...]",
		Short: "Turn a brain dump into today's plan",
		Long: `Analyse a brain dump and replace today's plan with the result.

With TEXT the draft is set to it first; without, the stored draft is used.
The draft is cleared once the plan has been stored.`,
		Example: `  mindflow dump "taxes due friday, gym, call mum, tired"
  mindflow dump --mode recovery`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			rt, err := app.startCore(ctx)
			if err != nil {
				return err
			}
			defer rt.stop()

			text := strings.Join(args, " ")
			if strings.TrimSpace(text) == "" {
				if text, err = rt.draft.Seed(ctx); err != nil {
					return err
				}
			} else {
				rt.draft.Update(text)
				if err := rt.draft.Flush(ctx); err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()
			if strings.TrimSpace(text) == "" {
				fmt.Fprintln(out, formatter.Dim("Nothing to analyze: the draft is empty."))
				return nil
			}

			stopSpinner := func() {}
			if app.interactive() {
				stopSpinner = formatter.StartSpinner(cmd.ErrOrStderr(), "Reading your mind...")
			}
			plan, err := rt.core.RunAnalysis(ctx, text, mode)
			stopSpinner()
			if plan == nil {
				return err
			}
			fmt.Fprintln(out, formatter.FormatPlan(plan, -1))
			return err
		},
	}

	cmd.Flags().Var(newModeFlag(&mode), "mode", "flow mode: sprint, recovery or balance")
	return cmd
}
