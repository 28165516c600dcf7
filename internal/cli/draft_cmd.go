package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/mindflow/internal/cli/formatter"
	"github.com/alexanderramin/mindflow/internal/service"
)

func newDraftCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Show the stored brain-dump draft",
		RunE: func(cmd *cobra.Command, _ []string) error {
			text, err := app.draftSync().Seed(commandContext(cmd))
			if err != nil {
				return err
			}
			if strings.TrimSpace(text) == "" {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("(empty draft)"))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set TEXT...",
			Short: "Replace the draft",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := commandContext(cmd)
				sync := app.draftSync()
				text := strings.Join(args, " ")
				if strings.TrimSpace(text) == "" {
					return sync.Clear(ctx)
				}
				sync.Update(text)
				if err := sync.Flush(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Draft saved (%d chars).\n", len(text))
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the draft",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := app.draftSync().Clear(commandContext(cmd)); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Draft cleared.")
				return nil
			},
		},
	)
	return cmd
}

// draftSync returns a sync for one-shot commands. Writes are flushed
// explicitly, so the quiet period never elapses.
func (a *App) draftSync() *service.DraftSync {
	return service.NewDraftSync(a.Session,
		service.WithQuietPeriod(a.DraftQuiet),
		service.WithDraftLogger(a.logger()),
	)
}
