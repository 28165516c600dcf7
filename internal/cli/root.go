package cli

import (
	"context"

	"github.com/spf13/cobra"
)

const skipSetupAnnotation = "mindflow/skip-setup"

// NewRootCmd creates the top-level "mindflow" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "mindflow",
		Short: "Brain dump in, focused day out",
		Long: `mindflow turns an unstructured brain dump into a prioritised plan for
today, then keeps you on it with a focus timer.

Run without arguments in a terminal to open the interactive view.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if app.Setup == nil || cmd.Annotations[skipSetupAnnotation] == "true" {
				return nil
			}
			setup := app.Setup
			app.Setup = nil
			return setup(commandContext(cmd), app)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !app.interactive() {
				return cmd.Help()
			}
			return runTUI(commandContext(cmd), app)
		},
	}

	root.PersistentFlags().StringVar(&app.ConfigFile, "config", "",
		"config file (default .mindflow.yaml in the working directory or ~/.mindflow)")

	root.AddCommand(
		newDumpCmd(app),
		newDraftCmd(app),
		newPlanCmd(app),
		newFocusCmd(app),
		newHistoryCmd(app),
		newIdentityCmd(app),
		newStatusCmd(app),
		newVersionCmd(app),
	)
	return root
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
