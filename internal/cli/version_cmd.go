package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	goversion "go.hein.dev/go-version"
)

func newVersionCmd(app *App) *cobra.Command {
	var (
		shortened bool
		output    string
	)
	cmd := &cobra.Command{
		Use:         "version",
		Short:       "Print the mindflow version",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipSetupAnnotation: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			b := app.Build
			resp := goversion.FuncWithOutput(shortened,
				orDefault(b.Version, "dev"), orDefault(b.Commit, "none"), orDefault(b.Date, "unknown"), output)
			fmt.Fprint(cmd.OutOrStdout(), resp)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&shortened, "short", "s", false, "print just the version number")
	cmd.Flags().VarP(newOutputFlag(&output, "json", "json", "yaml"), "output", "o", "output format: json or yaml")
	return cmd
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
