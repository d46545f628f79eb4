package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	goversion "go.hein.dev/go-version"
)

// Set by the release build through -ldflags "-X tempo-cli/internal/cli.version=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func newVersionCmd() *cobra.Command {
	shortened := false
	output := "json"

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the tempo version",
		Example: `
tempo version
tempo version --short
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp := goversion.FuncWithOutput(shortened, version, commit, date, output)
			_, err := fmt.Fprint(cmd.OutOrStdout(), resp)
			return err
		},
	}

	cmd.Flags().BoolVarP(&shortened, "short", "s", false, "Print just the version number.")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "Output format. One of 'yaml' or 'json'.")
	return cmd
}
