package cli

import (
	"tempo-cli/internal/gateway"

	"github.com/spf13/cobra"
)

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the Jira user the configured tokens belong to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			_, jira, err := app.clients(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			u, err := gateway.Call(ctx, app.gw, gateway.FetchCurrentUser(jira))
			if err != nil {
				return writeErr(cmd, describeRemote("fetch current user", err))
			}
			return writeData(cmd, app, u)
		},
	}
}
