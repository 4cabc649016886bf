package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"leadlens/internal/apiclient"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report the health of a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := ctx.apiClient(nil)
			health, err := client.Health(cmd.Context())
			var statusErr *apiclient.StatusError
			if err != nil && !errors.As(err, &statusErr) {
				return wrapServerError(err, ctx.baseURL())
			}
			if jsonOutput {
				return writeJSON(cmd, health)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			serverKind := statusOK
			if health.Status != "ok" {
				serverKind = statusError
			}
			fmt.Fprintln(out, renderStatusLine("Server", serverKind, ctx.baseURL(), colorize))

			names := make([]string, 0, len(health.Checks))
			for name := range health.Checks {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				detail := health.Checks[name]
				fmt.Fprintln(out, renderStatusLine(name, checkKind(detail == "ok", false), detail, colorize))
			}
			if statusErr != nil {
				return fmt.Errorf("server is %s", health.Status)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the raw health payload")
	return cmd
}
