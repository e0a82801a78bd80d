package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelsmith/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				status, err := client.Status(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				for _, line := range renderSectionHeader("Daemon", colorize) {
					fmt.Fprintln(out, line)
				}
				runningKind := statusOK
				runningMessage := fmt.Sprintf("pid %d", status.PID)
				if !status.Running {
					runningKind = statusError
					runningMessage = ""
				}
				fmt.Fprintln(out, renderStatusLine("Running", runningKind, runningMessage, colorize))
				fmt.Fprintln(out, renderStatusLine("Active channels", statusInfo, fmt.Sprintf("%d", status.ActiveChannels), colorize))
				fmt.Fprintln(out, renderStatusLine("Library DB", statusInfo, status.LibraryDBPath, colorize))
				fmt.Fprintln(out, renderStatusLine("Lock file", statusInfo, status.LockFilePath, colorize))

				if len(status.Dependencies) == 0 {
					return nil
				}
				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Dependencies", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, dep := range status.Dependencies {
					kind := statusOK
					message := dep.Command
					if !dep.Available {
						kind = statusError
						if dep.Optional {
							kind = statusWarn
						}
						message = dep.Detail
					}
					fmt.Fprintln(out, renderStatusLine(dep.Name, kind, message, colorize))
				}
				return nil
			})
		},
	}
}
