package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"reelsmith/internal/api"
	"reelsmith/internal/pipeline"
)

func newLibraryCommand(ctx *commandContext) *cobra.Command {
	libraryCmd := &cobra.Command{
		Use:   "library",
		Short: "Browse and maintain the render library",
	}

	libraryCmd.AddCommand(newLibraryListCommand(ctx))
	libraryCmd.AddCommand(newLibraryRemoveCommand(ctx))
	libraryCmd.AddCommand(newLibraryClearCommand(ctx))

	return libraryCmd
}

func newLibraryListCommand(ctx *commandContext) *cobra.Command {
	var kindFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List completed renders",
		RunE: func(cmd *cobra.Command, args []string) error {
			if kindFlag != "" {
				if _, err := pipeline.ParseKind(kindFlag); err != nil {
					return err
				}
			}
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.LibraryList(cmd.Context(), kindFlag)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(resp.Renders) == 0 {
					fmt.Fprintln(out, "No renders in the library")
					return nil
				}

				rows := make([][]string, 0, len(resp.Renders))
				for _, render := range resp.Renders {
					title := render.Title
					if title == "" {
						title = "-"
					}
					rows = append(rows, []string{
						render.SessionID,
						pipeline.Kind(render.Kind).Label(),
						title,
						filepath.Base(render.ArtifactPath),
						render.CreatedAt.Local().Format(time.DateTime),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Session", "Kind", "Title", "File", "Created"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				fmt.Fprintf(out, "%d render(s)\n", len(resp.Renders))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&kindFlag, "kind", "k", "", "Filter by workflow kind")
	return cmd
}

func newLibraryRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <session-id>",
		Short: "Remove one render from the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				removed, err := client.LibraryRemove(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d render(s)\n", removed)
				return nil
			})
		},
	}
}

func newLibraryClearCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every render from the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("refusing to clear the library without --force")
			}
			return ctx.withClient(func(client *api.Client) error {
				removed, err := client.LibraryClear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d render(s)\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Confirm clearing the library")
	return cmd
}
