package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sortinghat/internal/core"
	"github.com/JonMunkholm/sortinghat/internal/database"
)

func (a *app) newClassifiersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classifiers",
		Short: "List the available classifier backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.write(cmd, core.Backends())
		},
	}
}

func (a *app) newRunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Show recorded inference runs from the database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conn, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer conn.Close(context.Background())

			svc := a.newService(database.NewRunStore(conn))
			if len(args) == 1 {
				run, err := svc.GetRun(ctx, args[0])
				if err != nil {
					return err
				}
				return a.write(cmd, run)
			}

			runs, err := svc.ListRuns(ctx, limit)
			if err != nil {
				return err
			}
			return a.write(cmd, runs)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to list")
	return cmd
}
