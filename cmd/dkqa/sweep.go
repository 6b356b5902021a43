package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dagknows/dkqa/internal/cleanup"
	"github.com/dagknows/dkqa/internal/client"
	"github.com/dagknows/dkqa/internal/config"
	"github.com/dagknows/dkqa/internal/factory"
	"github.com/dagknows/dkqa/internal/observability"
)

// newSweepCmd deletes leftover suite resources. Aborted runs leave tasks
// and workspaces behind; everything the factories create carries a
// recognizable prefix, so the sweep is safe to run against shared tenants.
func newSweepCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:     "sweep",
		Aliases: []string{"cleanup"},
		Short:   "Delete leftover dkqa- resources from the deployment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			if err := cfg.Validate(); err != nil {
				return err
			}
			if cfg.Token == "" {
				return fmt.Errorf("DAGKNOWS_TOKEN is required for the sweep")
			}

			logger, err := observability.NewLogger(cfg.Observability)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			api := client.NewTaskService(cfg.TaskServiceURL,
				client.WithToken(cfg.Token), client.WithLogger(logger))
			tracker := cleanup.NewTracker(logger)
			out := cmd.OutOrStdout()

			tasks, err := api.ListTasks(ctx, client.ListTasksOptions{Query: factory.Prefix, PageSize: 500})
			if err != nil {
				return fmt.Errorf("listing tasks: %w", err)
			}
			for _, task := range tasks.Tasks {
				if !strings.HasPrefix(task.Title, factory.Prefix) {
					continue
				}
				fmt.Fprintf(out, "task %s (%s)\n", task.ID, task.Title)
				id := task.ID
				tracker.Add("task", id, func(ctx context.Context) error {
					return api.DeleteTask(ctx, id)
				})
			}

			// Workspaces go after their tasks; the tracker deletes LIFO.
			workspaces, err := api.ListWorkspaces(ctx)
			if err != nil {
				return fmt.Errorf("listing workspaces: %w", err)
			}
			for _, ws := range workspaces.Workspaces {
				if !strings.HasPrefix(ws.Name, factory.Prefix) {
					continue
				}
				fmt.Fprintf(out, "workspace %s (%s)\n", ws.ID, ws.Name)
				id := ws.ID
				tracker.Add("workspace", id, func(ctx context.Context) error {
					return api.DeleteWorkspace(ctx, id)
				})
			}

			if dryRun {
				fmt.Fprintf(out, "dry run: %d resources would be deleted\n", tracker.Len())
				return nil
			}

			total := tracker.Len()
			failed := tracker.Cleanup(ctx)
			fmt.Fprintf(out, "deleted %d of %d resources\n", total-failed, total)
			if failed > 0 {
				return fmt.Errorf("%d resources could not be deleted", failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list matching resources without deleting")
	return cmd
}
