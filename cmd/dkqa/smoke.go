package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dagknows/dkqa/internal/client"
	"github.com/dagknows/dkqa/internal/config"
	"github.com/dagknows/dkqa/internal/factory"
	"github.com/dagknows/dkqa/internal/observability"
	"github.com/dagknows/dkqa/model"
)

// newSmokeCmd runs a minimal create-fetch-delete cycle against the
// configured deployment.
func newSmokeCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Run a task lifecycle smoke check against the deployment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			if err := cfg.Validate(); err != nil {
				return err
			}
			if cfg.Token == "" {
				return fmt.Errorf("DAGKNOWS_TOKEN is required for the smoke check")
			}

			logger, err := observability.NewLogger(cfg.Observability)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			shutdownTracing, err := observability.InitTracing(ctx, cfg.Observability.Tracing, version)
			if err != nil {
				return err
			}
			defer shutdownTracing(context.Background())

			api := client.NewTaskService(cfg.TaskServiceURL,
				client.WithToken(cfg.Token), client.WithLogger(logger))

			workspaceID, err := resolveWorkspace(ctx, api)
			if err != nil {
				return fmt.Errorf("resolve workspace: %w", err)
			}

			created, err := api.CreateTask(ctx, factory.Task(workspaceID))
			if err != nil {
				return fmt.Errorf("create: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", created.ID, created.Title)

			if _, err := api.GetTask(ctx, created.ID); err != nil {
				return fmt.Errorf("fetch: %w", err)
			}
			if err := api.DeleteTask(ctx, created.ID); err != nil {
				return fmt.Errorf("delete: %w", err)
			}
			if _, err := api.GetTask(ctx, created.ID); !model.IsNotFound(err) {
				return fmt.Errorf("task still present after delete: %v", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "smoke check passed")
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall smoke check timeout")
	return cmd
}

// resolveWorkspace picks the tenant's default workspace, falling back to the
// first listed one. Task creation requires a workspace ID.
func resolveWorkspace(ctx context.Context, api *client.TaskService) (string, error) {
	list, err := api.ListWorkspaces(ctx)
	if err != nil {
		return "", err
	}
	for _, ws := range list.Workspaces {
		if ws.IsDefault {
			return ws.ID, nil
		}
	}
	if len(list.Workspaces) > 0 {
		return list.Workspaces[0].ID, nil
	}
	return "", fmt.Errorf("no workspaces visible to this token")
}
