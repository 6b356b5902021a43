package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dagknows/dkqa/internal/client"
	"github.com/dagknows/dkqa/internal/config"
	"github.com/dagknows/dkqa/internal/dbverify"
	"github.com/dagknows/dkqa/internal/observability"
)

// newEnvCheckCmd reports which capabilities the current environment
// unlocks and probes the endpoints it names.
func newEnvCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "envcheck",
		Short: "Validate the DAGKNOWS_* environment and probe connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			out := cmd.OutOrStdout()

			report := func(name, value string) {
				if value == "" {
					fmt.Fprintf(out, "  %-20s (unset)\n", name)
					return
				}
				fmt.Fprintf(out, "  %-20s %s\n", name, value)
			}

			fmt.Fprintln(out, "environment:")
			report("base URL", cfg.BaseURL)
			report("task service", cfg.TaskServiceURL)
			report("req router", cfg.ReqRouterURL)
			report("elastic", cfg.ElasticURL)
			report("org", cfg.Credentials.Org)

			fmt.Fprintln(out, "capabilities:")
			fmt.Fprintf(out, "  API token:        %v\n", cfg.Token != "")
			fmt.Fprintf(out, "  UI credentials:   %v\n", cfg.HasUICredentials())
			fmt.Fprintf(out, "  postgres verify:  %v\n", cfg.HasPostgres())
			fmt.Fprintf(out, "  elastic verify:   %v\n", cfg.HasElastic())

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("environment incomplete: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			shutdownTracing, err := observability.InitTracing(ctx, cfg.Observability.Tracing, version)
			if err != nil {
				return err
			}
			defer shutdownTracing(context.Background())

			if cfg.Token != "" {
				router := client.NewReqRouter(cfg.ReqRouterURL, client.WithToken(cfg.Token))
				if _, err := router.GetSettings(ctx); err != nil {
					return fmt.Errorf("req router unreachable: %w", err)
				}
				fmt.Fprintln(out, "req router: ok")
			}
			if cfg.HasPostgres() {
				verifier, err := dbverify.Connect(ctx, cfg)
				if err != nil {
					return fmt.Errorf("postgres unreachable: %w", err)
				}
				verifier.Close()
				fmt.Fprintln(out, "postgres: ok")
			}

			return nil
		},
	}
}
