package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dagknows/dkqa/internal/config"
	"github.com/dagknows/dkqa/internal/observability"
	"github.com/dagknows/dkqa/internal/stub"
	"github.com/dagknows/dkqa/model"
)

// newStubCmd boots the in-process platform stub on local ports and keeps
// it running. Useful for driving the UI or exploratory curl sessions
// against the same fake backend the integration tests use.
func newStubCmd() *cobra.Command {
	var jobLatency time.Duration

	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Run the platform stub until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			logger, err := observability.NewLogger(cfg.Observability)
			if err != nil {
				return err
			}
			defer logger.Sync()

			creds := cfg.Credentials
			if creds.Email == "" {
				creds = config.Credentials{Email: "qa@local.example.com", Password: "stub", Org: "local"}
			}

			platform, err := stub.NewPlatform(
				stub.WithLogger(logger),
				stub.WithJobLatency(jobLatency),
				stub.WithUser(creds.Password, model.User{
					Email: creds.Email,
					Org:   creds.Org,
					Roles: []string{"admin"},
				}),
			)
			if err != nil {
				return err
			}
			defer platform.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "task service: %s\n", platform.TaskServiceURL())
			fmt.Fprintf(out, "req router:   %s\n", platform.ReqRouterURL())
			fmt.Fprintf(out, "sign in as %s / %s (org %s)\n", creds.Email, creds.Password, creds.Org)

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig
			fmt.Fprintln(out, "shutting down")
			return nil
		},
	}

	cmd.Flags().DurationVar(&jobLatency, "job-latency", 25*time.Millisecond, "simulated job execution time")
	return cmd
}
