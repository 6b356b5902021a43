// Package main is the dkqa command line tool: environment checks, smoke
// runs, leftover-resource sweeps, and a local stub platform for developing
// suites without a deployment.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build-time variables set via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc1234"
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	root := &cobra.Command{
		Use:           "dkqa",
		Short:         "Test tooling for the DagKnows platform",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newEnvCheckCmd(),
		newSmokeCmd(),
		newSweepCmd(),
		newStubCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
