package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "strand-bench",
		Short: "Benchmark and demo tool for the strand selector core",
		Long: `strand-bench exercises the strand reactive selector engine.

  bench  runs selector sweep/query benchmarks, optionally exporting
         Prometheus metrics while it runs
  demo   serves a live "selected row" feed over WebSocket, pushing to
         each subscribed key exactly when its selection flips`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		benchCmd(),
		demoCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
