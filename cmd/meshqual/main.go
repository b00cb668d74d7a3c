// Command meshqual evaluates and smooths volume meshes with a target-matrix
// quality objective.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// Cobra prints the error itself.
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML objective configuration (defaults apply when empty)")
	rootCmd.PersistentFlags().StringVar(&referencePath, "reference", "", "reference mesh for the lvqd target")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9100")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")

	smoothCmd.Flags().StringVarP(&outPath, "out", "o", "", "write the smoothed mesh as Gmsh to this path")
	smoothCmd.Flags().IntVar(&passes, "passes", 0, "override the configured number of passes")

	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(smoothCmd)
}
