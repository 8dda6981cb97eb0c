package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "foodmarket",
	Short: "FoodMarket backend",
	Long: `FoodMarket backend: the HTTP API server, the image cleanup worker
and database migrations.`,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
